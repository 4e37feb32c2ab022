package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Input
	AssetsDir    string
	DefaultPDF   string
	DocTitle     string
	MaxFileBytes int64

	// Output files (bare names in the working directory)
	TOCOutput     string
	ContentOutput string
	ReportJSON    string
	ReportCSV     string
	ReportHTML    string

	// Extraction
	ContentLimit      int
	MaxWorkers        int
	ParallelThreshold int
	SectionTimeout    time.Duration
	ExtractMedia      bool
	RepairParents     bool

	// Search
	MinQueryLength int
	MaxResults     int
	SearchContent  bool

	// Server
	Port         string
	APIKey       string
	WorkerCount  int
	MaxQueueSize int
	JobTTL       time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

const (
	defaultContentLimit      = 50000
	defaultMaxWorkers        = 4
	defaultParallelThreshold = 100
	defaultSectionTimeout    = 30 * time.Second
	defaultMinQueryLength    = 2
	defaultMaxResults        = 10
	defaultMaxFileBytes      = 100 << 20
	defaultWorkerCount       = 2
	defaultMaxQueueSize      = 16
	defaultJobTTL            = time.Hour
)

var defaults = map[string]any{
	"assets_dir":         "assets",
	"default_pdf":        "USB_PD_R3_2 V1.1 2024-10.pdf",
	"doc_title":          "USB Power Delivery Specification",
	"max_file_bytes":     defaultMaxFileBytes,
	"toc_output":         "usb_pd_toc.jsonl",
	"content_output":     "usb_pd_spec.jsonl",
	"report_json":        "validation_report.json",
	"report_csv":         "validation_report.csv",
	"report_html":        "validation_report.html",
	"content_limit":      defaultContentLimit,
	"max_workers":        defaultMaxWorkers,
	"parallel_threshold": defaultParallelThreshold,
	"section_timeout":    defaultSectionTimeout,
	"extract_media":      false,
	"repair_parents":     true,
	"min_query_length":   defaultMinQueryLength,
	"max_results":        defaultMaxResults,
	"search_content":     false,
	"port":               "8090",
	"api_key":            "",
	"worker_count":       defaultWorkerCount,
	"max_queue_size":     defaultMaxQueueSize,
	"job_ttl":            defaultJobTTL,
	"log_level":          "info",
	"log_format":         "json",
}

// Load reads defaults, then the config file, then SPECTOC_* environment
// variables. An explicit cfgFile must exist; otherwise ./spectoc.yaml is
// optional.
func Load(cfgFile string) (Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix("SPECTOC")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("spectoc")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		AssetsDir:    v.GetString("assets_dir"),
		DefaultPDF:   v.GetString("default_pdf"),
		DocTitle:     v.GetString("doc_title"),
		MaxFileBytes: v.GetInt64("max_file_bytes"),

		TOCOutput:     v.GetString("toc_output"),
		ContentOutput: v.GetString("content_output"),
		ReportJSON:    v.GetString("report_json"),
		ReportCSV:     v.GetString("report_csv"),
		ReportHTML:    v.GetString("report_html"),

		ContentLimit:      v.GetInt("content_limit"),
		MaxWorkers:        v.GetInt("max_workers"),
		ParallelThreshold: v.GetInt("parallel_threshold"),
		SectionTimeout:    v.GetDuration("section_timeout"),
		ExtractMedia:      v.GetBool("extract_media"),
		RepairParents:     v.GetBool("repair_parents"),

		MinQueryLength: v.GetInt("min_query_length"),
		MaxResults:     v.GetInt("max_results"),
		SearchContent:  v.GetBool("search_content"),

		Port:         v.GetString("port"),
		APIKey:       v.GetString("api_key"),
		WorkerCount:  v.GetInt("worker_count"),
		MaxQueueSize: v.GetInt("max_queue_size"),
		JobTTL:       v.GetDuration("job_ttl"),

		LogLevel:  strings.ToLower(v.GetString("log_level")),
		LogFormat: strings.ToLower(v.GetString("log_format")),
	}

	if cfg.ContentLimit <= 0 {
		cfg.ContentLimit = defaultContentLimit
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = defaultMaxWorkers
	}
	if cfg.ParallelThreshold <= 0 {
		cfg.ParallelThreshold = defaultParallelThreshold
	}
	if cfg.SectionTimeout <= 0 {
		cfg.SectionTimeout = defaultSectionTimeout
	}
	if cfg.MinQueryLength <= 0 {
		cfg.MinQueryLength = defaultMinQueryLength
	}
	if cfg.MaxResults < 0 {
		cfg.MaxResults = defaultMaxResults
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = defaultMaxFileBytes
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = defaultWorkerCount
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = defaultMaxQueueSize
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = defaultJobTTL
	}

	return cfg, nil
}

func (c Config) Validate() error {
	for key, name := range map[string]string{
		"toc_output":     c.TOCOutput,
		"content_output": c.ContentOutput,
		"assets_dir":     c.AssetsDir,
		"doc_title":      c.DocTitle,
	} {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%s is required", key)
		}
	}
	if c.TOCOutput == c.ContentOutput {
		return fmt.Errorf("toc_output and content_output must differ (%s)", c.TOCOutput)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("log_format must be json or text, got %q", c.LogFormat)
	}
	return nil
}
