package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/spectoc/internal/config"
	"github.com/dgallion1/spectoc/internal/extract"
	"github.com/dgallion1/spectoc/internal/metrics"
	"github.com/dgallion1/spectoc/internal/parser"
	"github.com/dgallion1/spectoc/internal/pdfdoc"
	"github.com/dgallion1/spectoc/internal/pipeline"
	"github.com/dgallion1/spectoc/internal/schema"
	"github.com/dgallion1/spectoc/internal/validate"
	"github.com/dgallion1/spectoc/internal/version"
)

// app holds what every subcommand needs once flags are parsed.
type app struct {
	cfgFile   string
	logLevel  string
	logFormat string

	cfg config.Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "spectoc",
		Short: "Extract and search the table of contents of a specification PDF",
		Long: `spectoc reads the outline of a large specification PDF, keeps the numbered
sections, writes the table of contents and per-section content as JSON Lines,
and answers keyword searches over the result.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.Version = version.Version
	root.SetVersionTemplate(fmt.Sprintf("spectoc %s\n", version.String()))

	f := root.PersistentFlags()
	f.StringVar(&a.cfgFile, "config", "", "config file (default ./spectoc.yaml)")
	f.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	f.StringVar(&a.logFormat, "log-format", "", "log format: json or text")

	root.AddCommand(
		newParseCmd(a),
		newSearchCmd(a),
		newReportCmd(a),
		newValidateCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = strings.ToLower(a.logLevel)
	}
	if a.logFormat != "" {
		cfg.LogFormat = strings.ToLower(a.logFormat)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg
	a.log = newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	return nil
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// outputs resolves the TOC and content filenames inside the working directory.
func (a *app) outputs() (tocPath, contentPath string, err error) {
	if tocPath, err = validate.OutputPath(a.cfg.TOCOutput); err != nil {
		return "", "", err
	}
	if contentPath, err = validate.OutputPath(a.cfg.ContentOutput); err != nil {
		return "", "", err
	}
	return tocPath, contentPath, nil
}

// newWorker wires the parse pipeline. stats and m may be nil.
func (a *app) newWorker(tocPath, contentPath string, stats *extract.LatencyStats, m *metrics.Metrics) (*pipeline.Worker, error) {
	schemas, err := schema.New()
	if err != nil {
		return nil, err
	}
	ex := extract.NewExtractor(extract.Config{
		DocTitle:          a.cfg.DocTitle,
		ContentLimit:      a.cfg.ContentLimit,
		MaxWorkers:        a.cfg.MaxWorkers,
		ParallelThreshold: a.cfg.ParallelThreshold,
		SectionTimeout:    a.cfg.SectionTimeout,
		ExtractMedia:      a.cfg.ExtractMedia,
	}, stats, a.log)
	ex.Observe = m.ObserveSection

	return pipeline.NewWorker(pipeline.Deps{
		Open:      pipeline.PDFOpener(pdfdoc.Options{ExtractMedia: a.cfg.ExtractMedia, Log: a.log}),
		Builder:   &parser.Parser{DocTitle: a.cfg.DocTitle, Log: a.log},
		Filter:    parser.Filter{RepairParents: a.cfg.RepairParents},
		Extractor: ex,
		Writer:    &pipeline.JSONLWriter{TOCPath: tocPath, ContentPath: contentPath},
		Schemas:   schemas,
		Metrics:   m,
		Log:       a.log,
	}), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "spectoc %s\n", version.String())
		},
	}
}

func pdfArg(a *app, args []string) (string, error) {
	var path string
	if len(args) > 0 {
		path = args[0]
	}
	return validate.PDFPath(path, a.cfg.AssetsDir, a.cfg.DefaultPDF, a.cfg.MaxFileBytes)
}
