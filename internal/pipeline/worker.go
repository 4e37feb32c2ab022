package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/spectoc/internal/doctree"
	"github.com/dgallion1/spectoc/internal/extract"
	"github.com/dgallion1/spectoc/internal/metrics"
	"github.com/dgallion1/spectoc/internal/schema"
)

// Worker runs the parse pipeline for one document at a time. A Worker holds
// no per-run state and may be shared between goroutines.
type Worker struct {
	open      Opener
	builder   TOCBuilder
	filter    EntryFilter
	extractor ContentExtractor
	writer    RecordWriter
	schemas   *schema.Validator
	metrics   *metrics.Metrics
	log       *slog.Logger
}

// Deps wires a Worker. Schemas and Metrics are optional.
type Deps struct {
	Open      Opener
	Builder   TOCBuilder
	Filter    EntryFilter
	Extractor ContentExtractor
	Writer    RecordWriter
	Schemas   *schema.Validator
	Metrics   *metrics.Metrics
	Log       *slog.Logger
}

func NewWorker(d Deps) *Worker {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	return &Worker{
		open:      d.Open,
		builder:   d.Builder,
		filter:    d.Filter,
		extractor: d.Extractor,
		writer:    d.Writer,
		schemas:   d.Schemas,
		metrics:   d.Metrics,
		log:       log,
	}
}

// Result describes a finished run.
type Result struct {
	RunID    string          `json:"run_id"`
	PDFPath  string          `json:"pdf_path"`
	Entries  int             `json:"toc_entries"`
	Dropped  int             `json:"dropped"`
	Summary  extract.Summary `json:"summary"`
	Duration time.Duration   `json:"duration_ns"`
	Status   JobStatus       `json:"status"`
}

// Process runs the pipeline for a queued job, recording progress on it.
func (w *Worker) Process(ctx context.Context, job *Job) {
	if _, err := w.Run(ctx, job); err != nil {
		job.AddError(err.Error())
	}
}

// Run parses job.PDFPath and writes both output files. Nothing is written
// unless every record has been produced and validated.
func (w *Worker) Run(ctx context.Context, job *Job) (res Result, err error) {
	start := time.Now()
	log := w.log.With("run_id", job.ID, "pdf", job.PDFPath)
	res = Result{RunID: job.ID, PDFPath: job.PDFPath}

	defer func() {
		res.Duration = time.Since(start)
		if err != nil {
			res.Status = StatusFailed
			job.SetStatus(StatusFailed, job.Snapshot().Phase)
			log.Error("parse failed", "error", err)
		}
		s := res.Summary
		w.metrics.RecordParse(metrics.ParseOutcome{
			Status:     string(res.Status),
			Duration:   res.Duration,
			Sections:   s.Sections,
			Empty:      s.Empty,
			PageErrors: s.PageErrors,
			Images:     s.Images,
			Tables:     s.Tables,
		})
	}()

	// Phase 1: outline
	job.SetStatus(StatusParsing, "reading outline")
	doc, err := w.open(job.PDFPath)
	if err != nil {
		return res, fmt.Errorf("open: %w", err)
	}
	defer doc.Close()

	bookmarks := doc.Bookmarks()
	parsed := w.builder.Parse(bookmarks)
	entries := w.filter.Apply(parsed)
	res.Entries = len(entries)
	res.Dropped = len(bookmarks) - len(entries)
	job.SetTOC(res.Entries, res.Dropped)
	log.Info("toc parsed", "bookmarks", len(bookmarks), "entries", len(entries), "dropped", res.Dropped)
	if len(entries) == 0 {
		return res, ErrNoSections
	}

	// Phase 2: content
	job.SetStatus(StatusExtracting, "extracting content")
	content, summary := w.extractor.Extract(ctx, doc, entries)
	res.Summary = summary
	job.SetSummary(summary)

	// Phase 3: validate and write
	job.SetStatus(StatusWriting, "writing outputs")
	if err := w.check(entries, content); err != nil {
		return res, err
	}
	if err := w.writer.Write(entries, content); err != nil {
		return res, fmt.Errorf("write: %w", err)
	}

	res.Status = StatusCompleted
	if summary.PageErrors > 0 || summary.TimedOut > 0 {
		res.Status = StatusPartial
	}
	job.SetStatus(res.Status, "done")
	log.Info("parse complete",
		"status", res.Status,
		"entries", res.Entries,
		"empty_sections", summary.Empty,
		"page_errors", summary.PageErrors,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (w *Worker) check(toc []doctree.TOCEntry, content []doctree.ContentEntry) error {
	if w.schemas == nil {
		return nil
	}
	if err := schema.ValidateRecords(w.schemas, schema.TOC, toc); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	if err := schema.ValidateRecords(w.schemas, schema.Content, content); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}
