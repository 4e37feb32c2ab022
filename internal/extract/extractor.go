package extract

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/dgallion1/spectoc/internal/chunker"
	"github.com/dgallion1/spectoc/internal/doctree"
)

// ContentType is the content_type written for every content row.
const ContentType = "text"

// Pages is the read side of an open document.
type Pages interface {
	PageCount() int
	PageText(n int) (string, error)
	PageImages(n int) ([]doctree.ImageInfo, error)
	PageTables(n int) ([]doctree.TableInfo, error)
}

// Config controls content extraction.
type Config struct {
	DocTitle          string
	ContentLimit      int           // Characters kept per section; <= 0 keeps everything.
	MaxWorkers        int           // Upper bound on concurrent sections.
	ParallelThreshold int           // Sections below this count run sequentially.
	SectionTimeout    time.Duration // Per-section budget; <= 0 disables it.
	ExtractMedia      bool
}

// Summary aggregates one extraction run. It is reduced after all sections finish.
type Summary struct {
	Sections   int           `json:"sections"`
	Empty      int           `json:"empty"`
	PageErrors int           `json:"page_errors"`
	TimedOut   int           `json:"timed_out"`
	Images     int           `json:"images"`
	Tables     int           `json:"tables"`
	Workers    int           `json:"workers"`
	Duration   time.Duration `json:"duration_ns"`
}

// Extractor pulls text and media metadata for resolved page ranges.
type Extractor struct {
	cfg   Config
	log   *slog.Logger
	Stats *LatencyStats

	// Observe, when set, receives each section's extraction time.
	Observe func(time.Duration)
}

func NewExtractor(cfg Config, stats *LatencyStats, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	if stats == nil {
		stats = NewLatencyStats(time.Hour)
	}
	return &Extractor{cfg: cfg, log: log, Stats: stats}
}

type sectionResult struct {
	entry      doctree.ContentEntry
	pageErrors int
	timedOut   bool
}

// Extract returns one content entry per TOC entry, in input order.
func (e *Extractor) Extract(ctx context.Context, doc Pages, entries []doctree.TOCEntry) ([]doctree.ContentEntry, Summary) {
	start := time.Now()
	ranges := chunker.Ranges(entries, doc.PageCount())
	results := make([]sectionResult, len(entries))

	workers := e.workerCount(len(entries))
	if workers <= 1 {
		for i := range entries {
			results[i] = e.extractSection(ctx, doc, entries[i], ranges[i])
		}
	} else {
		var wg sync.WaitGroup
		sem := make(chan struct{}, workers)
		for i := range entries {
			sem <- struct{}{}
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				defer func() { <-sem }()
				results[i] = e.extractSection(ctx, doc, entries[i], ranges[i])
			}(i)
		}
		wg.Wait()
	}

	out := make([]doctree.ContentEntry, len(results))
	sum := Summary{Sections: len(results), Workers: max(workers, 1)}
	for i, r := range results {
		out[i] = r.entry
		if !r.entry.HasContent {
			sum.Empty++
		}
		if r.timedOut {
			sum.TimedOut++
		}
		sum.PageErrors += r.pageErrors
		sum.Images += len(r.entry.Images)
		sum.Tables += len(r.entry.Tables)
	}
	sum.Duration = time.Since(start)

	e.log.Info("content extracted",
		"sections", sum.Sections,
		"empty", sum.Empty,
		"page_errors", sum.PageErrors,
		"timed_out", sum.TimedOut,
		"images", sum.Images,
		"tables", sum.Tables,
		"workers", sum.Workers,
		"duration_ms", sum.Duration.Milliseconds(),
	)
	return out, sum
}

func (e *Extractor) workerCount(sections int) int {
	if e.cfg.ParallelThreshold <= 0 || sections < e.cfg.ParallelThreshold {
		return 1
	}
	return max(1, min(e.cfg.MaxWorkers, runtime.GOMAXPROCS(0), sections))
}

func (e *Extractor) extractSection(ctx context.Context, doc Pages, toc doctree.TOCEntry, rng chunker.Range) sectionResult {
	began := time.Now()
	read := 0
	defer func() {
		d := time.Since(began)
		e.Stats.Record(d, read)
		if e.Observe != nil {
			e.Observe(d)
		}
	}()

	if e.cfg.SectionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.SectionTimeout)
		defer cancel()
	}

	log := e.log.With("section_id", toc.SectionID, "page_range", rng.String())
	res := sectionResult{entry: doctree.ContentEntry{
		DocTitle:    e.cfg.DocTitle,
		SectionID:   toc.SectionID,
		Title:       toc.Title,
		PageRange:   rng.String(),
		ContentType: ContentType,
		Images:      []doctree.ImageInfo{},
		Tables:      []doctree.TableInfo{},
	}}

	last := min(rng.End, doc.PageCount())
	var pages []string
	for n := rng.Start; n <= last; n++ {
		if err := ctx.Err(); err != nil {
			log.Warn("section extraction abandoned", "page", n, "error", err)
			res.timedOut = true
			pages = nil
			res.entry.Images = []doctree.ImageInfo{}
			res.entry.Tables = []doctree.TableInfo{}
			break
		}

		read++
		text, err := doc.PageText(n)
		if err != nil {
			log.Warn("page text failed", "page", n, "error", err)
			res.pageErrors++
		} else {
			pages = append(pages, text)
		}

		if !e.cfg.ExtractMedia {
			continue
		}
		if imgs, err := doc.PageImages(n); err != nil {
			log.Warn("page images failed", "page", n, "error", err)
			res.pageErrors++
		} else {
			res.entry.Images = append(res.entry.Images, imgs...)
		}
		if tbls, err := doc.PageTables(n); err != nil {
			log.Warn("page tables failed", "page", n, "error", err)
			res.pageErrors++
		} else {
			res.entry.Tables = append(res.entry.Tables, tbls...)
		}
	}

	content := chunker.JoinPages(pages)
	res.entry.HasContent = content != ""
	if res.entry.HasContent {
		res.entry.Content = chunker.Truncate(content, e.cfg.ContentLimit)
	} else {
		res.entry.Content = Placeholder(toc.SectionID)
	}
	res.entry.WordCount = chunker.WordCount(res.entry.Content)
	return res
}

// Placeholder is the content written for a section with no extractable text.
func Placeholder(sectionID string) string {
	return fmt.Sprintf("[Section %s - No extractable content]", sectionID)
}
