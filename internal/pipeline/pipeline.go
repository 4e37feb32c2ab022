// Package pipeline runs a parse from PDF to output files, either once from the
// CLI or as queued jobs in serve mode.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgallion1/spectoc/internal/doctree"
	"github.com/dgallion1/spectoc/internal/extract"
	"github.com/dgallion1/spectoc/internal/jsonl"
	"github.com/dgallion1/spectoc/internal/pdfdoc"
)

// ErrNoSections is returned when no numbered section survives filtering.
var ErrNoSections = errors.New("no numbered sections found in outline")

// TOCBuilder turns an outline into TOC entries.
type TOCBuilder interface {
	Parse(bookmarks []doctree.Bookmark) []doctree.TOCEntry
}

// EntryFilter narrows TOC entries. It must not modify its input.
type EntryFilter interface {
	Apply(entries []doctree.TOCEntry) []doctree.TOCEntry
}

// ContentExtractor produces one content entry per TOC entry.
type ContentExtractor interface {
	Extract(ctx context.Context, doc extract.Pages, entries []doctree.TOCEntry) ([]doctree.ContentEntry, extract.Summary)
}

// RecordWriter persists a finished run.
type RecordWriter interface {
	Write(toc []doctree.TOCEntry, content []doctree.ContentEntry) error
}

// Source is an open document.
type Source interface {
	extract.Pages
	Bookmarks() []doctree.Bookmark
	Close() error
}

// Opener opens the document at path.
type Opener func(path string) (Source, error)

// PDFOpener opens documents with pdfdoc.
func PDFOpener(opts pdfdoc.Options) Opener {
	return func(path string) (Source, error) {
		doc, err := pdfdoc.Open(path, opts)
		if err != nil {
			return nil, err
		}
		return doc, nil
	}
}

// JSONLWriter writes the TOC and content files. Concurrent runs are
// serialized so the two files always come from the same run.
type JSONLWriter struct {
	TOCPath     string
	ContentPath string

	mu sync.Mutex
}

func (w *JSONLWriter) Write(toc []doctree.TOCEntry, content []doctree.ContentEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := jsonl.WriteFile(w.TOCPath, toc); err != nil {
		return fmt.Errorf("toc: %w", err)
	}
	if err := jsonl.WriteFile(w.ContentPath, content); err != nil {
		return fmt.Errorf("content: %w", err)
	}
	return nil
}
