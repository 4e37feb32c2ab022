// Package search answers keyword and section-id queries over a TOC file.
package search

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgallion1/spectoc/internal/doctree"
	"github.com/dgallion1/spectoc/internal/jsonl"
	"github.com/dgallion1/spectoc/internal/validate"
)

// ErrIndexMissing is returned when the TOC file does not exist.
var ErrIndexMissing = errors.New("search index file missing")

// Match types, in the order results are produced.
const (
	MatchExactSection   = "exact_section"
	MatchPartialSection = "partial_section"
	MatchText           = "text_match"
	MatchContent        = "content_match"
)

// Result is one search hit.
type Result struct {
	SectionID string `json:"section_id"`
	Title     string `json:"title"`
	Page      int    `json:"page"`
	MatchType string `json:"match_type"`
}

func resultFor(e doctree.TOCEntry, match string) Result {
	return Result{SectionID: e.SectionID, Title: e.Title, Page: e.Page, MatchType: match}
}

// State is the lifecycle of the in-memory index.
type State int32

const (
	StateEmpty State = iota
	StateBuilding
	StateReady
)

func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateReady:
		return "ready"
	default:
		return "empty"
	}
}

// Options configures a Searcher.
type Options struct {
	TOCPath        string
	ContentPath    string
	MinQueryLength int
	MaxResults     int  // 0 means unlimited.
	SearchContent  bool // Default for Search; Find takes it per request.
}

// Request is a single query with per-call overrides.
type Request struct {
	Query   string
	Content bool
	Limit   int // 0 means unlimited.
}

// Searcher owns the index for one TOC file and rebuilds it whenever the
// file's modification time changes.
type Searcher struct {
	opts Options
	log  *slog.Logger

	mu      sync.Mutex
	index   *Index
	modTime time.Time
	state   atomic.Int32
	builds  atomic.Int64
}

func New(opts Options, log *slog.Logger) *Searcher {
	if log == nil {
		log = slog.Default()
	}
	if opts.MinQueryLength <= 0 {
		opts.MinQueryLength = 2
	}
	return &Searcher{opts: opts, log: log.With("toc", opts.TOCPath)}
}

// State reports the index lifecycle.
func (s *Searcher) State() State { return State(s.state.Load()) }

// Builds returns how many times the index has been built.
func (s *Searcher) Builds() int64 { return s.builds.Load() }

// Invalidate drops the current index; the next query rebuilds it.
func (s *Searcher) Invalidate() {
	s.mu.Lock()
	s.index = nil
	s.modTime = time.Time{}
	s.state.Store(int32(StateEmpty))
	s.mu.Unlock()
}

// Index returns the current index, rebuilding it first if the TOC file changed.
func (s *Searcher) Index() (*Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.opts.TOCPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", s.opts.TOCPath, ErrIndexMissing)
		}
		return nil, fmt.Errorf("stat %s: %w", s.opts.TOCPath, err)
	}
	if s.index != nil && info.ModTime().Equal(s.modTime) {
		return s.index, nil
	}

	s.state.Store(int32(StateBuilding))
	entries, err := jsonl.ReadFile[doctree.TOCEntry](s.opts.TOCPath, s.log)
	if err != nil {
		s.state.Store(int32(StateEmpty))
		return nil, fmt.Errorf("build index: %w", err)
	}
	s.index = BuildIndex(entries)
	s.modTime = info.ModTime()
	s.builds.Add(1)
	s.state.Store(int32(StateReady))
	s.log.Info("search index built", "entries", len(entries))
	return s.index, nil
}

// Search runs query with the configured defaults.
func (s *Searcher) Search(query string) ([]Result, error) {
	return s.Find(Request{Query: query, Content: s.opts.SearchContent, Limit: s.opts.MaxResults})
}

// Find validates the query, then concatenates exact, partial, text and
// (optionally) content matches, keeping the first hit per section id.
func (s *Searcher) Find(req Request) ([]Result, error) {
	q, err := validate.Query(req.Query, s.opts.MinQueryLength)
	if err != nil {
		return nil, err
	}
	ix, err := s.Index()
	if err != nil {
		return nil, err
	}

	var all []Result
	all = append(all, ix.exact(q)...)
	all = append(all, ix.partial(q)...)
	all = append(all, ix.text(q)...)
	if req.Content && s.opts.ContentPath != "" {
		all = append(all, s.content(ix, q)...)
	}
	return dedupe(all, req.Limit), nil
}

// content scans the content file for a case-insensitive substring. A missing
// content file yields no matches.
func (s *Searcher) content(ix *Index, q string) []Result {
	f, err := os.Open(s.opts.ContentPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("content search skipped", "error", err)
		}
		return nil
	}
	defer f.Close()

	needle := strings.ToLower(q)
	var out []Result
	err = jsonl.Scan(f, s.log, func(c doctree.ContentEntry) error {
		if !strings.Contains(strings.ToLower(c.Content), needle) {
			return nil
		}
		r := Result{SectionID: c.SectionID, Title: c.Title, MatchType: MatchContent}
		if e, ok := ix.Section(c.SectionID); ok {
			r.Page = e.Page
		}
		out = append(out, r)
		return nil
	})
	if err != nil {
		s.log.Warn("content search failed", "error", err)
	}
	return out
}

func dedupe(results []Result, limit int) []Result {
	seen := make(map[string]bool, len(results))
	out := make([]Result, 0, len(results))
	for _, r := range results {
		if seen[r.SectionID] {
			continue
		}
		seen[r.SectionID] = true
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
