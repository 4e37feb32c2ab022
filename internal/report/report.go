// Package report compares the PDF outline with the parsed TOC and writes the
// comparison as JSON, CSV and HTML.
package report

import (
	"strings"

	"github.com/dgallion1/spectoc/internal/doctree"
)

const (
	StatusMatched = "MATCHED"
	StatusMissing = "MISSING"
)

// Comparison is the outcome for one outline entry.
type Comparison struct {
	Title      string `json:"title"`
	SourcePage int    `json:"source_page"`
	ParsedPage *int   `json:"parsed_page"`
	PageMatch  bool   `json:"page_match"`
	Status     string `json:"status"`
}

// Report is the full outline-versus-TOC comparison.
type Report struct {
	TotalSourceEntries int                `json:"total_source_entries"`
	TotalParsedEntries int                `json:"total_parsed_entries"`
	MatchedEntries     int                `json:"matched_entries"`
	MissingEntries     []doctree.Bookmark `json:"missing_entries"`
	AccuracyPercentage float64            `json:"accuracy_percentage"`
	DetailedComparison []Comparison       `json:"detailed_comparison"`
}

// Compare matches each outline entry to a parsed entry whose full_path or
// title equals the trimmed outline label. The first parsed entry wins when
// labels repeat.
func Compare(source []doctree.Bookmark, parsed []doctree.TOCEntry) *Report {
	lookup := make(map[string]doctree.TOCEntry, len(parsed)*2)
	for _, e := range parsed {
		for _, key := range []string{e.FullPath, e.Title} {
			if key == "" {
				continue
			}
			if _, ok := lookup[key]; !ok {
				lookup[key] = e
			}
		}
	}

	rep := &Report{
		TotalSourceEntries: len(source),
		TotalParsedEntries: len(parsed),
		MissingEntries:     []doctree.Bookmark{},
		DetailedComparison: make([]Comparison, 0, len(source)),
	}
	for _, bm := range source {
		title := strings.TrimSpace(bm.Title)
		c := Comparison{Title: title, SourcePage: bm.Page, Status: StatusMissing}
		if e, ok := lookup[title]; ok {
			page := e.Page
			c.ParsedPage = &page
			c.PageMatch = page == bm.Page
			c.Status = StatusMatched
			rep.MatchedEntries++
		} else {
			rep.MissingEntries = append(rep.MissingEntries, bm)
		}
		rep.DetailedComparison = append(rep.DetailedComparison, c)
	}

	if rep.TotalSourceEntries > 0 {
		rep.AccuracyPercentage = float64(rep.MatchedEntries) / float64(rep.TotalSourceEntries) * 100
	}
	return rep
}

// PageMismatches counts matched entries whose pages disagree.
func (r *Report) PageMismatches() int {
	n := 0
	for _, c := range r.DetailedComparison {
		if c.Status == StatusMatched && !c.PageMatch {
			n++
		}
	}
	return n
}
