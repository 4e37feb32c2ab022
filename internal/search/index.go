package search

import (
	"regexp"
	"strings"

	"github.com/dgallion1/spectoc/internal/doctree"
)

// partialScanLimit bounds the substring scan over section ids.
const partialScanLimit = 50

var tokenPattern = regexp.MustCompile(`\w{2,}`)

// Tokenize lowercases text and returns its words of two or more characters.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// Index is an immutable view over one load of the TOC file.
type Index struct {
	entries  []doctree.TOCEntry
	words    map[string][]int // token -> ascending row numbers
	sections map[string]int   // exact id -> first row
	lowerIDs []string         // distinct lowercase ids in load order
	idRows   []int            // row for each lowerIDs element
	children map[string][]int
}

// BuildIndex indexes entries in the order given.
func BuildIndex(entries []doctree.TOCEntry) *Index {
	ix := &Index{
		entries:  entries,
		words:    make(map[string][]int),
		sections: make(map[string]int, len(entries)),
		children: make(map[string][]int),
	}
	for row, e := range entries {
		seen := make(map[string]bool)
		for _, tok := range Tokenize(e.Title) {
			if seen[tok] {
				continue
			}
			seen[tok] = true
			ix.words[tok] = append(ix.words[tok], row)
		}

		if e.SectionID == "" {
			continue
		}
		if _, dup := ix.sections[e.SectionID]; !dup {
			ix.sections[e.SectionID] = row
			ix.lowerIDs = append(ix.lowerIDs, strings.ToLower(e.SectionID))
			ix.idRows = append(ix.idRows, row)
		}
		if p := e.Parent(); p != "" {
			ix.children[p] = append(ix.children[p], row)
		}
	}
	return ix
}

// Len returns the number of indexed rows.
func (ix *Index) Len() int { return len(ix.entries) }

// Entries returns the rows in load order. Callers must not modify them.
func (ix *Index) Entries() []doctree.TOCEntry { return ix.entries }

// Section looks up a row by exact section id.
func (ix *Index) Section(id string) (doctree.TOCEntry, bool) {
	row, ok := ix.sections[id]
	if !ok {
		return doctree.TOCEntry{}, false
	}
	return ix.entries[row], true
}

// Children returns the rows whose parent_id is id, in load order.
func (ix *Index) Children(id string) []doctree.TOCEntry {
	rows := ix.children[id]
	out := make([]doctree.TOCEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, ix.entries[r])
	}
	return out
}

func (ix *Index) exact(q string) []Result {
	if e, ok := ix.Section(q); ok {
		return []Result{resultFor(e, MatchExactSection)}
	}
	return nil
}

func (ix *Index) partial(q string) []Result {
	q = strings.ToLower(q)
	var out []Result
	for i, id := range ix.lowerIDs[:min(len(ix.lowerIDs), partialScanLimit)] {
		if strings.Contains(id, q) {
			out = append(out, resultFor(ix.entries[ix.idRows[i]], MatchPartialSection))
		}
	}
	return out
}

// text returns rows whose titles contain every query token.
func (ix *Index) text(q string) []Result {
	tokens := Tokenize(q)
	if len(tokens) == 0 {
		return nil
	}

	rows := ix.words[tokens[0]]
	for _, tok := range tokens[1:] {
		if len(rows) == 0 {
			break
		}
		rows = intersect(rows, ix.words[tok])
	}

	out := make([]Result, 0, len(rows))
	for _, r := range rows {
		out = append(out, resultFor(ix.entries[r], MatchText))
	}
	return out
}

func intersect(a, b []int) []int {
	var out []int
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}
