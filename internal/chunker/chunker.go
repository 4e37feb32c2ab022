package chunker

import (
	"fmt"

	"github.com/dgallion1/spectoc/internal/doctree"
)

// Range is an inclusive, 1-based page span attributed to one section.
type Range struct {
	Start int
	End   int
}

// String formats the range as "start-end".
func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Pages returns the number of pages in the range.
func (r Range) Pages() int {
	return r.End - r.Start + 1
}

// Ranges resolves the page span of every entry. A section ends just before
// the next entry at the same or a shallower level, so its own subsections stay
// inside it. totalPages <= 0 means the page count is unknown.
func Ranges(entries []doctree.TOCEntry, totalPages int) []Range {
	out := make([]Range, len(entries))
	for i := range entries {
		out[i] = rangeAt(entries, i, totalPages)
	}
	return out
}

func rangeAt(entries []doctree.TOCEntry, i, totalPages int) Range {
	cur := entries[i]
	start := max(cur.Page, 1)

	end := totalPages
	if i+1 < len(entries) {
		if next := entries[i+1]; next.Level <= cur.Level {
			end = next.Page - 1
		} else if j := nextPeerOrAncestor(entries, i); j >= 0 {
			end = entries[j].Page - 1
		}
	}

	if totalPages > 0 && end > totalPages {
		end = totalPages
	}
	return Range{Start: start, End: max(start, end)}
}

// nextPeerOrAncestor returns the index of the first entry after i whose level
// is <= entries[i].Level, or -1.
func nextPeerOrAncestor(entries []doctree.TOCEntry, i int) int {
	level := entries[i].Level
	for j := i + 1; j < len(entries); j++ {
		if entries[j].Level <= level {
			return j
		}
	}
	return -1
}
