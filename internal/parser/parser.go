package parser

import (
	"log/slog"
	"strings"

	"github.com/dgallion1/spectoc/internal/doctree"
)

// Parser turns raw bookmarks into TOC entries with levels and parent ids.
type Parser struct {
	DocTitle string
	Log      *slog.Logger
}

// Parse walks bookmarks in outline order, which is assumed to be a valid
// pre-order traversal of the document. Unnumbered bookmarks are dropped.
func (p *Parser) Parse(bookmarks []doctree.Bookmark) []doctree.TOCEntry {
	log := p.Log
	if log == nil {
		log = slog.Default()
	}

	// stack[i] holds the most recent section id at depth i+1.
	var stack []string
	entries := make([]doctree.TOCEntry, 0, len(bookmarks))
	dropped := 0

	for _, bm := range bookmarks {
		id, title := ParseSectionID(bm.Title)
		if id == "" {
			dropped++
			continue
		}
		if !IsNumbered(id) {
			log.Warn("skipping malformed section id", "section_id", id, "title", title, "page", bm.Page)
			continue
		}

		depth := Depth(id)
		if len(stack) > depth-1 {
			stack = stack[:depth-1]
		}

		var parentID *string
		if len(stack) > 0 {
			parent := stack[len(stack)-1]
			parentID = &parent
		}
		stack = append(stack, id)

		page := bm.Page
		if page < 1 {
			page = 1
		}

		entries = append(entries, doctree.TOCEntry{
			DocTitle:  p.DocTitle,
			SectionID: id,
			Title:     title,
			Page:      page,
			Level:     depth,
			ParentID:  parentID,
			FullPath:  strings.TrimSpace(id + " " + title),
		})
	}

	log.Debug("built hierarchy", "bookmarks", len(bookmarks), "entries", len(entries), "unnumbered_dropped", dropped)
	return entries
}
