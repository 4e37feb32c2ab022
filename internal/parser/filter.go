package parser

import "github.com/dgallion1/spectoc/internal/doctree"

// Filter keeps numerically numbered sections only.
type Filter struct {
	// RepairParents re-points parent ids that were filtered out to the
	// nearest ancestor still present, or null.
	RepairParents bool
}

// Apply returns the retained entries in input order. The input is not modified.
func (f Filter) Apply(entries []doctree.TOCEntry) []doctree.TOCEntry {
	kept := make([]doctree.TOCEntry, 0, len(entries))
	present := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.SectionID == "" || !IsNumbered(e.SectionID) {
			continue
		}
		kept = append(kept, e)
		present[e.SectionID] = true
	}

	if !f.RepairParents {
		return kept
	}

	for i := range kept {
		parent := kept[i].Parent()
		if parent == "" || present[parent] {
			continue
		}
		kept[i].ParentID = nearestAncestor(kept[i].SectionID, present)
	}
	return kept
}

func nearestAncestor(id string, present map[string]bool) *string {
	for p := ParentPath(id); p != ""; p = ParentPath(p) {
		if present[p] {
			found := p
			return &found
		}
	}
	return nil
}
