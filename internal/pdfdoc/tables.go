package pdfdoc

import (
	"sort"
	"strings"

	"github.com/dgallion1/spectoc/internal/doctree"
)

const (
	minTableRows    = 3
	minTableCols    = 2
	sampleTableRows = 3
	defaultGap      = 8.0 // points, used when the font size is unknown
)

// Text is one positioned text run on a row.
type Text struct {
	X, W     float64
	FontSize float64
	S        string
}

// Row is one line of text in layout order.
type Row struct {
	Texts []Text
}

// DetectTables finds runs of at least three consecutive rows that each split
// into two or more columns separated by wide horizontal gaps.
func DetectTables(page int, rows []Row) []doctree.TableInfo {
	var tables []doctree.TableInfo
	var run [][]string

	flush := func() {
		if len(run) >= minTableRows {
			tables = append(tables, newTable(page, len(tables), run))
		}
		run = nil
	}

	for _, row := range rows {
		cells := splitCells(row)
		if len(cells) >= minTableCols {
			run = append(run, cells)
			continue
		}
		flush()
	}
	flush()

	return tables
}

func newTable(page, index int, rows [][]string) doctree.TableInfo {
	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	n := min(len(rows), sampleTableRows)
	sample := make([][]string, n)
	copy(sample, rows[:n])
	return doctree.TableInfo{
		Page:  page,
		Index: index,
		Rows:  len(rows),
		Cols:  cols,
		Data:  sample,
	}
}

// splitCells merges adjacent runs into words and words into cells; a gap wider
// than about one and a half characters starts a new cell.
func splitCells(row Row) []string {
	texts := make([]Text, 0, len(row.Texts))
	for _, t := range row.Texts {
		if strings.TrimSpace(t.S) != "" || t.S == " " {
			texts = append(texts, t)
		}
	}
	if len(texts) == 0 {
		return nil
	}
	sort.SliceStable(texts, func(i, j int) bool { return texts[i].X < texts[j].X })

	var cells []string
	var cur strings.Builder
	end := texts[0].X

	for i, t := range texts {
		gapLimit := defaultGap
		if t.FontSize > 0 {
			gapLimit = t.FontSize * 1.5
		}
		if i > 0 && t.X-end > gapLimit {
			if c := strings.TrimSpace(cur.String()); c != "" {
				cells = append(cells, c)
			}
			cur.Reset()
		}
		cur.WriteString(t.S)
		end = max(end, t.X+t.W)
	}
	if c := strings.TrimSpace(cur.String()); c != "" {
		cells = append(cells, c)
	}
	return cells
}
