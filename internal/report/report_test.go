package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/dgallion1/spectoc/internal/doctree"
)

func sample() ([]doctree.Bookmark, []doctree.TOCEntry) {
	source := []doctree.Bookmark{
		{Level: 1, Title: "Revision History", Page: 1},
		{Level: 1, Title: "1 Introduction", Page: 3},
		{Level: 2, Title: "1.1 Overview", Page: 4},
		{Level: 2, Title: "1.2 Scope", Page: 6},
	}
	parsed := []doctree.TOCEntry{
		{SectionID: "1", Title: "Introduction", Page: 3, Level: 1, FullPath: "1 Introduction"},
		{SectionID: "1.1", Title: "Overview", Page: 5, Level: 2, FullPath: "1.1 Overview"},
		{SectionID: "1.2", Title: "Scope", Page: 6, Level: 2, FullPath: "1.2 Scope"},
	}
	return source, parsed
}

func TestCompare(t *testing.T) {
	rep := Compare(sample())

	if rep.TotalSourceEntries != 4 || rep.TotalParsedEntries != 3 {
		t.Errorf("unexpected totals %d/%d", rep.TotalSourceEntries, rep.TotalParsedEntries)
	}
	if rep.MatchedEntries != 3 {
		t.Errorf("expected 3 matched, got %d", rep.MatchedEntries)
	}
	if len(rep.MissingEntries) != 1 || rep.MissingEntries[0].Title != "Revision History" {
		t.Errorf("unexpected missing entries %+v", rep.MissingEntries)
	}
	if rep.AccuracyPercentage != 75 {
		t.Errorf("expected 75%% accuracy, got %f", rep.AccuracyPercentage)
	}

	missing := rep.DetailedComparison[0]
	if missing.Status != StatusMissing || missing.ParsedPage != nil || missing.PageMatch {
		t.Errorf("unexpected missing comparison %+v", missing)
	}
	overview := rep.DetailedComparison[2]
	if overview.Status != StatusMatched || *overview.ParsedPage != 5 || overview.PageMatch {
		t.Errorf("expected page mismatch for overview, got %+v", overview)
	}
	if rep.PageMismatches() != 1 {
		t.Errorf("expected 1 page mismatch, got %d", rep.PageMismatches())
	}
}

func TestCompare_EmptySource(t *testing.T) {
	rep := Compare(nil, nil)
	if rep.AccuracyPercentage != 0 || rep.MissingEntries == nil || rep.DetailedComparison == nil {
		t.Errorf("unexpected empty report %+v", rep)
	}
}

func TestCompare_MatchesBareTitle(t *testing.T) {
	source := []doctree.Bookmark{{Level: 1, Title: "  Overview ", Page: 2}}
	parsed := []doctree.TOCEntry{{SectionID: "1", Title: "Overview", Page: 2, FullPath: "1 Overview"}}
	rep := Compare(source, parsed)
	if rep.MatchedEntries != 1 || !rep.DetailedComparison[0].PageMatch {
		t.Errorf("expected bare title match, got %+v", rep.DetailedComparison)
	}
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	if err := WriteJSON(path, Compare(sample())); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	for _, key := range []string{"total_source_entries", "total_parsed_entries", "matched_entries", "missing_entries", "accuracy_percentage", "detailed_comparison"} {
		if _, ok := got[key]; !ok {
			t.Errorf("missing key %s", key)
		}
	}
	first := got["detailed_comparison"].([]any)[0].(map[string]any)
	if first["parsed_page"] != nil {
		t.Errorf("expected null parsed_page for missing entry, got %v", first["parsed_page"])
	}
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	if err := WriteCSV(path, Compare(sample())); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("invalid csv: %v", err)
	}
	if rows[5][1] != "75.00%" {
		t.Errorf("expected accuracy row, got %v", rows[5])
	}
	header := strings.Join(rows[6], ",")
	if header != "Title,Source Page,Parsed Page,Page Match,Status" {
		t.Errorf("unexpected detail header %q", header)
	}
	if got := rows[7]; got[0] != "Revision History" || got[2] != "N/A" || got[4] != "MISSING" {
		t.Errorf("unexpected first detail row %v", got)
	}
}

func TestWriteHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	source, parsed := sample()
	source = append(source, doctree.Bookmark{Level: 1, Title: "A | B <script>", Page: 9})
	if err := WriteHTML(path, "USB PD", Compare(source, parsed)); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)
	if !strings.Contains(html, "<table>") {
		t.Error("expected rendered table")
	}
	if !strings.Contains(html, "<h1>Validation report: USB PD</h1>") {
		t.Error("expected heading")
	}
	if strings.Contains(html, "<script>") {
		t.Error("expected raw html in titles to be escaped")
	}
}

func TestWriteHTML_TableStructure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	source, parsed := sample()
	source = append(source, doctree.Bookmark{Level: 1, Title: "A | B", Page: 9})
	rep := Compare(source, parsed)
	if err := WriteHTML(path, "USB PD", rep); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	doc, err := html.Parse(f)
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}

	var tables []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "table" {
			tables = append(tables, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if len(tables) != 2 {
		t.Fatalf("expected summary and detail tables, got %d", len(tables))
	}

	rows := cellRows(tables[1], "td")
	if len(rows) != len(rep.DetailedComparison) {
		t.Fatalf("expected %d detail rows, got %d", len(rep.DetailedComparison), len(rows))
	}
	last := rows[len(rows)-1]
	if len(last) != 5 {
		t.Fatalf("expected 5 cells, got %d", len(last))
	}
	if last[0] != "A | B" || last[2] != "N/A" || last[4] != StatusMissing {
		t.Errorf("unexpected last row %q", last)
	}
}

// cellRows returns the text of every tag cell, grouped by row.
func cellRows(table *html.Node, tag string) [][]string {
	var rows [][]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var row []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && c.Data == tag {
					row = append(row, strings.TrimSpace(text(c)))
				}
			}
			if len(row) > 0 {
				rows = append(rows, row)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
	return rows
}

func text(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(text(c))
	}
	return b.String()
}
