package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/moby/sys/atomicwriter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// WriteJSON writes the report as indented JSON.
func WriteJSON(path string, r *Report) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return write(path, buf.Bytes())
}

// WriteCSV writes a summary block, a blank row, then one row per outline entry.
func WriteCSV(path string, r *Report) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	rows := [][]string{
		{"Metric", "Value"},
		{"Total Source Entries", strconv.Itoa(r.TotalSourceEntries)},
		{"Total Parsed Entries", strconv.Itoa(r.TotalParsedEntries)},
		{"Matched Entries", strconv.Itoa(r.MatchedEntries)},
		{"Missing Entries", strconv.Itoa(len(r.MissingEntries))},
		{"Accuracy Percentage", fmt.Sprintf("%.2f%%", r.AccuracyPercentage)},
		{},
		{"Title", "Source Page", "Parsed Page", "Page Match", "Status"},
	}
	for _, c := range r.DetailedComparison {
		rows = append(rows, []string{c.Title, strconv.Itoa(c.SourcePage), parsedPage(c), strconv.FormatBool(c.PageMatch), c.Status})
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}
	return write(path, buf.Bytes())
}

// Markdown renders the report as a Markdown document with GFM tables.
func Markdown(title string, r *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Validation report: %s\n\n", escapeCell(title))
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Total source entries | %d |\n", r.TotalSourceEntries)
	fmt.Fprintf(&b, "| Total parsed entries | %d |\n", r.TotalParsedEntries)
	fmt.Fprintf(&b, "| Matched entries | %d |\n", r.MatchedEntries)
	fmt.Fprintf(&b, "| Missing entries | %d |\n", len(r.MissingEntries))
	fmt.Fprintf(&b, "| Page mismatches | %d |\n", r.PageMismatches())
	fmt.Fprintf(&b, "| Accuracy | %.2f%% |\n\n", r.AccuracyPercentage)

	b.WriteString("## Detailed comparison\n\n")
	b.WriteString("| Title | Source page | Parsed page | Page match | Status |\n|---|---:|---:|:---:|---|\n")
	for _, c := range r.DetailedComparison {
		match := "no"
		if c.PageMatch {
			match = "yes"
		}
		fmt.Fprintf(&b, "| %s | %d | %s | %s | %s |\n", escapeCell(c.Title), c.SourcePage, parsedPage(c), match, c.Status)
	}
	return b.String()
}

// WriteHTML renders Markdown through goldmark into a standalone page.
func WriteHTML(path, title string, r *Report) error {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(title, r)), &body); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>Validation report</title>\n")
	page.WriteString("<style>body{font-family:sans-serif;margin:2em}table{border-collapse:collapse}th,td{border:1px solid #ccc;padding:4px 8px}</style>\n")
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return write(path, page.Bytes())
}

func parsedPage(c Comparison) string {
	if c.ParsedPage == nil {
		return "N/A"
	}
	return strconv.Itoa(*c.ParsedPage)
}

// escapeCell keeps a value inside one Markdown table cell.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

func write(path string, data []byte) error {
	if err := atomicwriter.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
