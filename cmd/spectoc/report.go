package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/spectoc/internal/doctree"
	"github.com/dgallion1/spectoc/internal/jsonl"
	"github.com/dgallion1/spectoc/internal/pdfdoc"
	"github.com/dgallion1/spectoc/internal/report"
	"github.com/dgallion1/spectoc/internal/validate"
)

func newReportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "report [pdf_path]",
		Short: "Compare the PDF outline against the parsed TOC",
		Long: `Report matches every outline entry of the PDF against the TOC file written by
parse and writes the comparison as JSON, CSV and HTML.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pdfPath, err := pdfArg(a, args)
			if err != nil {
				return err
			}
			tocPath, _, err := a.outputs()
			if err != nil {
				return err
			}
			var paths [3]string
			for i, name := range []string{a.cfg.ReportJSON, a.cfg.ReportCSV, a.cfg.ReportHTML} {
				if paths[i], err = validate.OutputPath(name); err != nil {
					return err
				}
			}

			doc, err := pdfdoc.Open(pdfPath, pdfdoc.Options{Log: a.log})
			if err != nil {
				return err
			}
			source := doc.Bookmarks()
			doc.Close()

			parsed, err := jsonl.ReadFile[doctree.TOCEntry](tocPath, a.log)
			if err != nil {
				return fmt.Errorf("read toc (run parse first): %w", err)
			}

			r := report.Compare(source, parsed)
			if err := report.WriteJSON(paths[0], r); err != nil {
				return err
			}
			if err := report.WriteCSV(paths[1], r); err != nil {
				return err
			}
			if err := report.WriteHTML(paths[2], a.cfg.DocTitle, r); err != nil {
				return err
			}
			a.log.Info("validation report written", "matched", r.MatchedEntries, "missing", len(r.MissingEntries))

			printSummary(cmd.OutOrStdout(), "spectoc report", []row{
				{"source entries", r.TotalSourceEntries},
				{"parsed entries", r.TotalParsedEntries},
				{"matched", r.MatchedEntries},
				{"missing", len(r.MissingEntries)},
				{"page mismatches", r.PageMismatches()},
				{"accuracy", fmt.Sprintf("%.2f%%", r.AccuracyPercentage)},
				{"json", paths[0]},
				{"csv", paths[1]},
				{"html", paths[2]},
			})
			return nil
		},
	}
}
