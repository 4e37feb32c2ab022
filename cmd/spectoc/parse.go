package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/spectoc/internal/extract"
	"github.com/dgallion1/spectoc/internal/pipeline"
)

func newParseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse [pdf_path]",
		Short: "Extract the TOC and section content into JSON Lines files",
		Long: `Parse reads the PDF outline, keeps numbered sections, extracts the text of
each section's page range and writes the TOC and content files. Without an
argument the configured default PDF in the assets directory is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pdfPath, err := pdfArg(a, args)
			if err != nil {
				return err
			}
			tocPath, contentPath, err := a.outputs()
			if err != nil {
				return err
			}

			stats := extract.NewLatencyStats(0)
			worker, err := a.newWorker(tocPath, contentPath, stats, nil)
			if err != nil {
				return err
			}

			job := pipeline.NewJob(pdfPath)
			res, err := worker.Run(cmd.Context(), job)
			if err != nil {
				return err
			}

			s := res.Summary
			status := successStyle.Render(string(res.Status))
			if res.Status == pipeline.StatusPartial {
				status = warnStyle.Render(string(res.Status))
			}
			lat := stats.Snapshot()
			printSummary(cmd.OutOrStdout(), "spectoc parse", []row{
				{"status", status},
				{"pdf", res.PDFPath},
				{"toc entries", fmt.Sprintf("%d (%d dropped)", res.Entries, res.Dropped)},
				{"sections", s.Sections},
				{"empty sections", s.Empty},
				{"page errors", s.PageErrors},
				{"timed out", s.TimedOut},
				{"images", s.Images},
				{"tables", s.Tables},
				{"workers", s.Workers},
				{"section p95", fmt.Sprintf("%.0fms", lat.P95Ms)},
				{"per page", fmt.Sprintf("%.1fms", lat.MsPerPage)},
				{"duration", res.Duration.Round(time.Millisecond)},
				{"toc file", tocPath},
				{"content file", contentPath},
			})
			return nil
		},
	}
}
