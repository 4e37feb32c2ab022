package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/spectoc/internal/apiclient"
	"github.com/dgallion1/spectoc/internal/search"
	"github.com/dgallion1/spectoc/internal/validate"
)

func newSearchCmd(a *app) *cobra.Command {
	var (
		content bool
		limit   int
		server  string
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the parsed TOC by section id or keywords",
		Long: `Search looks the query up as an exact section id, then as a section id
prefix, then as keywords that must all appear in a title. With --content the
extracted section text is scanned as well. With --server the query runs on a
spectoc serve instance instead of the local files.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if !cmd.Flags().Changed("content") {
				content = a.cfg.SearchContent
			}

			var results []search.Result
			if server != "" {
				// Reject bad queries before a round trip.
				if _, err := validate.Query(query, a.cfg.MinQueryLength); err != nil {
					return err
				}
				c := apiclient.NewClient(server, a.cfg.APIKey)
				defer c.Close()
				resp, err := c.Search(cmd.Context(), query, content, limit)
				if err != nil {
					return err
				}
				results = resp.Results
			} else {
				if limit < 0 {
					limit = a.cfg.MaxResults
				}
				tocPath, contentPath, err := a.outputs()
				if err != nil {
					return err
				}
				s := search.New(search.Options{
					TOCPath:        tocPath,
					ContentPath:    contentPath,
					MinQueryLength: a.cfg.MinQueryLength,
					MaxResults:     a.cfg.MaxResults,
					SearchContent:  a.cfg.SearchContent,
				}, a.log)
				results, err = s.Find(search.Request{Query: query, Content: content, Limit: limit})
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), dimStyle.Render("no matches for "+query))
				return nil
			}
			for _, r := range results {
				fmt.Fprintln(out, formatResult(r))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&content, "content", false, "also scan extracted section text")
	cmd.Flags().IntVarP(&limit, "limit", "n", -1, "maximum results (0 = unlimited, default from config)")
	cmd.Flags().StringVar(&server, "server", "", "query a running spectoc server at this URL")
	return cmd
}

func formatResult(r search.Result) string {
	return fmt.Sprintf("%s %s (page %d)", r.SectionID, r.Title, r.Page)
}
