package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/spectoc/internal/schema"
)

func newValidateCmd(a *app) *cobra.Command {
	var maxErrors int
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the TOC and content files against their JSON schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tocPath, contentPath, err := a.outputs()
			if err != nil {
				return err
			}
			v, err := schema.New()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, f := range []struct {
				kind schema.Kind
				path string
			}{
				{schema.TOC, tocPath},
				{schema.Content, contentPath},
			} {
				rep, err := v.ValidateFile(f.kind, f.path)
				if err != nil {
					fmt.Fprintf(out, "%s %s: %v\n", errorStyle.Render("FAIL"), f.path, err)
					failed++
					continue
				}
				if rep.OK() {
					fmt.Fprintf(out, "%s %s: %d records\n", successStyle.Render("OK"), rep.Path, rep.Records)
					continue
				}
				failed++
				fmt.Fprintf(out, "%s %s: %d of %d records invalid\n", errorStyle.Render("FAIL"), rep.Path, rep.Invalid, rep.Records)
				for i, le := range rep.Errors {
					if maxErrors > 0 && i == maxErrors {
						fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("  ... %d more", len(rep.Errors)-i)))
						break
					}
					fmt.Fprintf(out, "  line %d: %s\n", le.Line, le.Message)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d file(s) failed validation", failed)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&maxErrors, "max-errors", 20, "errors to print per file (0 = all)")
	return cmd
}
