// cmd/server/families.go
package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jason-s-yu/happyfamilies/internal/config"
	"github.com/jason-s-yu/happyfamilies/internal/models"
	"github.com/spf13/cobra"
)

func newFamiliesCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "families",
		Short: "Inspect or grow the family catalog.",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Print every family in the catalog.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, closeCatalog, err := openCatalog(cmd.Context(), cfg, cfg.NewLogger())
			if err != nil {
				return err
			}
			defer closeCatalog()
			return printFamilies(cmd.OutOrStdout(), cat.AllFamilies())
		},
	}

	var count int
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Generate new families with Gemini and add them to the catalog.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.GeminiAPIKey == "" {
				return errors.New("GEMINI_API_KEY is required to generate families")
			}
			if count <= 0 {
				return fmt.Errorf("--count must be positive, got %d", count)
			}
			cat, closeCatalog, err := openCatalog(cmd.Context(), cfg, cfg.NewLogger())
			if err != nil {
				return err
			}
			defer closeCatalog()

			added := cat.Grow(cmd.Context(), count)
			if len(added) == 0 {
				return errors.New("no new family could be generated")
			}
			return printFamilies(cmd.OutOrStdout(), added)
		},
	}
	generate.Flags().IntVarP(&count, "count", "n", 1, "number of families to generate")

	cmd.AddCommand(list, generate)
	return cmd
}

func printFamilies(w io.Writer, families []models.Family) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCOLOR\tEMOJI\tTHEME")
	for _, f := range families {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", f.ID, f.Name, f.Color, f.Emoji, f.Theme)
	}
	return tw.Flush()
}
