package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/office-atlas/atlas-cli/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-source counts from the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := initRepo(ctx)
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		listings, err := store.Load(ctx)
		if err != nil {
			return err
		}

		counts := make(map[model.SourceID]int)
		for _, l := range listings {
			counts[l.Source]++
		}

		sources := make([]string, 0, len(counts))
		for src := range counts {
			sources = append(sources, string(src))
		}
		sort.Strings(sources)

		for _, src := range sources {
			fmt.Printf("%-22s %d\n", src, counts[model.SourceID(src)])
		}
		fmt.Printf("%-22s %d\n", "total", len(listings))
		return nil
	},
}

func init() { rootCmd.AddCommand(statusCmd) }
