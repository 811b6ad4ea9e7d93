package main

import (
	"github.com/spf13/cobra"

	"github.com/planora/provider-discovery/internal/taxonomy"
)

type categoryEntry struct {
	Name       string   `json:"name"`
	PlaceTypes []string `json:"place_types"`
}

// categoryEntries lists the known event categories with the place types each
// one searches for, in canonical order.
func categoryEntries() []categoryEntry {
	cats := taxonomy.Categories()
	out := make([]categoryEntry, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryEntry{Name: c, PlaceTypes: taxonomy.TypesFor(c)})
	}
	return out
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the known event categories and the place types they search",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printJSON(cmd.OutOrStdout(), categoryEntries())
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}
