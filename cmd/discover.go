package main

import (
	"github.com/spf13/cobra"

	"github.com/planora/provider-discovery/internal/discovery"
	"github.com/planora/provider-discovery/internal/model"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover and rank service providers for an event",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		return cfg.Validate("discover")
	},
}

var (
	discoverName     string
	discoverCategory string
	discoverQuery    string
	discoverLocation string
	discoverLat      float64
	discoverLng      float64
)

var discoverCategoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Find providers suited to an event category near a location",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newService(cfg)
		res, err := svc.DiscoverByCategory(cmd.Context(), discovery.CategoryRequest{
			EventName:     discoverName,
			EventCategory: discoverCategory,
			Location:      flagLocation(cmd),
		})
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), outputFormat, res, map[string]string{
			"event_name":     discoverName,
			"event_category": discoverCategory,
		})
	},
}

var discoverTextCmd = &cobra.Command{
	Use:   "text",
	Short: "Find providers matching a free-text query near a location",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newService(cfg)
		res, err := svc.DiscoverByText(cmd.Context(), discovery.TextRequest{
			SearchQuery: discoverQuery,
			Location:    flagLocation(cmd),
		})
		if err != nil {
			return err
		}
		header := map[string]string{"search_query": discoverQuery}
		if len(res.Providers) == 0 {
			header["message"] = discovery.MsgNoProvidersMatched
		}
		return printResult(cmd.OutOrStdout(), outputFormat, res, header)
	},
}

// flagLocation builds the event location from flags. Coordinates are used
// only when both --lat and --lng were given.
func flagLocation(cmd *cobra.Command) discovery.Location {
	loc := discovery.Location{Description: discoverLocation}
	if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng") {
		loc.Coordinates = &model.Coordinates{Latitude: discoverLat, Longitude: discoverLng}
	}
	return loc
}

func init() {
	for _, c := range []*cobra.Command{discoverCategoryCmd, discoverTextCmd} {
		c.Flags().StringVar(&discoverLocation, "location", "", "event location description")
		c.Flags().Float64Var(&discoverLat, "lat", 0, "event latitude (skips geocoding with --lng)")
		c.Flags().Float64Var(&discoverLng, "lng", 0, "event longitude (skips geocoding with --lat)")
	}

	discoverCategoryCmd.Flags().StringVar(&discoverName, "name", "", "event name")
	discoverCategoryCmd.Flags().StringVar(&discoverCategory, "category", "", "event category (e.g. Music)")
	discoverTextCmd.Flags().StringVar(&discoverQuery, "query", "", "free-text provider search")

	discoverCmd.PersistentFlags().StringVar(&outputFormat, "format", "json", "output format: json or geojson")

	discoverCmd.AddCommand(discoverCategoryCmd, discoverTextCmd, discoverBatchCmd)
	rootCmd.AddCommand(discoverCmd)
}
