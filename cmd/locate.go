package main

import (
	"github.com/spf13/cobra"

	"github.com/planora/provider-discovery/internal/discovery"
	"github.com/planora/provider-discovery/internal/model"
)

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Print the approximate location of this machine's public IP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("locate"); err != nil {
			return err
		}
		loc, err := newIPLocator(cfg).Locate(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), loc)
	},
}

var (
	locateQuery string
	locateLat   float64
	locateLng   float64
)

var locateSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Suggest locations matching a partial place name",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("discover"); err != nil {
			return err
		}
		var bias *model.Coordinates
		if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng") {
			bias = &model.Coordinates{Latitude: locateLat, Longitude: locateLng}
		}
		out, err := newService(cfg).SearchLocations(cmd.Context(), discovery.LocationSearchRequest{
			Query: locateQuery,
			Bias:  bias,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), locationSearchResponse{Results: out})
	},
}

func init() {
	locateSearchCmd.Flags().StringVar(&locateQuery, "query", "", "partial location name")
	locateSearchCmd.Flags().Float64Var(&locateLat, "lat", 0, "bias latitude (used with --lng)")
	locateSearchCmd.Flags().Float64Var(&locateLng, "lng", 0, "bias longitude (used with --lat)")

	locateCmd.AddCommand(locateSearchCmd)
	rootCmd.AddCommand(locateCmd)
}
