package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/office-atlas/atlas-cli/pkg/geocode"
)

// newResolver builds the Nominatim client from the loaded config.
func newResolver() *geocode.NominatimClient {
	return geocode.NewNominatimClient(
		geocode.WithBaseURL(cfg.Geocode.BaseURL),
		geocode.WithUserAgent(cfg.Geocode.UserAgent),
		geocode.WithCityQualifier(cfg.Geocode.CityQualifier),
		geocode.WithMinInterval(time.Duration(cfg.Geocode.MinIntervalMs)*time.Millisecond),
		geocode.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Geocode.TimeoutSecs) * time.Second,
		}),
	)
}

var geocodeCmd = &cobra.Command{
	Use:   "geocode <address>",
	Short: "Resolve a single address (debugging aid)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := newResolver().Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !result.Matched {
			fmt.Println("no match")
			return nil
		}
		fmt.Printf("%.7f, %.7f (%s)\n", result.Latitude, result.Longitude, result.Source)
		return nil
	},
}

func init() { rootCmd.AddCommand(geocodeCmd) }
