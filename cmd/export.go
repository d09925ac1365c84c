package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/office-atlas/atlas-cli/internal/export"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the listing collection as geojson, csv, or xlsx",
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

		switch exportFormat {
		case "geojson", "csv":
			out := os.Stdout
			if exportOut != "" {
				f, err := os.Create(exportOut)
				if err != nil {
					return eris.Wrapf(err, "create %s", exportOut)
				}
				defer f.Close() //nolint:errcheck
				out = f
			}
			if exportFormat == "geojson" {
				return export.WriteGeoJSON(out, listings)
			}
			return export.WriteCSV(out, listings)

		case "xlsx":
			if exportOut == "" {
				return eris.New("xlsx export requires --out")
			}
			return export.WriteXLSX(exportOut, listings)

		default:
			return eris.Errorf("unknown format %q", exportFormat)
		}
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "geojson", "output format: geojson, csv, xlsx")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path (stdout for geojson/csv when empty)")
	rootCmd.AddCommand(exportCmd)
}
