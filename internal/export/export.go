// Package export renders the listing collection for external consumers.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/office-atlas/atlas-cli/internal/model"
)

// WriteGeoJSON writes listings as a GeoJSON FeatureCollection of points.
func WriteGeoJSON(w io.Writer, listings []model.Listing) error {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(listings))}
	for _, l := range listings {
		props := map[string]any{
			"name":      l.Name,
			"address":   l.Address,
			"source":    string(l.Source),
			"sourceUrl": l.SourceURL,
			"scrapedAt": l.ScrapedAt,
		}
		if l.Grade != "" {
			props["grade"] = l.Grade
		}
		if l.Price != nil {
			props["price"] = *l.Price
		}
		if l.Area != nil {
			props["area"] = *l.Area
		}
		if l.Floors != nil {
			props["floors"] = *l.Floors
		}
		if l.Year != nil {
			props["year"] = *l.Year
		}
		if l.MonthsOnMarket != nil {
			props["monthsOnMarket"] = *l.MonthsOnMarket
		}
		if l.SingleFloor != nil {
			props["singleFloor"] = *l.SingleFloor
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   geom.NewPointFlat(geom.XY, []float64{l.Longitude, l.Latitude}),
			Properties: props,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(fc); err != nil {
		return eris.Wrap(err, "export: encode geojson")
	}
	return nil
}

var columns = []string{
	"name", "address", "lat", "lng", "grade", "price", "area",
	"floors", "year", "monthsOnMarket", "singleFloor", "source", "sourceUrl", "scrapedAt",
}

// WriteCSV writes listings as CSV with a header row.
func WriteCSV(w io.Writer, listings []model.Listing) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, l := range listings {
		if err := cw.Write(listingRow(l)); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteXLSX writes listings as a single-sheet workbook at path.
func WriteXLSX(path string, listings []model.Listing) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Listings")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range columns {
		header.AddCell().Value = col
	}
	for _, l := range listings {
		row := sheet.AddRow()
		for _, v := range listingRow(l) {
			row.AddCell().Value = v
		}
	}

	return eris.Wrapf(f.Save(path), "export: save %s", path)
}

func listingRow(l model.Listing) []string {
	return []string{
		l.Name,
		l.Address,
		strconv.FormatFloat(l.Latitude, 'f', -1, 64),
		strconv.FormatFloat(l.Longitude, 'f', -1, 64),
		l.Grade,
		optInt64(l.Price),
		optFloat(l.Area),
		optInt(l.Floors),
		optInt(l.Year),
		optInt(l.MonthsOnMarket),
		optBool(l.SingleFloor),
		string(l.Source),
		l.SourceURL,
		l.ScrapedAt,
	}
}

func optInt64(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func optBool(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}
