package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/office-atlas/atlas-cli/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func exportListings() []model.Listing {
	return []model.Listing{
		{
			Name:        "Văn phòng Bạch Đằng",
			Address:     "123 Bạch Đằng, Hải Châu",
			Latitude:    16.0544123,
			Longitude:   108.2022456,
			Grade:       "B",
			Price:       model.Ptr(int64(50_000_000)),
			Area:        model.Ptr(120.5),
			Floors:      model.Ptr(4),
			SingleFloor: model.Ptr(false),
			Source:      "batdongsan.com.vn",
			SourceURL:   "https://batdongsan.com.vn/x?a=1&b=2",
			ScrapedAt:   "2025-08-30",
		},
		{
			Name:      "Unknown Office",
			Latitude:  16.0688,
			Longitude: 108.2242,
			Source:    "muaban.net",
			ScrapedAt: "2025-08-30",
		},
	}
}

func TestWriteGeoJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGeoJSON(&buf, exportListings()))

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Type     string `json:"type"`
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fc))

	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)

	first := fc.Features[0]
	assert.Equal(t, "Feature", first.Type)
	assert.Equal(t, "Point", first.Geometry.Type)
	// GeoJSON positions are [longitude, latitude].
	require.Len(t, first.Geometry.Coordinates, 2)
	assert.InDelta(t, 108.2022456, first.Geometry.Coordinates[0], 1e-9)
	assert.InDelta(t, 16.0544123, first.Geometry.Coordinates[1], 1e-9)

	assert.Equal(t, "Văn phòng Bạch Đằng", first.Properties["name"])
	assert.Equal(t, "B", first.Properties["grade"])
	assert.InDelta(t, 50_000_000, first.Properties["price"].(float64), 0.5)

	second := fc.Features[1]
	assert.Equal(t, "Unknown Office", second.Properties["name"])
	assert.NotContains(t, second.Properties, "price", "absent optionals are omitted")
	assert.NotContains(t, second.Properties, "grade")
}

func TestWriteGeoJSON_DoesNotEscapeURLs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGeoJSON(&buf, exportListings()))
	assert.Contains(t, buf.String(), "?a=1&b=2", "ampersands must not be HTML-escaped")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, exportListings()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, columns, rows[0])

	first := rows[1]
	assert.Equal(t, "Văn phòng Bạch Đằng", first[0])
	assert.Equal(t, "16.0544123", first[2])
	assert.Equal(t, "108.2022456", first[3])
	assert.Equal(t, "50000000", first[5])
	assert.Equal(t, "120.5", first[6])
	assert.Equal(t, "false", first[10])

	second := rows[2]
	assert.Equal(t, "Unknown Office", second[0])
	assert.Equal(t, "", second[5], "absent price is an empty cell")
	assert.Equal(t, "", second[10], "absent singleFloor is an empty cell")
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1, "header only")
	assert.Equal(t, columns, rows[0])
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.xlsx")
	require.NoError(t, WriteXLSX(path, exportListings()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	assert.Equal(t, "Listings", sheet.Name)
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, "name", sheet.Rows[0].Cells[0].Value)
	assert.Equal(t, "Văn phòng Bạch Đằng", sheet.Rows[1].Cells[0].Value)
	assert.Equal(t, "muaban.net", sheet.Rows[2].Cells[11].Value)
}
