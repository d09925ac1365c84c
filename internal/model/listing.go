// Package model defines the canonical listing schema shared across the pipeline.
package model

import "math"

// MaxNameLen bounds the display name of a persisted listing.
const MaxNameLen = 100

// DefaultName is used when a source provides no usable title.
const DefaultName = "Unknown Office"

// CoordPrecision is the number of decimal digits kept on stored coordinates
// (~1 cm at the equator).
const CoordPrecision = 7

// SourceID identifies the originating listing site.
type SourceID string

// Listing is a canonical, geolocated office-for-rent record. Optional fields
// are pointers so that "absent" survives a round trip through the store.
// A Listing is created once by the normalizer and never mutated afterwards.
type Listing struct {
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	Latitude       float64  `json:"lat"`
	Longitude      float64  `json:"lng"`
	Grade          string   `json:"grade"`
	Price          *int64   `json:"price"`
	Area           *float64 `json:"area"`
	Floors         *int     `json:"floors"`
	Year           *int     `json:"year"`
	MonthsOnMarket *int     `json:"monthsOnMarket"`
	SingleFloor    *bool    `json:"singleFloor"`
	Source         SourceID `json:"source"`
	SourceURL      string   `json:"sourceUrl"`
	ScrapedAt      string   `json:"scrapedAt"`
}

// RawRecord is the loosely-populated output of one source adapter, before
// normalization. Every optional field is explicitly a pointer; adapters omit
// what they cannot extract instead of guessing.
type RawRecord struct {
	Name           string
	Address        string
	Grade          string
	Price          *int64
	Area           *float64
	Floors         *int
	Year           *int
	SingleFloor    *bool
	MonthsOnMarket *int
	PostingDate    string // ISO YYYY-MM-DD, empty when unknown
	Latitude       *float64
	Longitude      *float64
	SourceURL      string
}

// HasCoordinates reports whether the raw record carries both coordinates.
func (r RawRecord) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// RoundCoord rounds a coordinate to CoordPrecision decimal digits.
func RoundCoord(v float64) float64 {
	const scale = 1e7
	return math.Round(v*scale) / scale
}

// Valid reports whether the listing's coordinates are set and inside
// geographic range.
func (l Listing) Valid() bool {
	if math.IsNaN(l.Latitude) || math.IsNaN(l.Longitude) {
		return false
	}
	if l.Latitude == 0 && l.Longitude == 0 {
		return false
	}
	return l.Latitude >= -90 && l.Latitude <= 90 &&
		l.Longitude >= -180 && l.Longitude <= 180
}

// Ptr returns a pointer to v. Convenience for building optional fields.
func Ptr[T any](v T) *T { return &v }
