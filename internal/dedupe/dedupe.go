// Package dedupe collapses listings that describe the same physical property
// using great-circle proximity.
package dedupe

import (
	"math"

	"go.uber.org/zap"

	"github.com/office-atlas/atlas-cli/internal/model"
)

// DefaultThresholdKM is the proximity under which two listings are treated as
// the same property (100 m).
const DefaultThresholdKM = 0.1

const earthRadiusKM = 6371

// HaversineKM returns the great-circle distance between two points in
// kilometers. NaN inputs yield +Inf so that a listing with unusable
// coordinates never matches anything.
func HaversineKM(lat1, lng1, lat2, lng2 float64) float64 {
	if math.IsNaN(lat1) || math.IsNaN(lng1) || math.IsNaN(lat2) || math.IsNaN(lng2) {
		return math.Inf(1)
	}

	rlat1 := lat1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	dlat := (lat2 - lat1) * math.Pi / 180
	dlng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlng/2)*math.Sin(dlng/2)
	return earthRadiusKM * 2 * math.Asin(math.Sqrt(a))
}

// Deduplicate partitions listings into proximity clusters and keeps the
// first-seen member of each. Order-sensitive: callers that want previously
// persisted listings to win must put them first. Pairwise O(n²), fine at the
// single-digit-thousands scale this collection runs at; a grid index is the
// obvious upgrade if that changes.
func Deduplicate(listings []model.Listing, thresholdKM float64) []model.Listing {
	if thresholdKM <= 0 {
		zap.L().Warn("dedupe: non-positive threshold, using default",
			zap.Float64("given_km", thresholdKM),
			zap.Float64("default_km", DefaultThresholdKM),
		)
		thresholdKM = DefaultThresholdKM
	}

	unique := make([]model.Listing, 0, len(listings))
	dropped := 0
	for _, candidate := range listings {
		dup := false
		for _, kept := range unique {
			d := HaversineKM(candidate.Latitude, candidate.Longitude, kept.Latitude, kept.Longitude)
			if d < thresholdKM {
				dup = true
				break
			}
		}
		if dup {
			dropped++
			continue
		}
		unique = append(unique, candidate)
	}

	if dropped > 0 {
		zap.L().Debug("dedupe: dropped proximate duplicates",
			zap.Int("dropped", dropped),
			zap.Int("kept", len(unique)),
		)
	}
	return unique
}

// Merge combines previously persisted listings with a freshly scraped batch
// and deduplicates the union. Existing listings go first so a re-scrape of a
// known property never displaces the stored record.
func Merge(existing, incoming []model.Listing, thresholdKM float64) []model.Listing {
	combined := make([]model.Listing, 0, len(existing)+len(incoming))
	combined = append(combined, existing...)
	combined = append(combined, incoming...)
	return Deduplicate(combined, thresholdKM)
}
