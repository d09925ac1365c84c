// Package normalize reconciles raw per-source records into canonical listings.
package normalize

import (
	"context"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/office-atlas/atlas-cli/internal/model"
	"github.com/office-atlas/atlas-cli/pkg/geocode"
)

// Normalizer converts one RawRecord plus its source identity into a Listing,
// resolving missing coordinates through the geocode client.
type Normalizer struct {
	Resolver geocode.Client

	// Now supplies "today" for the months-on-market derivation. Defaults to
	// time.Now; tests pin it.
	Now func() time.Time
}

// New creates a Normalizer using the given resolver.
func New(resolver geocode.Client) *Normalizer {
	return &Normalizer{Resolver: resolver, Now: time.Now}
}

// Normalize returns the canonical listing for raw, or nil when the record is
// unusable. A nil listing is a silent, terminal filter, not an error: an
// office we cannot place on the map is not useful output. The only errors
// surfaced are context cancellations bubbling out of the resolver.
func (n *Normalizer) Normalize(ctx context.Context, raw model.RawRecord, source model.SourceID) (*model.Listing, error) {
	lat, lng, ok, err := n.locate(ctx, raw)
	if err != nil {
		return nil, err
	}
	if !ok {
		zap.L().Debug("normalize: discarding unlocatable record",
			zap.String("source", string(source)),
			zap.String("address", raw.Address),
		)
		return nil, nil
	}

	now := n.now()

	listing := &model.Listing{
		Name:           normalizeName(raw.Name),
		Address:        strings.TrimSpace(raw.Address),
		Latitude:       model.RoundCoord(lat),
		Longitude:      model.RoundCoord(lng),
		Grade:          strings.TrimSpace(raw.Grade),
		Price:          raw.Price,
		Area:           raw.Area,
		Floors:         raw.Floors,
		Year:           raw.Year,
		MonthsOnMarket: monthsOnMarket(raw, now),
		SingleFloor:    singleFloor(raw),
		Source:         source,
		SourceURL:      raw.SourceURL,
		ScrapedAt:      now.Format(time.DateOnly),
	}
	if !listing.Valid() {
		zap.L().Debug("normalize: discarding record with invalid coordinates",
			zap.String("source", string(source)),
			zap.Float64("lat", listing.Latitude),
			zap.Float64("lng", listing.Longitude),
		)
		return nil, nil
	}
	return listing, nil
}

// locate returns the record's coordinates, geocoding the address when the
// source did not supply them.
func (n *Normalizer) locate(ctx context.Context, raw model.RawRecord) (lat, lng float64, ok bool, err error) {
	if raw.HasCoordinates() && usableCoords(*raw.Latitude, *raw.Longitude) {
		return *raw.Latitude, *raw.Longitude, true, nil
	}

	address := strings.TrimSpace(raw.Address)
	if address == "" || n.Resolver == nil {
		return 0, 0, false, nil
	}

	result, err := n.Resolver.Resolve(ctx, address)
	if err != nil {
		if ctx.Err() != nil {
			return 0, 0, false, err
		}
		// Resolver transport failures are indistinguishable from not-found.
		zap.L().Warn("normalize: geocode failed", zap.String("address", address), zap.Error(err))
		return 0, 0, false, nil
	}
	if result == nil || !result.Matched {
		return 0, 0, false, nil
	}
	return result.Latitude, result.Longitude, true, nil
}

// usableCoords reports whether a source-supplied coordinate pair can be
// trusted. The listing sites emit zero for "not set", so a zero component
// means the record still needs geocoding.
func usableCoords(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	if lat == 0 || lng == 0 {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func (n *Normalizer) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now()
}

// normalizeName trims, truncates to the display bound, and substitutes the
// placeholder for empty titles.
func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.DefaultName
	}
	runes := []rune(name)
	if len(runes) > model.MaxNameLen {
		return string(runes[:model.MaxNameLen])
	}
	return name
}

// monthsOnMarket prefers an explicit month count, then derives the inclusive
// month difference between the posting date and today, floored at zero. A
// malformed posting date degrades to nil rather than failing the record.
func monthsOnMarket(raw model.RawRecord, now time.Time) *int {
	if raw.MonthsOnMarket != nil {
		return raw.MonthsOnMarket
	}
	if raw.PostingDate == "" {
		return nil
	}
	posted, err := time.Parse(time.DateOnly, raw.PostingDate)
	if err != nil {
		return nil
	}
	months := (now.Year()-posted.Year())*12 + int(now.Month()) - int(posted.Month())
	if months < 0 {
		months = 0
	}
	return &months
}

// singleFloor prefers an explicit flag, else derives it from a floor count of
// exactly one.
func singleFloor(raw model.RawRecord) *bool {
	if raw.SingleFloor != nil {
		return raw.SingleFloor
	}
	if raw.Floors == nil {
		return nil
	}
	single := *raw.Floors == 1
	return &single
}
