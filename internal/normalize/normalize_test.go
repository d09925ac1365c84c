package normalize

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/office-atlas/atlas-cli/internal/model"
	"github.com/office-atlas/atlas-cli/pkg/geocode"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// stubResolver returns a canned result per address.
type stubResolver struct {
	results map[string]*geocode.Result
	err     error
	calls   int
}

func (s *stubResolver) Resolve(_ context.Context, address string) (*geocode.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if r, ok := s.results[address]; ok {
		return r, nil
	}
	return &geocode.Result{Matched: false}, nil
}

func fixedNow(t *testing.T, day string) func() time.Time {
	t.Helper()
	ts, err := time.Parse(time.DateOnly, day)
	require.NoError(t, err)
	return func() time.Time { return ts }
}

func newTestNormalizer(t *testing.T, resolver geocode.Client) *Normalizer {
	t.Helper()
	n := New(resolver)
	n.Now = fixedNow(t, "2025-08-30")
	return n
}

func TestNormalize_DirectCoordinatesskipGeocoding(t *testing.T) {
	resolver := &stubResolver{}
	n := newTestNormalizer(t, resolver)

	raw := model.RawRecord{
		Name:      "Tòa nhà ABC",
		Address:   "123 Bạch Đằng, Hải Châu",
		Latitude:  model.Ptr(16.05441234999),
		Longitude: model.Ptr(108.20224567891),
	}

	l, err := n.Normalize(context.Background(), raw, "chotot.com")
	require.NoError(t, err)
	require.NotNil(t, l)

	assert.Equal(t, 0, resolver.calls)
	assert.InDelta(t, 16.0544123, l.Latitude, 1e-9)
	assert.InDelta(t, 108.2022457, l.Longitude, 1e-9)
	assert.Equal(t, model.SourceID("chotot.com"), l.Source)
	assert.Equal(t, "2025-08-30", l.ScrapedAt)
}

func TestNormalize_GeocodesWhenCoordinatesMissing(t *testing.T) {
	resolver := &stubResolver{results: map[string]*geocode.Result{
		"123 Bạch Đằng": {Latitude: 16.0701, Longitude: 108.2241, Matched: true},
	}}
	n := newTestNormalizer(t, resolver)

	l, err := n.Normalize(context.Background(), model.RawRecord{Name: "X", Address: "123 Bạch Đằng"}, "muaban.net")
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, 1, resolver.calls)
	assert.InDelta(t, 16.0701, l.Latitude, 1e-9)
}

func TestNormalize_ZeroCoordinatesFallBackToGeocoding(t *testing.T) {
	// The sites emit 0 for "no coordinate"; a zero pair must not be taken
	// at face value.
	resolver := &stubResolver{results: map[string]*geocode.Result{
		"123 Bạch Đằng": {Latitude: 16.0701, Longitude: 108.2241, Matched: true},
	}}
	n := newTestNormalizer(t, resolver)

	raw := model.RawRecord{
		Name:      "X",
		Address:   "123 Bạch Đằng",
		Latitude:  model.Ptr(0.0),
		Longitude: model.Ptr(0.0),
	}

	l, err := n.Normalize(context.Background(), raw, "chotot.com")
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, 1, resolver.calls)
	assert.InDelta(t, 16.0701, l.Latitude, 1e-9)
	assert.True(t, l.Valid())
}

func TestNormalize_ZeroCoordinatesWithoutAddressAreDiscarded(t *testing.T) {
	resolver := &stubResolver{}
	n := newTestNormalizer(t, resolver)

	raw := model.RawRecord{
		Name:      "X",
		Latitude:  model.Ptr(0.0),
		Longitude: model.Ptr(0.0),
	}

	l, err := n.Normalize(context.Background(), raw, "chotot.com")
	require.NoError(t, err)
	assert.Nil(t, l)
	assert.Equal(t, 0, resolver.calls)
}

func TestNormalize_OutOfRangeCoordinatesAreNotTrusted(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
	}{
		{"latitude beyond pole", 91.0, 108.20},
		{"longitude beyond antimeridian", 16.05, 181.0},
		{"negative overflow", -95.0, -200.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &stubResolver{}
			n := newTestNormalizer(t, resolver)

			raw := model.RawRecord{
				Name:      "X",
				Latitude:  model.Ptr(tt.lat),
				Longitude: model.Ptr(tt.lng),
			}

			l, err := n.Normalize(context.Background(), raw, "test")
			require.NoError(t, err)
			assert.Nil(t, l, "an out-of-range pair with no address has nowhere to go")
		})
	}
}

func TestNormalize_InvalidGeocoderResultIsDiscarded(t *testing.T) {
	resolver := &stubResolver{results: map[string]*geocode.Result{
		"123 Bạch Đằng": {Latitude: 120.0, Longitude: 108.2241, Matched: true},
	}}
	n := newTestNormalizer(t, resolver)

	l, err := n.Normalize(context.Background(), model.RawRecord{Name: "X", Address: "123 Bạch Đằng"}, "muaban.net")
	require.NoError(t, err)
	assert.Nil(t, l, "a geocoder response outside geographic range never reaches the store")
}

func TestNormalize_OutputAlwaysValid(t *testing.T) {
	n := newTestNormalizer(t, &stubResolver{})

	l, err := n.Normalize(context.Background(), model.RawRecord{
		Name:      "X",
		Latitude:  model.Ptr(16.0544),
		Longitude: model.Ptr(108.2022),
	}, "test")
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.True(t, l.Valid())
}

func TestNormalize_DiscardsWithoutAddressOrCoordinates(t *testing.T) {
	resolver := &stubResolver{}
	n := newTestNormalizer(t, resolver)

	l, err := n.Normalize(context.Background(), model.RawRecord{Name: "nameless location"}, "muaban.net")
	require.NoError(t, err)
	assert.Nil(t, l)
	assert.Equal(t, 0, resolver.calls, "no address means nothing to geocode")
}

func TestNormalize_DiscardsWhenGeocodeMisses(t *testing.T) {
	resolver := &stubResolver{}
	n := newTestNormalizer(t, resolver)

	l, err := n.Normalize(context.Background(), model.RawRecord{Name: "X", Address: "nowhere at all"}, "muaban.net")
	require.NoError(t, err)
	assert.Nil(t, l)
}

func TestNormalize_ResolverErrorIsDiscardNotFailure(t *testing.T) {
	resolver := &stubResolver{err: eris.New("service down")}
	n := newTestNormalizer(t, resolver)

	l, err := n.Normalize(context.Background(), model.RawRecord{Name: "X", Address: "123 Bạch Đằng"}, "muaban.net")
	require.NoError(t, err)
	assert.Nil(t, l)
}

func TestNormalize_ContextCancellationPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resolver := &stubResolver{err: context.Canceled}
	n := newTestNormalizer(t, resolver)

	_, err := n.Normalize(ctx, model.RawRecord{Name: "X", Address: "somewhere"}, "muaban.net")
	assert.Error(t, err)
}

func TestNormalize_MonthsOnMarket(t *testing.T) {
	coords := model.RawRecord{Latitude: model.Ptr(16.05), Longitude: model.Ptr(108.20)}

	tests := []struct {
		name    string
		mutate  func(*model.RawRecord)
		today   string
		want    *int
	}{
		{
			name:   "derived from posting date",
			mutate: func(r *model.RawRecord) { r.PostingDate = "2024-01-15" },
			today:  "2024-07-15",
			want:   model.Ptr(6),
		},
		{
			name:   "future posting date floors at zero",
			mutate: func(r *model.RawRecord) { r.PostingDate = "2024-07-15" },
			today:  "2024-01-15",
			want:   model.Ptr(0),
		},
		{
			name:   "explicit value wins over posting date",
			mutate: func(r *model.RawRecord) { r.MonthsOnMarket = model.Ptr(3); r.PostingDate = "2020-01-01" },
			today:  "2024-07-15",
			want:   model.Ptr(3),
		},
		{
			name:   "malformed date degrades to nil",
			mutate: func(r *model.RawRecord) { r.PostingDate = "15/01/2024" },
			today:  "2024-07-15",
			want:   nil,
		},
		{
			name:   "absent everywhere stays nil",
			mutate: func(*model.RawRecord) {},
			today:  "2024-07-15",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New(&stubResolver{})
			n.Now = fixedNow(t, tt.today)

			raw := coords
			tt.mutate(&raw)

			l, err := n.Normalize(context.Background(), raw, "test")
			require.NoError(t, err)
			require.NotNil(t, l)
			assert.Equal(t, tt.want, l.MonthsOnMarket)
		})
	}
}

func TestNormalize_SingleFloor(t *testing.T) {
	n := newTestNormalizer(t, &stubResolver{})
	base := model.RawRecord{Latitude: model.Ptr(16.05), Longitude: model.Ptr(108.20)}

	raw := base
	raw.Floors = model.Ptr(1)
	l, err := n.Normalize(context.Background(), raw, "test")
	require.NoError(t, err)
	require.NotNil(t, l.SingleFloor)
	assert.True(t, *l.SingleFloor)

	raw = base
	raw.Floors = model.Ptr(4)
	l, err = n.Normalize(context.Background(), raw, "test")
	require.NoError(t, err)
	require.NotNil(t, l.SingleFloor)
	assert.False(t, *l.SingleFloor)

	raw = base
	raw.Floors = model.Ptr(4)
	raw.SingleFloor = model.Ptr(true) // explicit beats derived
	l, err = n.Normalize(context.Background(), raw, "test")
	require.NoError(t, err)
	assert.True(t, *l.SingleFloor)

	l, err = n.Normalize(context.Background(), base, "test")
	require.NoError(t, err)
	assert.Nil(t, l.SingleFloor)
}

func TestNormalize_NameDefaultsAndTruncation(t *testing.T) {
	n := newTestNormalizer(t, &stubResolver{})
	base := model.RawRecord{Latitude: model.Ptr(16.05), Longitude: model.Ptr(108.20)}

	l, err := n.Normalize(context.Background(), base, "test")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultName, l.Name)

	raw := base
	raw.Name = strings.Repeat("văn ", 50) // 200 runes
	l, err = n.Normalize(context.Background(), raw, "test")
	require.NoError(t, err)
	assert.Equal(t, model.MaxNameLen, len([]rune(l.Name)))
}
