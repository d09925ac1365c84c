package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultNominatimURL = "https://nominatim.openstreetmap.org/search"

// nominatimPlace is one entry of the Nominatim search response.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NominatimClient implements Client against the Nominatim search API with a
// two-tier strategy: the full address qualified with the configured city and
// country first, then only the first comma-delimited segment with a
// diacritic-folded qualifier.
type NominatimClient struct {
	httpClient    *http.Client
	baseURL       string
	userAgent     string
	cityQualifier string
	limiter       *rate.Limiter
	cache         *resultCache
}

// NewNominatimClient creates a Client with the given options. Defaults: the
// public Nominatim endpoint, 10s request timeout, one lookup per 1.5s.
func NewNominatimClient(opts ...Option) *NominatimClient {
	c := &NominatimClient{
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		baseURL:       defaultNominatimURL,
		userAgent:     "office-atlas/1.0",
		cityQualifier: "Đà Nẵng, Vietnam",
		limiter:       rate.NewLimiter(rate.Every(1500*time.Millisecond), 1),
		cache:         newResultCache(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve geocodes an address, trying the fully qualified form first and a
// simplified form second. Service errors and timeouts are reported as
// unmatched results, not failures: callers treat "could not geocode" the same
// regardless of cause.
func (c *NominatimClient) Resolve(ctx context.Context, address string) (*Result, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return &Result{Matched: false, Source: "nominatim"}, nil
	}

	if c.cache != nil {
		if cached, ok := c.cache.get(address); ok {
			return cached, nil
		}
	}

	queries := []string{address + ", " + c.cityQualifier}
	if simplified := simplifyAddress(address, c.cityQualifier); simplified != queries[0] {
		queries = append(queries, simplified)
	}

	result := &Result{Matched: false, Source: "nominatim"}
	for _, q := range queries {
		r, err := c.search(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			zap.L().Warn("geocode: lookup failed",
				zap.String("query", q),
				zap.Error(err),
			)
			continue
		}
		if r.Matched {
			result = r
			break
		}
	}

	if c.cache != nil {
		c.cache.put(address, result)
	}
	return result, nil
}

// search performs one Nominatim request.
func (c *NominatimClient) search(ctx context.Context, query string) (*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit")
	}

	params := url.Values{
		"q":      {query},
		"format": {"json"},
		"limit":  {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: nominatim returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read body")
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, eris.Wrap(err, "geocode: parse response")
	}
	if len(places) == 0 {
		return &Result{Matched: false, Source: "nominatim"}, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: parse lat")
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: parse lon")
	}

	return &Result{
		Latitude:  lat,
		Longitude: lon,
		Matched:   true,
		Source:    "nominatim",
	}, nil
}

// simplifyAddress builds the tier-two query: the first comma segment of the
// address plus the diacritic-folded city qualifier. Street-level noise after
// the first comma is what most often makes the full form miss.
func simplifyAddress(address, qualifier string) string {
	segment := address
	if i := strings.IndexByte(address, ','); i >= 0 {
		segment = address[:i]
	}
	return strings.TrimSpace(segment) + ", " + FoldDiacritics(qualifier)
}
