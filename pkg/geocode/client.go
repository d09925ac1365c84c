// Package geocode resolves free-text Vietnamese addresses to coordinates via
// the Nominatim lookup service.
package geocode

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Client resolves a free-text address to coordinates.
type Client interface {
	// Resolve geocodes a single address. An address the service cannot
	// locate is NOT an error: the result comes back with Matched=false.
	Resolve(ctx context.Context, address string) (*Result, error)
}

// Result holds the outcome of one address lookup.
type Result struct {
	Latitude  float64
	Longitude float64
	Matched   bool
	Source    string // "nominatim" or "cache"
}

// Option configures the Nominatim client.
type Option func(*NominatimClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *NominatimClient) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the Nominatim endpoint (tests point this at a fake).
func WithBaseURL(u string) Option {
	return func(c *NominatimClient) {
		c.baseURL = u
	}
}

// WithUserAgent sets the User-Agent header. Nominatim's usage policy
// requires an identifying agent.
func WithUserAgent(ua string) Option {
	return func(c *NominatimClient) {
		c.userAgent = ua
	}
}

// WithMinInterval sets the minimum delay between lookup calls.
func WithMinInterval(d time.Duration) Option {
	return func(c *NominatimClient) {
		if d > 0 {
			c.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithCityQualifier sets the city/country suffix appended to every lookup.
func WithCityQualifier(q string) Option {
	return func(c *NominatimClient) {
		c.cityQualifier = q
	}
}

// WithoutCache disables the in-process result cache.
func WithoutCache() Option {
	return func(c *NominatimClient) {
		c.cache = nil
	}
}
