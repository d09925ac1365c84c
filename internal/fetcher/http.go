package fetcher

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/office-atlas/atlas-cli/internal/resilience"
)

// HTTPOptions configures the plain HTTP fetcher.
type HTTPOptions struct {
	UserAgent string
	Timeout   time.Duration
	// PageDelay is the minimum interval between successive fetches.
	PageDelay time.Duration
	Retry     resilience.RetryConfig
}

// HTTPFetcher fetches pages over plain HTTP with retry and a minimum delay
// between requests.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
	retry     resilience.RetryConfig
}

// NewHTTP creates an HTTPFetcher. Zero-valued options get defaults: 30s
// timeout, 4s page delay, default retry policy.
func NewHTTP(opts HTTPOptions) *HTTPFetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.PageDelay <= 0 {
		opts.PageDelay = 4 * time.Second
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = resilience.DefaultRetryConfig()
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: opts.Timeout},
		userAgent: opts.UserAgent,
		limiter:   rate.NewLimiter(rate.Every(opts.PageDelay), 1),
		retry:     opts.Retry,
	}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "fetcher: page delay")
	}

	var body []byte
	err := resilience.Do(ctx, f.retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return eris.Wrap(err, "fetcher: build request")
		}
		req.Header.Set("User-Agent", f.userAgent)
		req.Header.Set("Accept-Language", "vi-VN,vi;q=0.9,en;q=0.8")

		resp, err := f.client.Do(req)
		if err != nil {
			return eris.Wrap(err, "fetcher: request")
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode != http.StatusOK {
			err := eris.Errorf("fetcher: %s returned status %d", url, resp.StatusCode)
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return resilience.NewTransientError(err, resp.StatusCode)
			}
			return err
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return eris.Wrap(err, "fetcher: read body")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
