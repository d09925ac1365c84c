// Package fetcher retrieves listing pages, throttled per the source sites'
// fair-use expectations.
package fetcher

import "context"

// Fetcher retrieves one page and returns its raw bytes (HTML or JSON).
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// defaultUserAgent mimics a desktop browser; several of the listing sites
// refuse obviously non-browser agents.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
