// Package source holds the per-site adapters that turn fetched listing pages
// into raw records. Adapters are best-effort: they omit fields they cannot
// extract and skip malformed items instead of failing the page.
package source

import (
	"context"

	"github.com/office-atlas/atlas-cli/internal/fetcher"
	"github.com/office-atlas/atlas-cli/internal/model"
)

// Source is one external listing site acting as a data origin.
type Source interface {
	// Name returns the source identifier persisted on listings.
	Name() model.SourceID

	// Scrape enumerates the site's result pages and returns every raw
	// record it could extract. Page-level failures are logged and skipped;
	// only a site-level failure (nothing reachable at all) is an error.
	Scrape(ctx context.Context) ([]model.RawRecord, error)
}

// Spec describes one configured source.
type Spec struct {
	Name     string `yaml:"name"`
	Enabled  bool   `yaml:"enabled"`
	MaxPages int    `yaml:"max_pages"`
	// Fetcher selects "http" or "browser" page retrieval.
	Fetcher string `yaml:"fetcher"`
}

// Build constructs the enabled sources from their specs, in spec order. The
// pipeline's first-wins dedup depends on this order being stable. Unknown
// source names are skipped.
func Build(specs []Spec, httpF, browserF fetcher.Fetcher) []Source {
	var sources []Source
	for _, spec := range specs {
		if !spec.Enabled {
			continue
		}
		f := httpF
		if spec.Fetcher == "browser" && browserF != nil {
			f = browserF
		}
		var s Source
		switch spec.Name {
		case "batdongsan.com.vn":
			s = NewBatDongSan(f, spec.MaxPages)
		case "alonhadat.com.vn":
			s = NewAlonhadat(f, spec.MaxPages)
		case "chotot.com":
			s = NewChotot(f, spec.MaxPages)
		case "muaban.net":
			s = NewMuaban(f, spec.MaxPages)
		case "homedy.com":
			s = NewHomedy(f, spec.MaxPages)
		default:
			continue
		}
		sources = append(sources, s)
	}
	return sources
}
