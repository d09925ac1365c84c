package source

import (
	"bytes"
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/office-atlas/atlas-cli/internal/fetcher"
	"github.com/office-atlas/atlas-cli/internal/model"
)

const (
	homedyBase   = "https://homedy.com"
	homedySearch = homedyBase + "/cho-thue-van-phong-da-nang"
)

// Homedy scrapes homedy.com, a smaller secondary source.
type Homedy struct {
	fetcher  fetcher.Fetcher
	maxPages int
}

// NewHomedy creates the homedy.com adapter.
func NewHomedy(f fetcher.Fetcher, maxPages int) *Homedy {
	if maxPages <= 0 {
		maxPages = 2
	}
	return &Homedy{fetcher: f, maxPages: maxPages}
}

// Name implements Source.
func (s *Homedy) Name() model.SourceID { return "homedy.com" }

// Scrape implements Source.
func (s *Homedy) Scrape(ctx context.Context) ([]model.RawRecord, error) {
	var records []model.RawRecord
	fetched := 0

	for page := 1; page <= s.maxPages; page++ {
		url := homedySearch
		if page > 1 {
			url = fmt.Sprintf("%s/p%d", homedySearch, page)
		}

		body, err := s.fetcher.Fetch(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return records, ctx.Err()
			}
			zap.L().Warn("homedy: page fetch failed", zap.String("url", url), zap.Error(err))
			continue
		}
		fetched++

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			zap.L().Warn("homedy: parse failed", zap.String("url", url), zap.Error(err))
			continue
		}

		doc.Find(".property-item, .listing-item, [class*='product']").Each(func(_ int, item *goquery.Selection) {
			if r, ok := s.parseItem(item); ok {
				records = append(records, r)
			}
		})
	}

	if fetched == 0 {
		return nil, eris.New("homedy: no pages reachable")
	}
	return records, nil
}

func (s *Homedy) parseItem(item *goquery.Selection) (model.RawRecord, bool) {
	name := firstText(item, "h2 a, h3 a, .title a, [class*='title']")
	address := firstText(item, "[class*='address'], [class*='location']")
	if name == "" && address == "" {
		return model.RawRecord{}, false
	}

	return model.RawRecord{
		Name:      truncate(name, model.MaxNameLen),
		Address:   address,
		Price:     parsePriceVND(firstText(item, "[class*='price'], .price")),
		Area:      parseAreaM2(firstText(item, "[class*='area'], .area")),
		SourceURL: itemLink(item, homedyBase),
	}, true
}
