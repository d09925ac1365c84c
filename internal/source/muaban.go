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
	muabanBase   = "https://muaban.net"
	muabanSearch = muabanBase + "/cho-thue-van-phong-mat-bang-da-nang-l15-c3408"
)

// Muaban scrapes muaban.net office and storefront rentals.
type Muaban struct {
	fetcher  fetcher.Fetcher
	maxPages int
}

// NewMuaban creates the muaban.net adapter.
func NewMuaban(f fetcher.Fetcher, maxPages int) *Muaban {
	if maxPages <= 0 {
		maxPages = 3
	}
	return &Muaban{fetcher: f, maxPages: maxPages}
}

// Name implements Source.
func (s *Muaban) Name() model.SourceID { return "muaban.net" }

// Scrape implements Source.
func (s *Muaban) Scrape(ctx context.Context) ([]model.RawRecord, error) {
	var records []model.RawRecord
	fetched := 0

	for page := 1; page <= s.maxPages; page++ {
		url := muabanSearch
		if page > 1 {
			url = fmt.Sprintf("%s?page=%d", muabanSearch, page)
		}

		body, err := s.fetcher.Fetch(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return records, ctx.Err()
			}
			zap.L().Warn("muaban: page fetch failed", zap.String("url", url), zap.Error(err))
			continue
		}
		fetched++

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			zap.L().Warn("muaban: parse failed", zap.String("url", url), zap.Error(err))
			continue
		}

		items := doc.Find(".listing-item, [class*='PostItem']")
		if items.Length() == 0 {
			items = doc.Find("a[href*='/cho-thue']")
		}

		items.Each(func(_ int, item *goquery.Selection) {
			if r, ok := s.parseItem(item); ok {
				records = append(records, r)
			}
		})
	}

	if fetched == 0 {
		return nil, eris.New("muaban: no pages reachable")
	}
	return records, nil
}

func (s *Muaban) parseItem(item *goquery.Selection) (model.RawRecord, bool) {
	name := firstText(item, "h4, h3, .title, [class*='title']")
	address := firstText(item, "[class*='address'], [class*='location'], .address")
	if name == "" && address == "" {
		return model.RawRecord{}, false
	}

	return model.RawRecord{
		Name:      truncate(name, model.MaxNameLen),
		Address:   address,
		Price:     parsePriceVND(firstText(item, "[class*='price'], .price")),
		Area:      parseAreaM2(firstText(item, "[class*='area'], .area")),
		SourceURL: itemLink(item, muabanBase),
	}, true
}
