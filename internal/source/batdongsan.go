package source

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/office-atlas/atlas-cli/internal/fetcher"
	"github.com/office-atlas/atlas-cli/internal/model"
)

const (
	batDongSanBase   = "https://batdongsan.com.vn"
	batDongSanSearch = batDongSanBase + "/cho-thue-van-phong-da-nang"
)

// BatDongSan scrapes batdongsan.com.vn, the largest Vietnamese listing site.
// Cards are client-side rendered, so it normally runs behind the browser
// fetcher.
type BatDongSan struct {
	fetcher  fetcher.Fetcher
	maxPages int
	now      func() time.Time
}

// NewBatDongSan creates the batdongsan.com.vn adapter.
func NewBatDongSan(f fetcher.Fetcher, maxPages int) *BatDongSan {
	if maxPages <= 0 {
		maxPages = 5
	}
	return &BatDongSan{fetcher: f, maxPages: maxPages, now: time.Now}
}

// Name implements Source.
func (s *BatDongSan) Name() model.SourceID { return "batdongsan.com.vn" }

// Scrape implements Source.
func (s *BatDongSan) Scrape(ctx context.Context) ([]model.RawRecord, error) {
	var records []model.RawRecord
	fetched := 0

	for page := 1; page <= s.maxPages; page++ {
		url := batDongSanSearch
		if page > 1 {
			url = fmt.Sprintf("%s/p%d", batDongSanSearch, page)
		}

		body, err := s.fetcher.Fetch(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return records, ctx.Err()
			}
			zap.L().Warn("batdongsan: page fetch failed", zap.String("url", url), zap.Error(err))
			continue
		}
		fetched++

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			zap.L().Warn("batdongsan: parse failed", zap.String("url", url), zap.Error(err))
			continue
		}

		items := doc.Find(".js__card, .re__card-full, .product-item")
		if items.Length() == 0 {
			items = doc.Find("a[href*='/cho-thue-van-phong-']")
		}

		items.Each(func(_ int, item *goquery.Selection) {
			if r, ok := s.parseItem(item); ok {
				records = append(records, r)
			}
		})
	}

	if fetched == 0 {
		return nil, eris.New("batdongsan: no pages reachable")
	}
	return records, nil
}

func (s *BatDongSan) parseItem(item *goquery.Selection) (model.RawRecord, bool) {
	name := firstText(item, ".re__card-title, .product-title, h3, .js__card-title")
	address := firstText(item, ".re__card-location, .product-location, [class*='location']")
	if name == "" && address == "" {
		return model.RawRecord{}, false
	}

	return model.RawRecord{
		Name:        truncate(name, model.MaxNameLen),
		Address:     address,
		Price:       parsePriceVND(firstText(item, ".re__card-config-price, .product-price, [class*='price']")),
		Area:        parseAreaM2(firstText(item, ".re__card-config-area, .product-area, [class*='area']")),
		PostingDate: parsePostingDate(firstText(item, ".re__card-published-info-published-at, [class*='date'], time"), s.now()),
		SourceURL:   itemLink(item, batDongSanBase),
	}, true
}
