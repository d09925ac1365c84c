package source

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/office-atlas/atlas-cli/internal/fetcher"
	"github.com/office-atlas/atlas-cli/internal/model"
)

const (
	alonhadatBase   = "https://alonhadat.com.vn"
	alonhadatSearch = alonhadatBase + "/nha-dat/cho-thue/van-phong/3/da-nang.html"
)

// Alonhadat scrapes alonhadat.com.vn office-for-rent results.
type Alonhadat struct {
	fetcher  fetcher.Fetcher
	maxPages int
}

// NewAlonhadat creates the alonhadat.com.vn adapter.
func NewAlonhadat(f fetcher.Fetcher, maxPages int) *Alonhadat {
	if maxPages <= 0 {
		maxPages = 5
	}
	return &Alonhadat{fetcher: f, maxPages: maxPages}
}

// Name implements Source.
func (s *Alonhadat) Name() model.SourceID { return "alonhadat.com.vn" }

// Scrape implements Source.
func (s *Alonhadat) Scrape(ctx context.Context) ([]model.RawRecord, error) {
	var records []model.RawRecord
	fetched := 0

	for page := 1; page <= s.maxPages; page++ {
		url := alonhadatSearch
		if page > 1 {
			url = strings.Replace(alonhadatSearch, ".html", fmt.Sprintf("/trang-%d.html", page), 1)
		}

		body, err := s.fetcher.Fetch(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return records, ctx.Err()
			}
			zap.L().Warn("alonhadat: page fetch failed", zap.String("url", url), zap.Error(err))
			continue
		}
		fetched++

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			zap.L().Warn("alonhadat: parse failed", zap.String("url", url), zap.Error(err))
			continue
		}

		doc.Find(".content-item, .property-item, .item-listing").Each(func(_ int, item *goquery.Selection) {
			if r, ok := s.parseItem(item); ok {
				records = append(records, r)
			}
		})
	}

	if fetched == 0 {
		return nil, eris.New("alonhadat: no pages reachable")
	}
	return records, nil
}

func (s *Alonhadat) parseItem(item *goquery.Selection) (model.RawRecord, bool) {
	name := firstText(item, ".title, h3 a, .ct_title")
	address := firstText(item, ".address, .ct_add, [class*='address']")
	if name == "" && address == "" {
		return model.RawRecord{}, false
	}

	return model.RawRecord{
		Name:      truncate(name, model.MaxNameLen),
		Address:   address,
		Price:     parsePriceVND(firstText(item, ".price, .ct_price, [class*='price']")),
		Area:      parseAreaM2(firstText(item, ".area, .ct_dt, [class*='area']")),
		SourceURL: itemLink(item, alonhadatBase),
	}, true
}
