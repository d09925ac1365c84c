package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/office-atlas/atlas-cli/internal/fetcher"
	"github.com/office-atlas/atlas-cli/internal/model"
)

const (
	chototBase   = "https://www.chotot.com"
	chototSearch = chototBase + "/da-nang/van-phong-cho-thue"
)

// maxAdWalkDepth bounds the recursive search through the embedded Next.js
// payload, which nests arbitrarily.
const maxAdWalkDepth = 10

// Chotot scrapes chotot.com through the ad payload embedded in the page's
// __NEXT_DATA__ script. Ads there carry coordinates directly, so these
// records usually skip geocoding entirely.
type Chotot struct {
	fetcher  fetcher.Fetcher
	maxPages int
}

// NewChotot creates the chotot.com adapter.
func NewChotot(f fetcher.Fetcher, maxPages int) *Chotot {
	if maxPages <= 0 {
		maxPages = 3
	}
	return &Chotot{fetcher: f, maxPages: maxPages}
}

// Name implements Source.
func (s *Chotot) Name() model.SourceID { return "chotot.com" }

// Scrape implements Source.
func (s *Chotot) Scrape(ctx context.Context) ([]model.RawRecord, error) {
	var records []model.RawRecord
	fetched := 0

	for page := 1; page <= s.maxPages; page++ {
		url := chototSearch
		if page > 1 {
			url = fmt.Sprintf("%s?page=%d", chototSearch, page)
		}

		body, err := s.fetcher.Fetch(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return records, ctx.Err()
			}
			zap.L().Warn("chotot: page fetch failed", zap.String("url", url), zap.Error(err))
			continue
		}
		fetched++

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			zap.L().Warn("chotot: parse failed", zap.String("url", url), zap.Error(err))
			continue
		}

		doc.Find("script#__NEXT_DATA__, script[type='application/json']").Each(func(_ int, script *goquery.Selection) {
			var payload any
			if err := json.Unmarshal([]byte(script.Text()), &payload); err != nil {
				return
			}
			records = append(records, collectAds(payload, 0)...)
		})
	}

	if fetched == 0 {
		return nil, eris.New("chotot: no pages reachable")
	}
	return records, nil
}

// collectAds walks the decoded payload for ad objects, recognized by a
// list_id next to a subject or body.
func collectAds(node any, depth int) []model.RawRecord {
	if depth > maxAdWalkDepth {
		return nil
	}

	var records []model.RawRecord
	switch v := node.(type) {
	case map[string]any:
		_, hasID := v["list_id"]
		_, hasSubject := v["subject"]
		_, hasBody := v["body"]
		if hasID && (hasSubject || hasBody) {
			if r, ok := adToRecord(v); ok {
				records = append(records, r)
			}
		}
		for _, child := range v {
			records = append(records, collectAds(child, depth+1)...)
		}
	case []any:
		for _, child := range v {
			records = append(records, collectAds(child, depth+1)...)
		}
	}
	return records
}

func adToRecord(ad map[string]any) (model.RawRecord, bool) {
	name := jsonString(ad["subject"])
	if name == "" {
		name = jsonString(ad["body"])
	}
	if name == "" {
		return model.RawRecord{}, false
	}

	address := jsonString(ad["address"])
	if address == "" {
		address = jsonString(ad["area_name"])
	}

	r := model.RawRecord{
		Name:      truncate(name, model.MaxNameLen),
		Address:   address,
		Area:      jsonFloat(ad["size"]),
		Latitude:  jsonFloat(ad["latitude"]),
		Longitude: jsonFloat(ad["longitude"]),
	}

	switch price := ad["price"].(type) {
	case float64:
		n := int64(price)
		r.Price = &n
	case string:
		r.Price = parsePriceVND(price)
	default:
		r.Price = parsePriceVND(jsonString(ad["price_string"]))
	}

	if id := jsonString(ad["list_id"]); id != "" {
		r.SourceURL = fmt.Sprintf("%s/%s.htm", chototBase, id)
	} else if id := jsonFloat(ad["list_id"]); id != nil {
		r.SourceURL = fmt.Sprintf("%s/%.0f.htm", chototBase, *id)
	}

	return r, true
}

func jsonString(v any) string {
	s, _ := v.(string)
	return s
}

func jsonFloat(v any) *float64 {
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	return &f
}
