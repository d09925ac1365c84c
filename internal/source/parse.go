package source

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var (
	priceMillionRe = regexp.MustCompile(`([\d.]+)\s*(triệu|tr)`)
	digitsRe       = regexp.MustCompile(`(\d+)`)
	areaRe         = regexp.MustCompile(`([\d,.]+)\s*m`)
	dmyDateRe      = regexp.MustCompile(`(\d{2})/(\d{2})/(\d{4})`)
	daysAgoRe      = regexp.MustCompile(`(\d+)\s*ngày`)
	monthsAgoRe    = regexp.MustCompile(`(\d+)\s*tháng`)
)

// parsePriceVND parses Vietnamese price text into VND per month.
// Handles "50 triệu/tháng", "50tr" and plain "100.000.000" forms.
func parsePriceVND(text string) *int64 {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(strings.ToLower(text), ",", ".")
	text = strings.ReplaceAll(text, " ", "")

	if m := priceMillionRe.FindStringSubmatch(text); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			n := int64(v * 1_000_000)
			return &n
		}
	}

	// Fully written out amounts use dots as thousand separators.
	bare := strings.ReplaceAll(text, ".", "")
	if m := digitsRe.FindStringSubmatch(bare); m != nil && len(m[1]) > 6 {
		v, err := strconv.ParseInt(m[1], 10, 64)
		if err == nil {
			return &v
		}
	}
	return nil
}

// parseAreaM2 parses area text ("120 m²", "85,5m2") into square meters.
func parseAreaM2(text string) *float64 {
	if text == "" {
		return nil
	}
	m := areaRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return nil
	}
	return &v
}

// parsePostingDate parses Vietnamese posting-date text ("15/01/2025",
// "3 ngày trước", "2 tháng trước") into ISO YYYY-MM-DD relative to now.
func parsePostingDate(text string, now time.Time) string {
	if text == "" {
		return ""
	}
	if m := dmyDateRe.FindStringSubmatch(text); m != nil {
		return m[3] + "-" + m[2] + "-" + m[1]
	}
	if m := daysAgoRe.FindStringSubmatch(text); m != nil {
		days, _ := strconv.Atoi(m[1])
		return now.AddDate(0, 0, -days).Format(time.DateOnly)
	}
	if m := monthsAgoRe.FindStringSubmatch(text); m != nil {
		months, _ := strconv.Atoi(m[1])
		return now.AddDate(0, 0, -months*30).Format(time.DateOnly)
	}
	return ""
}

// firstText returns the trimmed text of the first selector that matches.
func firstText(s *goquery.Selection, selectors string) string {
	return strings.TrimSpace(s.Find(selectors).First().Text())
}

// itemLink returns the item's own href, or the first nested link, resolved
// against the site base URL.
func itemLink(s *goquery.Selection, baseURL string) string {
	link, ok := s.Attr("href")
	if !ok || link == "" {
		link, _ = s.Find("a[href]").First().Attr("href")
	}
	if link == "" {
		return ""
	}
	if !strings.HasPrefix(link, "http") {
		return baseURL + link
	}
	return link
}

// truncate bounds s at n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
