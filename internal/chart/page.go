package chart

import (
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"chartscraper/internal/domain"
)

// ParseDateIndex reads the published chart dates out of a landing page: any
// anchor whose text parses as a chart date counts. Returns the dates in
// ascending order.
func ParseDateIndex(html string) ([]time.Time, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var dates []time.Time
	doc.Find("table a").Each(func(_ int, a *goquery.Selection) {
		t, err := time.Parse(domain.ChartDateFormat, strings.TrimSpace(a.Text()))
		if err != nil {
			return
		}
		dates = append(dates, t)
	})

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// ParseTrackIdentity pulls the song and artist names out of a track page's
// chrome. Track pages title themselves "Artist - Song", with trailing site
// branding after a separator.
func ParseTrackIdentity(html string) (song, artist string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", ""
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		// Fall back to the page heading.
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		return "", ""
	}

	// Drop site branding ("... - Spotify Chart History" and similar).
	for _, brand := range []string{" | ", " — Spotify", " - Spotify"} {
		if i := strings.Index(title, brand); i > 0 {
			title = title[:i]
		}
	}

	for _, sep := range []string{" – ", " - "} {
		if parts := strings.SplitN(title, sep, 2); len(parts) == 2 {
			return strings.TrimSpace(parts[1]), strings.TrimSpace(parts[0])
		}
	}
	return title, ""
}
