package scrape

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"chartscraper/internal/browser"
	"chartscraper/internal/chart"
	"chartscraper/internal/domain"
)

var trackIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// ParseTrackID extracts a track identifier from a full URL, a URI-style
// reference, or a bare ID token.
func ParseTrackID(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("empty track reference")
	}

	if strings.HasPrefix(input, "spotify:track:") {
		input = strings.TrimPrefix(input, "spotify:track:")
	} else if i := strings.Index(input, "/track/"); i >= 0 {
		input = input[i+len("/track/"):]
		if j := strings.IndexAny(input, "?#"); j >= 0 {
			input = input[:j]
		}
		input = strings.TrimSuffix(input, ".html")
	}

	if !trackIDPattern.MatchString(input) {
		return "", fmt.Errorf("invalid track identifier %q", input)
	}
	return input, nil
}

// ScrapeTrack retrieves the streaming history table for one track and the
// song/artist identity from the page chrome.
func (s *Scraper) ScrapeTrack(ctx context.Context, trackID string) (*domain.TrackHistory, error) {
	job := PageJob{
		URL:          fmt.Sprintf("%s/track/%s.html", s.cfg.BaseURL, trackID),
		Table:        trackTableStrategies(),
		FallbackLink: streamsLinkStrategies(),
	}

	batch, pageHTML, err := s.driver.Run(ctx, job)
	if err != nil {
		return nil, err
	}

	song, artist := chart.ParseTrackIdentity(pageHTML)
	return &domain.TrackHistory{
		TrackID:    trackID,
		SongName:   song,
		ArtistName: artist,
		Batch:      batch,
	}, nil
}

// trackTableStrategies orders the observed renderings of the streams table
// from most to least specific: a header-qualified table beats the site's
// known table class beats any table at all.
func trackTableStrategies() []browser.Strategy {
	return []browser.Strategy{
		{By: browser.ByXPath, Value: "//table[.//th[contains(text(), 'Date')] and .//th[contains(text(), 'Global')]]", Visible: true},
		{By: browser.ByCSS, Value: "table.addpos.sortable", Visible: true},
		{By: browser.ByCSS, Value: "table", Visible: false},
	}
}

// streamsLinkStrategies locate the link that flips a track page to its
// streams view.
func streamsLinkStrategies() []browser.Strategy {
	return []browser.Strategy{
		{By: browser.ByXPath, Value: "//a[normalize-space()='Streams']", Visible: true},
		{By: browser.ByXPath, Value: "//a[contains(text(), 'Stream')]", Visible: true},
		{By: browser.ByCSS, Value: "a[href*='streams']", Visible: false},
	}
}
