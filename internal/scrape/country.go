package scrape

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"chartscraper/internal/domain"
)

var countryCodePattern = regexp.MustCompile(`^[a-z]{2,3}$|^global$`)

// ParseCountryCode validates and lowercases a market code for use in a
// per-country chart URL.
func ParseCountryCode(input string) (string, error) {
	code := strings.ToLower(strings.TrimSpace(input))
	if !countryCodePattern.MatchString(code) {
		return "", fmt.Errorf("invalid country code %q", input)
	}
	return code, nil
}

// ScrapeCountry retrieves the daily or weekly chart for one market. These
// pages address the mode in the URL but some variants additionally expose a
// toggle, so the view navigator runs after load to make sure the requested
// mode is rendered.
func (s *Scraper) ScrapeCountry(ctx context.Context, country string, mode domain.ViewMode) (*domain.ChartBatch, error) {
	job := PageJob{
		URL:   fmt.Sprintf("%s/country/%s_%s.html", s.cfg.BaseURL, country, string(mode)),
		Mode:  mode,
		Table: rangeTableStrategies(),
	}

	batch, _, err := s.driver.Run(ctx, job)
	if err != nil {
		return nil, err
	}
	return batch, nil
}
