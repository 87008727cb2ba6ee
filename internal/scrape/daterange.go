package scrape

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"chartscraper/internal/browser"
	"chartscraper/internal/chart"
	"chartscraper/internal/domain"
	"chartscraper/internal/export"
)

// DefaultMarkets is the pre-declared column set of the range table. Markets
// observed on some dates but not others are null-filled so the final table
// is rectangular across the whole run.
var DefaultMarkets = []string{
	"Global", "US", "PH", "GB", "CA", "ID", "AU", "MY", "IE", "SG", "NO",
	"AR", "NZ", "CL", "AE", "PE", "PT", "NL", "SE", "FI", "CR",
}

// ResolveWindow fetches the site's published index of chart dates and
// intersects it with the caller's bounds. The result is immutable for the
// rest of the run.
func (s *Scraper) ResolveWindow(ctx context.Context, start, end time.Time) (*domain.DateWindow, error) {
	available, err := s.availableDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover available dates: %w", err)
	}

	window := &domain.DateWindow{Start: start, End: end}
	for _, d := range available {
		if !d.Before(start) && !d.After(end) {
			window.Dates = append(window.Dates, d)
		}
	}
	return window, nil
}

func (s *Scraper) availableDates(ctx context.Context) ([]time.Time, error) {
	if s.redis != nil {
		if cached, err := s.redis.GetDateIndex(ctx); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	if err := s.browser.Navigate(ctx, s.cfg.BaseURL+"/"); err != nil {
		return nil, err
	}

	indexChain := []browser.Strategy{
		{By: browser.ByCSS, Value: "table", Visible: false},
	}
	if _, ok := s.browser.Resolve(ctx, indexChain, time.Duration(s.cfg.LocatorTimeout)*time.Second); !ok {
		return nil, ErrLocatorExhausted
	}

	html, err := s.browser.PageHTML(ctx)
	if err != nil {
		return nil, err
	}
	dates, err := chart.ParseDateIndex(html)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if err := s.redis.SetDateIndex(ctx, dates); err != nil {
			s.logger.Warn("failed to cache date index", zap.Error(err))
		}
	}
	return dates, nil
}

// ScrapeRange walks every published chart date inside [start, end] in
// ascending order, persisting a raw per-date snapshot after each success so
// a partial run stays salvageable. A single bad date is logged and skipped;
// the run only fails when nothing at all was scraped.
func (s *Scraper) ScrapeRange(ctx context.Context, start, end time.Time) (*domain.RangeTable, error) {
	window, err := s.ResolveWindow(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if len(window.Dates) == 0 {
		return nil, ErrNoDatesInRange
	}

	var batches []*domain.ChartBatch
	skipped := 0
	for _, date := range window.Dates {
		dateStr := date.Format(domain.ChartDateFormat)
		job := PageJob{
			URL:       fmt.Sprintf("%s/weekly/%s.html", s.cfg.BaseURL, dateStr),
			ChartDate: dateStr,
			Table:     rangeTableStrategies(),
		}

		batch, _, err := s.driver.Run(ctx, job)
		if err != nil {
			skipped++
			s.logger.Error("chart date skipped",
				zap.String("chart_date", dateStr),
				zap.Error(err),
			)
			continue
		}

		if err := s.writeSnapshot(date, batch); err != nil {
			s.logger.Warn("snapshot write failed",
				zap.String("chart_date", dateStr),
				zap.Error(err),
			)
		}
		batches = append(batches, batch)
	}

	if len(batches) == 0 {
		return nil, fmt.Errorf("%w (%d dates attempted)", ErrNoDataScraped, len(window.Dates))
	}
	if skipped > 0 {
		s.logger.Warn("range completed with gaps",
			zap.Int("scraped", len(batches)),
			zap.Int("skipped", skipped),
		)
	}
	return MergeBatches(batches, DefaultMarkets), nil
}

// writeSnapshot persists one raw per-date batch before aggregation
// continues, named deterministically from the date.
func (s *Scraper) writeSnapshot(date time.Time, batch *domain.ChartBatch) error {
	name := fmt.Sprintf("chart_%s.csv", date.Format(domain.SnapshotDateFormat))
	return export.WriteBatchCSV(filepath.Join(s.cfg.SnapshotDir, name), batch)
}

// MergeBatches folds per-date batches into one rectangular table. Columns
// are the declared markets followed by any extra market observed in a
// batch; every row carries every column, nil where the source batch had no
// such market.
func MergeBatches(batches []*domain.ChartBatch, declared []string) *domain.RangeTable {
	markets := make([]string, 0, len(declared))
	seen := make(map[string]bool, len(declared))
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			markets = append(markets, name)
		}
	}
	for _, m := range declared {
		add(m)
	}
	for _, b := range batches {
		for _, col := range b.Schema {
			if chart.IsMarketColumn(col) {
				add(col)
			}
		}
	}

	table := &domain.RangeTable{Markets: markets}
	for _, b := range batches {
		for _, row := range b.Rows {
			streams := make(map[string]*int64, len(markets))
			for _, m := range markets {
				streams[m] = row.Streams[m] // absent -> nil
			}
			table.Rows = append(table.Rows, domain.RangeRow{
				ChartDate: b.ChartDate,
				Streams:   streams,
			})
		}
	}
	return table
}

// rangeTableStrategies: weekly chart pages render a single sortable chart
// table; the qualified variants guard against navigation or ad tables
// appearing first.
func rangeTableStrategies() []browser.Strategy {
	return []browser.Strategy{
		{By: browser.ByXPath, Value: "//table[.//th[contains(text(), 'Artist')]]", Visible: true},
		{By: browser.ByCSS, Value: "table.sortable", Visible: true},
		{By: browser.ByCSS, Value: "table", Visible: false},
	}
}
