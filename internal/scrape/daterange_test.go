package scrape

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"chartscraper/internal/browser"
	"chartscraper/internal/domain"
	"chartscraper/internal/insight"
)

const dateIndexHTML = `
<html><body><table>
  <tr><td><a href="weekly/2024_01_05.html">2024/01/05</a></td></tr>
  <tr><td><a href="weekly/2024_01_06.html">2024/01/06</a></td></tr>
  <tr><td><a href="weekly/2024_01_07.html">2024/01/07</a></td></tr>
</table></body></html>`

const weeklyTableHTML = `
<table class="sortable">
  <tr><th>Pos</th><th>Artist and Title</th><th>Global</th><th>US</th></tr>
  <tr><td>1</td><td>A - One</td><td>5,000</td><td>2,000</td></tr>
  <tr><td>2</td><td>B - Two</td><td>4,000</td><td>--</td></tr>
</table>`

func newTestScraper(t *testing.T, fake *fakeBrowser) *Scraper {
	t.Helper()
	logger := zap.NewNop()
	return NewScraper(testConfig(t), fake, nil, nil, insight.New("", logger), testMetrics, logger)
}

// indexFake scripts a landing page that publishes three chart dates and
// serves a weekly table for every date URL. failDates lists date strings
// whose pages never yield a usable table.
func indexFake(failDates ...string) *fakeBrowser {
	fake := &fakeBrowser{}
	failing := func(url string) bool {
		for _, d := range failDates {
			if strings.Contains(url, d) {
				return true
			}
		}
		return false
	}
	fake.pageHTML = func() (string, error) {
		if strings.Contains(fake.lastURL, "/weekly/") {
			return "<html><body>weekly chart</body></html>", nil
		}
		return dateIndexHTML, nil
	}
	fake.outerHTML = func(browser.Match) (string, error) {
		if failing(fake.lastURL) {
			return headerlessTableHTML, nil
		}
		return weeklyTableHTML, nil
	}
	return fake
}

func TestResolveWindowIntersectsBounds(t *testing.T) {
	s := newTestScraper(t, indexFake())

	start := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)
	window, err := s.ResolveWindow(context.Background(), start, end)
	if err != nil {
		t.Fatalf("ResolveWindow() error = %v", err)
	}

	if len(window.Dates) != 2 {
		t.Fatalf("window holds %d dates, want 2", len(window.Dates))
	}
	if got := window.Dates[0].Format(domain.ChartDateFormat); got != "2024/01/06" {
		t.Errorf("first date = %s, want 2024/01/06", got)
	}
	if got := window.Dates[1].Format(domain.ChartDateFormat); got != "2024/01/07" {
		t.Errorf("second date = %s, want 2024/01/07", got)
	}
}

func TestScrapeRangeSkipsFailedDateAndContinues(t *testing.T) {
	fake := indexFake("2024/01/06")
	s := newTestScraper(t, fake)

	start := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	table, err := s.ScrapeRange(context.Background(), start, end)
	if err != nil {
		t.Fatalf("ScrapeRange() error = %v", err)
	}

	// Two surviving dates, two rows each.
	if len(table.Rows) != 4 {
		t.Errorf("merged rows = %d, want 4", len(table.Rows))
	}
	dates := map[string]bool{}
	for _, row := range table.Rows {
		dates[row.ChartDate] = true
	}
	if dates["2024/01/06"] {
		t.Error("failed date leaked into the merged table")
	}
	if !dates["2024/01/05"] || !dates["2024/01/07"] {
		t.Errorf("surviving dates = %v, want 2024/01/05 and 2024/01/07", dates)
	}
}

func TestScrapeRangeWritesPerDateSnapshots(t *testing.T) {
	fake := indexFake()
	s := newTestScraper(t, fake)

	start := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	if _, err := s.ScrapeRange(context.Background(), start, end); err != nil {
		t.Fatalf("ScrapeRange() error = %v", err)
	}

	for _, name := range []string{"chart_2024-01-05.csv", "chart_2024-01-06.csv", "chart_2024-01-07.csv"} {
		if _, err := os.Stat(filepath.Join(s.cfg.SnapshotDir, name)); err != nil {
			t.Errorf("snapshot %s missing: %v", name, err)
		}
	}
}

func TestScrapeRangeNoDatesInWindow(t *testing.T) {
	s := newTestScraper(t, indexFake())

	start := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC)
	_, err := s.ScrapeRange(context.Background(), start, end)
	if !errors.Is(err, ErrNoDatesInRange) {
		t.Errorf("ScrapeRange() error = %v, want ErrNoDatesInRange", err)
	}
}

func TestScrapeRangeAllDatesFail(t *testing.T) {
	fake := indexFake("2024/01/05", "2024/01/06", "2024/01/07")
	s := newTestScraper(t, fake)

	start := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	_, err := s.ScrapeRange(context.Background(), start, end)
	if !errors.Is(err, ErrNoDataScraped) {
		t.Errorf("ScrapeRange() error = %v, want ErrNoDataScraped", err)
	}
}

func TestMergeBatchesRectangular(t *testing.T) {
	n := func(v int64) *int64 { return &v }
	batches := []*domain.ChartBatch{
		{
			ChartDate: "2024/01/05",
			Schema:    domain.TableSchema{"Pos", "Global", "US"},
			Rows: []domain.ChartRow{
				{Date: "1", Kind: domain.RowDated, Streams: map[string]*int64{"Global": n(100), "US": n(40)}},
			},
		},
		{
			ChartDate: "2024/01/06",
			Schema:    domain.TableSchema{"Pos", "Global", "XK"},
			Rows: []domain.ChartRow{
				{Date: "1", Kind: domain.RowDated, Streams: map[string]*int64{"Global": n(90), "XK": n(5)}},
			},
		},
	}

	table := MergeBatches(batches, []string{"Global", "US", "GB"})

	want := []string{"Global", "US", "GB", "XK"}
	if len(table.Markets) != len(want) {
		t.Fatalf("markets = %v, want %v", table.Markets, want)
	}
	for i, m := range want {
		if table.Markets[i] != m {
			t.Fatalf("markets = %v, want %v", table.Markets, want)
		}
	}

	for _, row := range table.Rows {
		for _, m := range table.Markets {
			if _, ok := row.Streams[m]; !ok {
				t.Errorf("row %s missing column %s", row.ChartDate, m)
			}
		}
	}

	first := table.Rows[0]
	if first.Streams["GB"] != nil {
		t.Error("undeclared-for-date market should be nil, not zero")
	}
	if first.Streams["XK"] != nil {
		t.Error("market observed only on another date should be nil here")
	}
	second := table.Rows[1]
	if second.Streams["US"] != nil {
		t.Error("US should be nil on the date that never reported it")
	}
	if got := second.Streams["XK"]; got == nil || *got != 5 {
		t.Errorf("XK = %v, want 5", got)
	}
}
