package chart

import (
	"strconv"
	"strings"
	"time"

	"chartscraper/internal/domain"
)

// ParseStreamCount parses a stream-count cell. Thousands separators are
// stripped; the placeholder dash and the empty string yield nil, meaning
// "no data for this market" rather than zero streams.
func ParseStreamCount(text string) *int64 {
	text = strings.TrimSpace(text)
	if text == "" || text == "--" {
		return nil
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(text, ",", ""), 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// NormalizeDate re-renders a chart date in the site's YYYY/MM/DD layout.
// Text that is not a date (Total, Peak) passes through unchanged.
func NormalizeDate(text string) string {
	text = strings.TrimSpace(text)
	t, err := time.Parse(domain.ChartDateFormat, text)
	if err != nil {
		return text
	}
	return t.Format(domain.ChartDateFormat)
}
