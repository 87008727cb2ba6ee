// Package chart parses chart tables and index pages out of captured HTML.
// All parsing runs against static snapshots taken from the browser session,
// so a re-render between capture and parse cannot invalidate an extraction.
package chart

import (
	"errors"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"chartscraper/internal/domain"
)

var (
	// ErrMissingHeaders means a table was found but carried no header row,
	// usually page-structure drift. Retryable.
	ErrMissingHeaders = errors.New("chart table has no header row")

	// ErrEmptyTable means headers were read but zero valid data rows
	// survived filtering, often a transient render delay. Retryable.
	ErrEmptyTable = errors.New("chart table has no data rows")
)

// sentinel rows mixed into the time series.
var aggregateLabels = map[string]bool{
	"total": true,
	"peak":  true,
}

// ParseTable extracts a ChartBatch from a table's outer HTML.
//
// Header cells define the schema and the index every data cell maps to. A
// row is accepted only when its cell count equals the header count; ragged
// rows are dropped and counted, never partially populated. Aggregate rows
// (Total, Peak) are ordered first, followed by dated rows strictly
// descending.
func ParseTable(html, chartDate string) (*domain.ChartBatch, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var schema domain.TableSchema
	doc.Find("th").Each(func(_ int, s *goquery.Selection) {
		schema = append(schema, strings.TrimSpace(s.Text()))
	})
	if len(schema) == 0 {
		return nil, ErrMissingHeaders
	}

	numeric := numericColumns(schema)
	dateIdx := schema.Index("Date")

	batch := &domain.ChartBatch{ChartDate: chartDate, Schema: schema}

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return // header row
		}
		if cells.Length() != len(schema) {
			batch.DroppedRows++
			return
		}

		streams := make(map[string]*int64, len(numeric))
		var date string
		cells.Each(func(i int, cell *goquery.Selection) {
			text := cellText(cell)
			// Without a Date column the first cell (chart position) serves
			// as the row label; snapshot exports key rows on it.
			if i == dateIdx || (dateIdx < 0 && i == 0) {
				date = NormalizeDate(text)
			}
			if numeric[schema[i]] {
				streams[schema[i]] = ParseStreamCount(text)
			}
		})

		kind := domain.RowDated
		if aggregateLabels[strings.ToLower(date)] {
			kind = domain.RowAggregate
		}
		batch.Rows = append(batch.Rows, domain.ChartRow{
			Date:    date,
			Kind:    kind,
			Streams: streams,
		})
	})

	if len(batch.Rows) == 0 {
		return nil, ErrEmptyTable
	}

	// Range pages carry no Date column; their rows keep page order.
	if dateIdx >= 0 {
		orderRows(batch.Rows)
	}
	return batch, nil
}

// orderRows puts aggregate rows first, then dated rows descending. The
// chart date layout (YYYY/MM/DD) sorts correctly as a string.
func orderRows(rows []domain.ChartRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Kind != b.Kind {
			return a.Kind == domain.RowAggregate
		}
		if a.Kind == domain.RowAggregate {
			return false // keep encounter order
		}
		return a.Date > b.Date
	})
}

// numericColumns decides which schema columns hold stream counts. Market
// columns are Global plus short all-caps country codes; everything else
// (Date, Pos, Wks, artist/title columns) is identity text.
func numericColumns(schema domain.TableSchema) map[string]bool {
	out := make(map[string]bool, len(schema))
	for _, col := range schema {
		out[col] = IsMarketColumn(col)
	}
	return out
}

// IsMarketColumn reports whether a column name identifies a streaming
// market.
func IsMarketColumn(name string) bool {
	if name == "Global" {
		return true
	}
	if len(name) < 2 || len(name) > 3 {
		return false
	}
	for _, r := range name {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// cellText reads a cell's value, preferring a nested span/div over the raw
// cell text. Some view modes wrap the real value in an inner tag alongside
// decoration.
func cellText(cell *goquery.Selection) string {
	if inner := cell.Find("span, div").First(); inner.Length() > 0 {
		if text := strings.TrimSpace(inner.Text()); text != "" {
			return text
		}
	}
	return strings.TrimSpace(cell.Text())
}
