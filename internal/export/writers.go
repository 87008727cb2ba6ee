// Package export writes chart tables to the supported sink formats. It is
// deliberately mechanical: the scrape layer hands it finished rectangular
// data and a format name.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"chartscraper/internal/chart"
	"chartscraper/internal/domain"
)

// WriteTable writes a range table to basePath with the extension chosen by
// format. Supported formats: csv, json, excel, parquet.
func WriteTable(table *domain.RangeTable, format, basePath string) error {
	switch format {
	case "csv":
		return WriteCSV(basePath+".csv", table)
	case "json":
		return WriteJSON(basePath+".jsonl", table)
	case "excel":
		return WriteExcel(basePath+".xlsx", table)
	case "parquet":
		return WriteParquet(basePath+".parquet", table)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// WriteCSV writes the rectangular range table. Null cells stay empty; an
// empty cell means the market had no data for that date, not zero streams.
func WriteCSV(path string, table *domain.RangeTable) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"chart_date"}, table.Markets...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(header))
	for _, row := range table.Rows {
		record[0] = row.ChartDate
		for i, market := range table.Markets {
			record[i+1] = formatCount(row.Streams[market])
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// WriteJSON writes newline-delimited JSON records; null markets marshal as
// JSON null.
func WriteJSON(path string, table *domain.RangeTable) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, row := range table.Rows {
		record := make(map[string]any, len(table.Markets)+1)
		record["chart_date"] = row.ChartDate
		for _, market := range table.Markets {
			record[market] = row.Streams[market]
		}
		if err := enc.Encode(record); err != nil {
			return fmt.Errorf("encode json record: %w", err)
		}
	}
	return nil
}

// WriteBatchCSV persists one per-date batch as a raw snapshot: the date
// column first, then the batch's market columns in schema order.
func WriteBatchCSV(path string, batch *domain.ChartBatch) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer f.Close()

	markets := batchMarkets(batch)

	w := csv.NewWriter(f)
	header := append([]string{"date"}, markets...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write snapshot header: %w", err)
	}

	record := make([]string, len(header))
	for _, row := range batch.Rows {
		record[0] = row.Date
		for i, market := range markets {
			record[i+1] = formatCount(row.Streams[market])
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write snapshot record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush snapshot records: %w", err)
	}
	return nil
}

// WriteTrackCSV exports a single-track history with the identity columns
// the per-track table carries.
func WriteTrackCSV(path string, history *domain.TrackHistory) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create track file: %w", err)
	}
	defer f.Close()

	markets := batchMarkets(history.Batch)

	w := csv.NewWriter(f)
	header := append([]string{"date"}, markets...)
	header = append(header, "song_name", "artist_name")
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write track header: %w", err)
	}

	for _, row := range history.Batch.Rows {
		record := make([]string, 0, len(header))
		record = append(record, row.Date)
		for _, market := range markets {
			record = append(record, formatCount(row.Streams[market]))
		}
		record = append(record, history.SongName, history.ArtistName)
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write track record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush track records: %w", err)
	}
	return nil
}

// WriteText writes a plain-text artifact (insight summaries).
func WriteText(path, content string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func batchMarkets(batch *domain.ChartBatch) []string {
	var markets []string
	for _, col := range batch.Schema {
		if chart.IsMarketColumn(col) {
			markets = append(markets, col)
		}
	}
	return markets
}

func formatCount(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
