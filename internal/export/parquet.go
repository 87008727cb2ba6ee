package export

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"chartscraper/internal/domain"
)

// parquetRow flattens a range row for columnar storage. Markets with no
// data are absent from the map, preserving the null/zero distinction.
type parquetRow struct {
	ChartDate string           `parquet:"chart_date"`
	Streams   map[string]int64 `parquet:"streams"`
}

// WriteParquet writes the range table as a Parquet file.
func WriteParquet(path string, table *domain.RangeTable) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}
	defer f.Close()

	rows := make([]parquetRow, 0, len(table.Rows))
	for _, row := range table.Rows {
		streams := make(map[string]int64)
		for _, market := range table.Markets {
			if v := row.Streams[market]; v != nil {
				streams[market] = *v
			}
		}
		rows = append(rows, parquetRow{ChartDate: row.ChartDate, Streams: streams})
	}

	w := parquet.NewGenericWriter[parquetRow](f)
	if _, err := w.Write(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}
