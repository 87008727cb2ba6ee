package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"chartscraper/internal/domain"
)

// WriteExcel writes the range table to a single-sheet workbook. Null cells
// are left blank rather than written as zero.
func WriteExcel(path string, table *domain.RangeTable) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Sheet1"

	header := append([]string{"chart_date"}, table.Markets...)
	for col, name := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("excel header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return fmt.Errorf("write excel header: %w", err)
		}
	}

	for i, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("excel cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, row.ChartDate); err != nil {
			return fmt.Errorf("write excel date: %w", err)
		}
		for j, market := range table.Markets {
			v := row.Streams[market]
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+2, i+2)
			if err != nil {
				return fmt.Errorf("excel cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, *v); err != nil {
				return fmt.Errorf("write excel value: %w", err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save excel file: %w", err)
	}
	return nil
}
