package sources

import (
	"fmt"
	"path/filepath"

	"github.com/dvloznov/statement-analyzer/internal/domain"
	"github.com/dvloznov/statement-analyzer/internal/tabular"
	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// ReadWorkbook reads the first sheet of an xlsx or xls workbook. Its first
// row is the header.
func ReadWorkbook(path string, kind Kind) (tabular.Table, error) {
	var (
		sheet string
		grid  [][]string
		err   error
	)
	switch kind {
	case KindXLSX:
		sheet, grid, err = readXLSX(path)
	case KindXLS:
		sheet, grid, err = readXLS(path)
	default:
		return tabular.Table{}, fmt.Errorf("ReadWorkbook: unsupported kind %q", kind)
	}
	if err != nil {
		return tabular.Table{}, domain.UnreadableSource(err, "Error reading file")
	}

	t := tabular.Table{Name: filepath.Base(path)}
	if sheet != "" {
		t.Name += ":" + sheet
	}
	if len(grid) > 0 {
		t.Header = grid[0]
		t.Rows = grid[1:]
	}
	return t, nil
}

func readXLSX(path string) (string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("readXLSX: opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return "", nil, fmt.Errorf("readXLSX: reading sheet %q: %w", sheets[0], err)
	}
	return sheets[0], rows, nil
}

func readXLS(path string) (string, [][]string, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return "", nil, fmt.Errorf("readXLS: opening workbook: %w", err)
	}
	if wb.NumSheets() == 0 {
		return "", nil, nil
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return "", nil, nil
	}

	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			// Missing rows keep their position so row numbers in warnings stay true.
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for c := 0; c < row.LastCol(); c++ {
			cells = append(cells, row.Col(c))
		}
		rows = append(rows, cells)
	}

	// A sheet with no rows still reports MaxRow 0.
	for len(rows) > 0 && len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}
	return sheet.Name, rows, nil
}
