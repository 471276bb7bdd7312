package parser

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"
)

// Legacy statement exports rarely exceed a few thousand rows; anything past
// this is almost certainly a damaged sheet reporting a bogus row count.
const maxXLSRows = 65536

// ParseXLS reads a legacy binary spreadsheet export into a Table. Several
// UK banks still offer only the old format for downloaded statements.
func ParseXLS(data []byte) (*Table, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	if wb.NumSheets() == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("workbook first sheet unreadable")
	}

	maxRow := int(sheet.MaxRow)
	if maxRow > maxXLSRows {
		maxRow = maxXLSRows
	}

	var rows [][]string
	for i := 0; i <= maxRow; i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for c := 0; c < row.LastCol(); c++ {
			cells = append(cells, row.Col(c))
		}
		rows = append(rows, cells)
	}

	return tableFromRows(rows)
}
