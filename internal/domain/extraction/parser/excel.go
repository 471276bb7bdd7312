package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/finatlas/statement-pipeline/internal/domain/extraction/sniffer"
)

// Sheet names that usually hold the transaction listing. Checked before
// falling back to the first sheet.
var preferredSheetNames = []string{"transactions", "statement", "activity"}

// ParseXLSX reads a modern spreadsheet export into a Table. The header row
// is located by keyword scan since banks frequently prepend account metadata
// rows above it.
func ParseXLSX(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet := pickSheet(f.GetSheetList())
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return tableFromRows(rows)
}

func pickSheet(sheets []string) string {
	if len(sheets) == 0 {
		return ""
	}
	for _, s := range sheets {
		lower := strings.ToLower(s)
		for _, want := range preferredSheetNames {
			if strings.Contains(lower, want) {
				return s
			}
		}
	}
	return sheets[0]
}

// tableFromRows locates the header row in raw cell rows and returns the data
// below it. Shared by the XLSX and XLS paths.
func tableFromRows(rows [][]string) (*Table, error) {
	headerIdx := -1
	for i, row := range rows {
		if i >= 20 {
			break
		}
		if sniffer.LooksLikeHeader(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, sniffer.ErrNoHeadersFound
	}

	headers := make([]string, len(rows[headerIdx]))
	for i, h := range rows[headerIdx] {
		headers[i] = strings.TrimSpace(h)
	}

	table := &Table{Headers: headers}
	for _, row := range rows[headerIdx+1:] {
		aligned := make([]string, len(headers))
		empty := true
		for i := range headers {
			if i < len(row) {
				aligned[i] = strings.TrimSpace(row[i])
			}
			if aligned[i] != "" {
				empty = false
			}
		}
		if !empty {
			table.Rows = append(table.Rows, aligned)
		}
	}
	return table, nil
}
