// Package parser reads tabular statement files (CSV/TSV, XLSX, legacy XLS)
// into a uniform Table of header names and string cell rows. Role assignment
// and value parsing happen downstream; this package only deals in structure.
package parser

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/finatlas/statement-pipeline/internal/domain/extraction/sniffer"
)

// Table is the uniform output of the tabular parsers: an ordered header row
// and data rows aligned to it.
type Table struct {
	Headers []string
	Rows    [][]string
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int { return len(t.Rows) }

// Column returns the trimmed values of one column across all rows.
func (t *Table) Column(idx int) []string {
	var out []string
	for _, row := range t.Rows {
		if idx >= 0 && idx < len(row) {
			out = append(out, strings.TrimSpace(row[idx]))
		} else {
			out = append(out, "")
		}
	}
	return out
}

// Text renders the table as plain lines, headers first. Spreadsheet inputs
// have no raw text form, so downstream detection heuristics scan this
// instead of the file bytes.
func (t *Table) Text() string {
	var b strings.Builder
	b.WriteString(strings.Join(t.Headers, " "))
	for _, row := range t.Rows {
		b.WriteByte('\n')
		b.WriteString(strings.Join(row, " "))
	}
	return b.String()
}

// ParseCSV decodes a delimited export using the detected file configuration.
// Decoding is keyed by header name, so reordered provider layouts still land
// in the right fields. The reader is local to the call; concurrent parses do
// not share state.
func ParseCSV(data []byte, cfg *sniffer.FileConfig) (*Table, error) {
	lines := strings.Split(string(data), "\n")
	if cfg.SkipLines >= len(lines) {
		return nil, fmt.Errorf("header row %d beyond end of file", cfg.SkipLines)
	}
	body := strings.Join(lines[cfg.SkipLines:], "\n")

	r := csv.NewReader(strings.NewReader(body))
	r.Comma = cfg.Delimiter
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	records, err := gocsv.NewSimpleDecoderFromCSVReader(r).GetCSVRows()
	if err != nil {
		return nil, fmt.Errorf("decode csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no header row after %d skipped lines", cfg.SkipLines)
	}

	// The raw header row still carries any BOM and padding the sniffer
	// stripped when it built cfg.Headers; normalize the same way before
	// matching names.
	index := make(map[string]int, len(records[0]))
	for col, h := range records[0] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
		if _, taken := index[h]; !taken {
			index[h] = col
		}
	}

	table := &Table{Headers: cfg.Headers}
	for _, rec := range records[1:] {
		row := make([]string, len(cfg.Headers))
		empty := true
		for i, h := range cfg.Headers {
			if col, ok := index[h]; ok && col < len(rec) {
				row[i] = strings.TrimSpace(rec[col])
			}
			if row[i] != "" {
				empty = false
			}
		}
		if !empty {
			table.Rows = append(table.Rows, row)
		}
	}
	return table, nil
}
