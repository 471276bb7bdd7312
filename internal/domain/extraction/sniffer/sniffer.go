// Package sniffer detects the shape of delimited statement exports: the
// field delimiter, the header row (which banks often bury under metadata
// lines), and a fingerprint that identifies a provider's layout.
package sniffer

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"unicode"
)

// Header keywords common to UK bank and creditor statement exports.
var headerKeywords = []string{
	"date", "transaction date", "process date", "posting date",
	"description", "transaction details", "details", "narrative", "reference",
	"amount", "debit", "credit", "balance", "money in", "money out",
	"paid in", "paid out", "payment type", "merchant",
}

var (
	ErrEmptyFile        = errors.New("file is empty")
	ErrNoHeadersFound   = errors.New("could not find data headers")
	ErrInvalidDelimiter = errors.New("could not detect valid delimiter")
)

// FileConfig holds the detected configuration for a delimited file.
type FileConfig struct {
	Delimiter   rune       // ',', ';', '\t' or '|'
	SkipLines   int        // metadata lines before the header row
	Headers     []string   // detected header names, trimmed
	Fingerprint string     // SHA-256 of normalized headers
	SampleRows  [][]string // first data rows, for role detection and preview
}

// DetectOptions overrides header row or delimiter detection.
type DetectOptions struct {
	// HeaderRowIndex is a 0-based header row index; -1 auto-detects.
	HeaderRowIndex int
	// Delimiter overrides detection when non-zero.
	Delimiter rune
}

const (
	maxHeaderSearchLines = 20
	maxSampleRows        = 10
)

// DetectConfig analyzes a delimited file and returns its configuration.
func DetectConfig(data []byte) (*FileConfig, error) {
	return DetectConfigWithOptions(data, nil)
}

// DetectConfigWithOptions analyzes a delimited file with optional overrides.
func DetectConfigWithOptions(data []byte, opts *DetectOptions) (*FileConfig, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	lines := strings.Split(string(data), "\n")

	var (
		delimiter rune
		skipLines int
		err       error
	)
	if opts != nil && opts.HeaderRowIndex >= 0 {
		if opts.HeaderRowIndex >= len(lines) {
			return nil, ErrNoHeadersFound
		}
		skipLines = opts.HeaderRowIndex
		delimiter = opts.Delimiter
		if delimiter == 0 {
			line := cleanLine(lines[skipLines], skipLines == 0)
			delimiter, _ = detectDelimiter(line)
			if delimiter == 0 {
				return nil, ErrInvalidDelimiter
			}
		}
	} else {
		delimiter, skipLines, err = findHeaderRow(lines)
		if err != nil {
			return nil, err
		}
	}

	headerLine := cleanLine(lines[skipLines], skipLines == 0)
	reader := csv.NewReader(strings.NewReader(headerLine))
	reader.Comma = delimiter
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		return nil, err
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	return &FileConfig{
		Delimiter:   delimiter,
		SkipLines:   skipLines,
		Headers:     headers,
		Fingerprint: Fingerprint(headers),
		SampleRows:  sampleRows(data, delimiter, skipLines+1, maxSampleRows),
	}, nil
}

// LooksLikeHeader reports whether a row of cells reads like a statement
// header: at least two populated cells, one of which carries a known header
// keyword. Used by the spreadsheet parsers, which get cell rows for free.
func LooksLikeHeader(cells []string) bool {
	populated := 0
	keyword := false
	for _, c := range cells {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		populated++
		for _, kw := range headerKeywords {
			if strings.Contains(c, kw) {
				keyword = true
				break
			}
		}
	}
	return populated >= 2 && keyword
}

// findHeaderRow locates the header row and its delimiter. Lines containing
// statement header keywords win over plain wide lines; the widest
// keyword-free line is kept as a fallback for unrecognized layouts.
func findHeaderRow(lines []string) (rune, int, error) {
	fallbackIndex, fallbackCount := -1, 0
	fallbackDelimiter := rune(0)

	keywordIndex, keywordScore, keywordCount := -1, 0, 0
	keywordDelimiter := rune(0)

	for i, line := range lines {
		if i >= maxHeaderSearchLines {
			break
		}
		line = cleanLine(line, i == 0)
		if line == "" {
			continue
		}
		lineLower := strings.ToLower(line)

		delimiter, count := detectDelimiter(line)
		if count < 1 {
			continue
		}

		matches := 0
		for _, kw := range headerKeywords {
			if strings.Contains(lineLower, kw) {
				matches++
			}
		}

		if matches > 0 {
			// Wide keyword rows beat narrow ones: metadata lines mention
			// "balance" too, but real headers have several columns.
			score := count*10 + matches
			if score > keywordScore {
				keywordScore = score
				keywordCount = count
				keywordDelimiter = delimiter
				keywordIndex = i
			}
		} else if count > fallbackCount {
			fallbackCount = count
			fallbackDelimiter = delimiter
			fallbackIndex = i
		}
	}

	if keywordIndex >= 0 && keywordCount >= 1 {
		return keywordDelimiter, keywordIndex, nil
	}
	if fallbackCount >= 2 {
		return fallbackDelimiter, fallbackIndex, nil
	}
	return 0, 0, ErrNoHeadersFound
}

func cleanLine(line string, firstLine bool) string {
	line = strings.TrimRight(line, "\r")
	if firstLine {
		line = strings.TrimPrefix(line, "\uFEFF")
	}
	return strings.TrimSpace(line)
}

func detectDelimiter(line string) (rune, int) {
	best := rune(0)
	bestCount := 0
	for _, d := range []rune{',', ';', '\t', '|'} {
		if count := strings.Count(line, string(d)); count > bestCount {
			bestCount = count
			best = d
		}
	}
	return best, bestCount
}

// Fingerprint hashes normalized header names so a provider's layout can be
// recognized across uploads regardless of casing or punctuation.
func Fingerprint(headers []string) string {
	var normalized []string
	for _, h := range headers {
		clean := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToLower(r)
			}
			return -1
		}, h)
		if clean != "" {
			normalized = append(normalized, clean)
		}
	}
	sum := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(sum[:])
}

// sampleRows reads data rows starting at a physical line index. The file is
// re-split by line first: csv.Reader drops blank lines, which would skew the
// index against the header position found by findHeaderRow.
func sampleRows(data []byte, delimiter rune, startLine, maxRows int) [][]string {
	lines := strings.Split(string(data), "\n")
	if startLine >= len(lines) {
		return nil
	}

	reader := csv.NewReader(bytes.NewReader([]byte(strings.Join(lines[startLine:], "\n"))))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		rows = append(rows, record)
		if len(rows) >= maxRows {
			break
		}
	}
	return rows
}
