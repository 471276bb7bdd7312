package table

import (
	"errors"
	"log/slog"
	"math"
	"regexp"
	"strings"

	"github.com/finatlas/statement-pipeline/internal/domain/extraction/columns"
	"github.com/finatlas/statement-pipeline/internal/domain/extraction/pdftext"
)

// ErrNoTable means no header row could be located at either clustering
// tolerance. Callers fall back to pattern matching over the raw text.
var ErrNoTable = errors.New("no table structure detected")

// Record is one data row with its fragments resolved to column roles.
// Fragments binding the same role are concatenated in left-to-right order.
type Record struct {
	Page   int
	Fields map[columns.Role]string
}

// Grid is the reconstructed table: the detected header plus the data
// records in document order.
type Grid struct {
	Header  *Header
	Records []Record
}

// Reconstructor turns positioned fragments into a Grid.
type Reconstructor struct {
	rowTolerance    float64
	anchorTolerance float64
	logger          *slog.Logger
}

func NewReconstructor(logger *slog.Logger) *Reconstructor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconstructor{
		rowTolerance:    DefaultRowTolerance,
		anchorTolerance: AnchorMatchTolerance,
		logger:          logger,
	}
}

// Rows that carry no transaction data: repeated column titles, section
// banners and page furniture. Matched against the joined row text.
var nonDataPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^page \d+( of \d+)?$`),
	regexp.MustCompile(`(?i)^(statement|account) (summary|period|number)`),
	regexp.MustCompile(`(?i)^(brought|carried) forward\b`),
	regexp.MustCompile(`(?i)^continued( on next page)?$`),
}

// creditMarker matches a lone credit/payment token on a continuation line.
var creditMarker = regexp.MustCompile(`(?i)^(cr|credit)$`)

// Reconstruct clusters the fragments, locates the header and assigns every
// data row's fragments to column anchors. If no header is found at the
// default row tolerance it retries once with the wide tolerance before
// giving up with ErrNoTable.
func (r *Reconstructor) Reconstruct(items []pdftext.Item) (*Grid, error) {
	rows := ClusterRows(items, r.rowTolerance)
	header, ok := DetectHeader(rows)
	if !ok {
		rows = ClusterRows(items, WideRowTolerance)
		header, ok = DetectHeader(rows)
		if !ok {
			return nil, ErrNoTable
		}
		r.logger.Debug("header found at wide row tolerance", "rows", len(rows))
	}

	grid := &Grid{Header: header}
	for i := header.DataStart; i < len(rows); i++ {
		row := rows[i]
		text := strings.TrimSpace(row.Text())
		if text == "" || r.isNonDataRow(row, header) {
			continue
		}

		// A lone credit marker directly below a transaction row flips
		// that transaction's sign instead of opening a new record.
		if len(row.Items) == 1 && creditMarker.MatchString(text) && len(grid.Records) > 0 {
			fields := grid.Records[len(grid.Records)-1].Fields
			if amt, ok := fields[columns.RoleAmount]; ok {
				fields[columns.RoleAmount] = amt + " CR"
			} else {
				fields[columns.RoleAmount] = "CR"
			}
			continue
		}

		grid.Records = append(grid.Records, r.assignRow(row, header))
	}
	return grid, nil
}

// assignRow binds each fragment to the nearest anchor within the match
// tolerance. Fragments matching no anchor join the description column, the
// widest and least position-stable column in practice.
func (r *Reconstructor) assignRow(row Row, header *Header) Record {
	rec := Record{Page: row.Page, Fields: map[columns.Role]string{}}
	for _, it := range row.Items {
		role := r.nearestRole(it.X, header)
		if prev, ok := rec.Fields[role]; ok {
			rec.Fields[role] = prev + " " + it.Text
		} else {
			rec.Fields[role] = it.Text
		}
	}
	return rec
}

func (r *Reconstructor) nearestRole(x float64, header *Header) columns.Role {
	best := columns.RoleDescription
	bestDist := math.Inf(1)
	for _, a := range header.Anchors {
		d := math.Abs(x - a.X)
		if d < bestDist {
			best, bestDist = a.Role, d
		}
	}
	if bestDist > r.anchorTolerance {
		return columns.RoleDescription
	}
	return best
}

// isNonDataRow skips repeated header rows and known banner lines.
func (r *Reconstructor) isNonDataRow(row Row, header *Header) bool {
	anchors := rowRoles(row)
	if hasRole(anchors, columns.RoleDate) && hasRole(anchors, columns.RoleDescription) {
		return true
	}
	text := strings.TrimSpace(row.Text())
	for _, p := range nonDataPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
