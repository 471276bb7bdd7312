// Package table rebuilds tabular structure from positioned text fragments
// extracted out of native-text PDF statements. Fragments are clustered into
// visual rows by vertical coordinate, a header row (possibly split across
// two lines) is located, and each data row's fragments are assigned to
// column anchors by horizontal proximity.
package table

import (
	"sort"
	"strings"

	"github.com/finatlas/statement-pipeline/internal/domain/extraction/pdftext"
)

const (
	// DefaultRowTolerance groups fragments whose vertical coordinates are
	// within this many units into one row.
	DefaultRowTolerance = 3.0

	// WideRowTolerance is used on a second pass when the default tolerance
	// finds no recognizable header, which happens with noisier multi-column
	// layouts where baselines wobble.
	WideRowTolerance = 8.0

	// AnchorMatchTolerance is the maximum horizontal distance between a data
	// fragment and a column anchor for the fragment to bind to that column.
	AnchorMatchTolerance = 50.0
)

// Row is an ordered run of fragments sharing a vertical coordinate within
// the clustering tolerance. Items are sorted left to right.
type Row struct {
	Page  int
	Y     float64
	Items []pdftext.Item
}

// Text joins the row's fragments with single spaces.
func (r Row) Text() string {
	parts := make([]string, 0, len(r.Items))
	for _, it := range r.Items {
		parts = append(parts, it.Text)
	}
	return strings.Join(parts, " ")
}

// ClusterRows partitions items into rows. Every item lands in exactly one
// row. Rows are returned in reading order: ascending page, then descending
// vertical coordinate (PDF origin is bottom-left).
func ClusterRows(items []pdftext.Item, tolerance float64) []Row {
	if len(items) == 0 {
		return nil
	}

	type bucket struct {
		page       int
		yMin, yMax float64
		items      []pdftext.Item
	}

	var buckets []bucket
	for _, it := range items {
		placed := false
		for i := range buckets {
			if buckets[i].page != it.Page {
				continue
			}
			if it.Y >= buckets[i].yMin-tolerance && it.Y <= buckets[i].yMax+tolerance {
				buckets[i].items = append(buckets[i].items, it)
				if it.Y < buckets[i].yMin {
					buckets[i].yMin = it.Y
				}
				if it.Y > buckets[i].yMax {
					buckets[i].yMax = it.Y
				}
				placed = true
				break
			}
		}
		if !placed {
			buckets = append(buckets, bucket{page: it.Page, yMin: it.Y, yMax: it.Y, items: []pdftext.Item{it}})
		}
	}

	rows := make([]Row, 0, len(buckets))
	for _, b := range buckets {
		sort.SliceStable(b.items, func(i, j int) bool {
			return b.items[i].X < b.items[j].X
		})
		rows = append(rows, Row{Page: b.page, Y: (b.yMin + b.yMax) / 2, Items: b.items})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Page != rows[j].Page {
			return rows[i].Page < rows[j].Page
		}
		return rows[i].Y > rows[j].Y
	})
	return rows
}
