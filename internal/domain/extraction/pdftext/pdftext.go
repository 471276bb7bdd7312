// Package pdftext extracts native text from PDF statements, preserving the
// horizontal/vertical position of every text run so the table reconstructor
// can rebuild rows and columns. Documents whose native text is too sparse
// are flagged for the OCR sub-path instead.
package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrUnreadable marks a corrupt or password-protected document. The whole
// extraction fails; there is no partial result.
var ErrUnreadable = errors.New("document unreadable")

// ScannedTextThreshold is the minimum total character count across all pages
// below which a PDF is treated as a scanned image and routed to OCR.
const ScannedTextThreshold = 100

// wordJoinGap is the fallback X gap (in PDF points) under which adjacent
// glyph runs merge into one word when the font size is unknown.
const wordJoinGap = 3.0

// wordSpaceFraction of the font size is the usual inter-glyph gap inside a
// word; anything wider starts a new item.
const wordSpaceFraction = 0.3

// Item is one positioned text fragment. Coordinates are PDF points with the
// origin at the bottom-left, so larger Y means higher on the page.
type Item struct {
	Text string
	X    float64
	Y    float64
	Page int
}

// PageSet is the full native extraction result for one document.
type PageSet struct {
	Items     []Item
	PageCount int
	CharCount int
}

// Text concatenates item text in reading order (page, then top-to-bottom,
// then left-to-right). Used for bank detection and the pattern fallback.
func (ps *PageSet) Text() string {
	items := make([]Item, len(ps.Items))
	copy(items, ps.Items)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Page != items[j].Page {
			return items[i].Page < items[j].Page
		}
		if items[i].Y != items[j].Y {
			return items[i].Y > items[j].Y
		}
		return items[i].X < items[j].X
	})

	var b strings.Builder
	lastPage, lastY := -1, 0.0
	for _, it := range items {
		switch {
		case lastPage == -1:
		case it.Page != lastPage || lastY-it.Y > 0.5:
			b.WriteByte('\n')
		default:
			b.WriteByte(' ')
		}
		b.WriteString(it.Text)
		lastPage, lastY = it.Page, it.Y
	}
	return b.String()
}

// IsLikelyScanned reports whether the document needs the OCR sub-path.
func (ps *PageSet) IsLikelyScanned() bool {
	return ps.CharCount < ScannedTextThreshold
}

// PageFunc receives per-page progress during extraction.
type PageFunc func(page, total int)

// Extractor pulls positioned text runs out of a PDF.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates an Extractor. A nil logger falls back to the default.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract validates the document and walks every page, emitting word-level
// positioned items. onPage may be nil. Corrupt and encrypted documents fail
// with ErrUnreadable; cancellation is honored at each page boundary.
func (e *Extractor) Extract(ctx context.Context, data []byte, onPage PageFunc) (*PageSet, error) {
	if err := api.Validate(bytes.NewReader(data), model.NewDefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	total := reader.NumPage()
	ps := &PageSet{PageCount: total}

	for pageNum := 1; pageNum <= total; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		items := mergeRuns(page.Content().Text, pageNum)
		ps.Items = append(ps.Items, items...)
		for _, it := range items {
			ps.CharCount += len(it.Text)
		}

		if onPage != nil {
			onPage(pageNum, total)
		}
	}

	e.logger.Debug("native pdf extraction complete",
		"pages", total, "items", len(ps.Items), "chars", ps.CharCount)
	return ps, nil
}

// mergeRuns folds per-glyph text runs into word-level items. Runs on the
// same baseline merge while their X gap stays inside the word-space
// threshold for the current font size.
func mergeRuns(texts []pdf.Text, pageNum int) []Item {
	var items []Item
	var cur *Item
	var curRight float64

	flush := func() {
		if cur != nil && strings.TrimSpace(cur.Text) != "" {
			cur.Text = strings.TrimSpace(cur.Text)
			items = append(items, *cur)
		}
		cur = nil
	}

	for _, t := range texts {
		if t.S == "" || t.S == "\n" {
			continue
		}

		threshold := wordJoinGap
		if t.FontSize > 0 {
			threshold = t.FontSize * wordSpaceFraction
		}

		sameLine := cur != nil && absf(t.Y-cur.Y) < 0.5
		joined := sameLine && t.X-curRight <= threshold && t.X >= cur.X

		if joined {
			cur.Text += t.S
		} else {
			flush()
			cur = &Item{Text: t.S, X: t.X, Y: t.Y, Page: pageNum}
		}
		curRight = t.X + t.W
	}
	flush()
	return items
}

func absf(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
