package normalizer

import (
	"strings"
	"time"
)

// Format is a Go time layout string detected from sample values.
type Format = string

// Candidate layouts in priority order. Day-first layouts come before
// month-first: UK statements dominate the corpus, so ties resolve to
// day/month/year.
var dateLayouts = []Format{
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"2/1/2006",
	"02/01/06",
	"01/02/2006",
	"01-02-2006",
	"2006-01-02",
	"2006/01/02",
	"02 Jan 2006",
	"2 Jan 2006",
	"02 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04",
	"01/02/2006 15:04",
}

const (
	maxDateSamples = 20
	minSaneYear    = 1900
	maxSaneYear    = 2100
)

// DetectDateFormat tests up to 20 sample strings against the candidate
// layouts and returns the layout matching the most samples. A match only
// counts when the parsed year falls in [1900,2100], which filters layouts
// that technically parse but misread the fields. Ties break by list order.
// Returns false when no layout matches any sample.
func DetectDateFormat(samples []string) (Format, bool) {
	if len(samples) > maxDateSamples {
		samples = samples[:maxDateSamples]
	}

	bestLayout := ""
	bestCount := 0
	for _, layout := range dateLayouts {
		count := 0
		for _, s := range samples {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			t, err := time.Parse(layout, s)
			if err != nil {
				continue
			}
			if y := t.Year(); y >= minSaneYear && y <= maxSaneYear {
				count++
			}
		}
		if count > bestCount {
			bestCount = count
			bestLayout = layout
		}
	}

	if bestCount == 0 {
		return "", false
	}
	return bestLayout, true
}

// ParseDate parses a single value with the given layout, enforcing the same
// sane-year window as DetectDateFormat.
func ParseDate(layout Format, s string) (time.Time, bool) {
	t, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	if y := t.Year(); y < minSaneYear || y > maxSaneYear {
		return time.Time{}, false
	}
	return t, true
}

// timeMarkers are layout fragments that indicate a time component.
var timeMarkers = []string{"15:04", "T15"}

// HasTimeComponent reports whether a layout carries a time-of-day portion.
func HasTimeComponent(layout Format) bool {
	for _, m := range timeMarkers {
		if strings.Contains(layout, m) {
			return true
		}
	}
	return false
}

// StripTime derives a date-only layout from one that includes a time
// component, together with a transform that reparses a value in the original
// layout and reformats it date-only. For layouts without a time component
// the layout is returned unchanged with an identity transform.
func StripTime(layout Format) (Format, func(string) string) {
	if !HasTimeComponent(layout) {
		return layout, func(s string) string { return s }
	}

	dateOnly := layout
	for _, m := range []string{"T15:04:05Z07:00", " 15:04:05", " 15:04"} {
		if idx := strings.Index(dateOnly, m); idx >= 0 {
			dateOnly = dateOnly[:idx]
			break
		}
	}

	transform := func(s string) string {
		t, err := time.Parse(layout, strings.TrimSpace(s))
		if err != nil {
			return s
		}
		return t.Format(dateOnly)
	}
	return dateOnly, transform
}
