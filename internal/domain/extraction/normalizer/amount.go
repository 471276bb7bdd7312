// Package normalizer provides locale-tolerant parsing of amounts and dates
// found in bank statement exports. All functions are pure and never panic on
// malformed input.
package normalizer

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency symbols stripped before numeric parsing. GBP first: the
// statement sources this pipeline targets are predominantly UK banks.
var currencySymbols = []string{"£", "$", "€", "R$", "¥", "₹", "GBP", "USD", "EUR"}

// ParseAmount parses a monetary string into a decimal value.
// It strips currency symbols, grouping separators and whitespace, and treats
// parenthesized values as negative. The second return value is false only
// when the input contains no digit at all.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}

	for _, sym := range currencySymbols {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.Trim(s, "()")
	}
	if strings.HasPrefix(s, "-") {
		negative = true
		s = strings.TrimPrefix(s, "-")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "-")

	// Keep digits and separators only; drops stray OCR artifacts.
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == '.' || r == ',' {
			return r
		}
		return -1
	}, s)

	if !strings.ContainsAny(cleaned, "0123456789") {
		return decimal.Zero, false
	}

	cleaned = normalizeSeparators(cleaned)

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// normalizeSeparators rewrites a digit string with mixed grouping/decimal
// separators into canonical dot-decimal form. When both separators appear,
// the rightmost one is the decimal point. A lone comma followed by exactly
// two digits is read as a European decimal comma; repeated dots with no
// comma are grouping separators, except a trailing 1-2 digit fraction.
func normalizeSeparators(s string) string {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			// 1.234,56
			s = strings.ReplaceAll(s, ".", "")
			lc := strings.LastIndex(s, ",")
			s = strings.ReplaceAll(s[:lc], ",", "") + "." + s[lc+1:]
		} else {
			// 1,234.56
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		after := len(s) - lastComma - 1
		if after == 2 {
			// 1234,56 (and 1,234,56: leading commas are grouping)
			s = strings.ReplaceAll(s[:lastComma], ",", "") + "." + s[lastComma+1:]
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Count(s, ".") > 1:
		if after := len(s) - lastDot - 1; after >= 1 && after <= 2 {
			// 1.234.56
			s = strings.ReplaceAll(s[:lastDot], ".", "") + "." + s[lastDot+1:]
		} else {
			// 1.234.567
			s = strings.ReplaceAll(s, ".", "")
		}
	}
	return s
}

// NormalizeWhitespace collapses runs of whitespace into single spaces and
// trims the ends. Used on descriptions and OCR output before matching.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
