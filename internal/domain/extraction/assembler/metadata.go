package assembler

import (
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/finatlas/statement-pipeline/internal/domain/extraction/normalizer"
)

// Statement metadata relevant to debt accounts: the balance the statement
// opens with and the advertised interest rate. Both are best effort.

var startingBalancePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:opening|starting|previous|brought\s+forward)\s+balance[^\d£$€-]{0,20}([£$€]?\s?-?[\d,]+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`(?i)balance\s+(?:brought|carried)\s+forward[^\d£$€-]{0,20}([£$€]?\s?-?[\d,]+(?:\.\d{1,2})?)`),
}

var interestRatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:interest\s+rate|apr|aer|annual\s+rate)[^\d%\n]{0,30}(\d{1,2}(?:\.\d{1,3})?)\s*%`),
	regexp.MustCompile(`(?i)(\d{1,2}(?:\.\d{1,3})?)\s*%\s*(?:apr|aer|p\.?a\.?\b)`),
}

// StartingBalance scans document text for an opening balance figure.
// Returns nil when none is found.
func StartingBalance(text string) *decimal.Decimal {
	for _, p := range startingBalancePatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if d, ok := normalizer.ParseAmount(m[1]); ok {
			return &d
		}
	}
	return nil
}

// InterestRate scans document text for an APR-like percentage.
// Returns nil when none is found.
func InterestRate(text string) *decimal.Decimal {
	for _, p := range interestRatePatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if d, ok := normalizer.ParseAmount(m[1]); ok {
			return &d
		}
	}
	return nil
}
