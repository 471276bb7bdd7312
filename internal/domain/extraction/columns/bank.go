package columns

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Provider keyword table for UK banks and creditors. Filename is matched
// first (exports are usually named after the bank), then document text.
var bankProviders = []struct {
	name     string
	keywords []string
}{
	{"Barclays", []string{"barclays", "barclaycard"}},
	{"HSBC", []string{"hsbc"}},
	{"Lloyds", []string{"lloyds"}},
	{"Halifax", []string{"halifax"}},
	{"NatWest", []string{"natwest", "national westminster"}},
	{"Santander", []string{"santander"}},
	{"Nationwide", []string{"nationwide"}},
	{"Monzo", []string{"monzo"}},
	{"Starling", []string{"starling"}},
	{"Revolut", []string{"revolut"}},
	{"RBS", []string{"royal bank of scotland"}},
	{"TSB", []string{"tsb bank"}},
	{"Metro Bank", []string{"metro bank"}},
	{"First Direct", []string{"first direct"}},
	{"Virgin Money", []string{"virgin money"}},
	{"Co-operative Bank", []string{"co-operative bank", "cooperative bank"}},
	{"NS&I", []string{"ns&i", "national savings"}},
	{"Capital One", []string{"capital one"}},
	{"MBNA", []string{"mbna"}},
	{"Vanquis", []string{"vanquis"}},
}

// Levenshtein budget for the fuzzy pass over OCR text. One or two garbled
// characters in a bank name is routine at 300 DPI scans.
const maxBankRankDistance = 2

// DetectBank identifies the issuing provider from the filename and a text
// sample. Exact substring matches win; a fuzzy pass over the text tokens
// catches OCR-garbled names. Returns false when no provider matches.
func DetectBank(filename, sampleText string) (string, bool) {
	lowerName := strings.ToLower(filename)
	for _, p := range bankProviders {
		for _, kw := range p.keywords {
			if strings.Contains(lowerName, kw) {
				return p.name, true
			}
		}
	}

	lowerText := strings.ToLower(sampleText)
	for _, p := range bankProviders {
		for _, kw := range p.keywords {
			if strings.Contains(lowerText, kw) {
				return p.name, true
			}
		}
	}

	// Fuzzy pass: edit distance on individual tokens. Restricted to keywords
	// of five characters or more so short names cannot collide with noise.
	tokens := strings.Fields(lowerText)
	for _, p := range bankProviders {
		for _, kw := range p.keywords {
			if strings.ContainsRune(kw, ' ') || len(kw) < 5 {
				continue
			}
			for _, tok := range tokens {
				if abs(len(tok)-len(kw)) > maxBankRankDistance {
					continue
				}
				if fuzzy.LevenshteinDistance(kw, tok) <= maxBankRankDistance {
					return p.name, true
				}
			}
		}
	}

	return "", false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
