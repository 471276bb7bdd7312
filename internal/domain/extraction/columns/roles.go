// Package columns assigns semantic roles (date, amount, balance, ...) to the
// columns of a tabular statement by scoring header names and sample values.
// It only ever produces a suggestion for the caller to confirm; an incomplete
// mapping is reported, never an error.
package columns

import (
	"regexp"
	"strings"

	"github.com/finatlas/statement-pipeline/internal/domain/extraction/normalizer"
)

// Role identifies the semantic meaning of a statement column.
type Role string

const (
	RoleDate        Role = "date"
	RoleProcessDate Role = "processDate"
	RoleDescription Role = "description"
	RoleAmount      Role = "amount"
	RoleDebit       Role = "debit"
	RoleCredit      Role = "credit"
	RoleBalance     Role = "balance"
	RoleReference   Role = "reference"
)

// Scoring weights. A later keyword/pattern/validator is added by extending
// the table below, not by branching.
const (
	scoreExactKeyword   = 100
	scoreSubstring      = 50
	scorePatternMatch   = 30
	scoreValidatorPass  = 20
	confidenceFullScore = 150 // score mapped to confidence 1.0
)

const maxValidatorSamples = 10

// roleSpec drives the uniform scoring loop for one role.
type roleSpec struct {
	keywords  []string
	patterns  []*regexp.Regexp
	validator func(samples []string) bool
}

var roleTable = map[Role]roleSpec{
	RoleDate: {
		keywords:  []string{"date", "transaction date", "posting date"},
		patterns:  []*regexp.Regexp{regexp.MustCompile(`(?i)\bdate\b`)},
		validator: datesParse,
	},
	RoleProcessDate: {
		keywords:  []string{"process date", "processed date", "posted date"},
		patterns:  []*regexp.Regexp{regexp.MustCompile(`(?i)\bprocess(ed)?\b`)},
		validator: datesParse,
	},
	RoleDescription: {
		keywords: []string{"description", "transaction details", "details", "narrative", "merchant", "payee"},
		patterns: []*regexp.Regexp{regexp.MustCompile(`(?i)descr|detail|narrat`)},
		validator: func(samples []string) bool {
			// A description column varies; a near-constant column is
			// usually a type marker or a section label.
			return cardinalityRatio(samples) > 0.3
		},
	},
	RoleAmount: {
		keywords:  []string{"amount", "transaction amount", "value", "amount £"},
		patterns:  []*regexp.Regexp{regexp.MustCompile(`(?i)\bamount\b`)},
		validator: amountsParse,
	},
	RoleDebit: {
		keywords:  []string{"debit", "money out", "paid out", "withdrawals"},
		patterns:  []*regexp.Regexp{regexp.MustCompile(`(?i)\bdebits?\b|\bout\b`)},
		validator: amountsParse,
	},
	RoleCredit: {
		keywords:  []string{"credit", "money in", "paid in", "deposits"},
		patterns:  []*regexp.Regexp{regexp.MustCompile(`(?i)\bcredits?\b|\bin\b`)},
		validator: amountsParse,
	},
	RoleBalance: {
		keywords:  []string{"balance", "running balance", "closing balance"},
		patterns:  []*regexp.Regexp{regexp.MustCompile(`(?i)\bbalance\b`)},
		validator: amountsParse,
	},
	RoleReference: {
		keywords:  []string{"reference", "ref", "transaction id", "cheque number"},
		patterns:  []*regexp.Regexp{regexp.MustCompile(`(?i)\bref(erence)?\b`)},
		validator: nil,
	},
}

// FieldMapping binds a role to a source column with a confidence in [0,1].
type FieldMapping struct {
	Header     string
	Column     int
	Confidence float64
}

// Suggestion is the detector's output: a per-role mapping proposal plus the
// mandatory roles it could not fill. Callers decide what to do about gaps.
type Suggestion struct {
	Fields  map[Role]FieldMapping
	Missing []Role
}

// HasAmount reports whether any amount-bearing role was mapped.
func (s *Suggestion) HasAmount() bool {
	for _, r := range []Role{RoleAmount, RoleDebit, RoleCredit, RoleBalance} {
		if _, ok := s.Fields[r]; ok {
			return true
		}
	}
	return false
}

// Suggest scores every (header, role) pair and returns the best header per
// role. sampleRows feed the role validators; at most 10 are consulted.
// Mandatory roles: date, plus at least one of balance or amount.
func Suggest(headers []string, sampleRows [][]string) *Suggestion {
	if len(sampleRows) > maxValidatorSamples {
		sampleRows = sampleRows[:maxValidatorSamples]
	}

	suggestion := &Suggestion{Fields: make(map[Role]FieldMapping)}

	for role, spec := range roleTable {
		bestCol, bestScore := -1, 0
		for col, header := range headers {
			score := scoreHeader(header, spec, columnSamples(sampleRows, col))
			if score > bestScore {
				bestScore = score
				bestCol = col
			}
		}
		if bestCol >= 0 {
			suggestion.Fields[role] = FieldMapping{
				Header:     headers[bestCol],
				Column:     bestCol,
				Confidence: confidence(bestScore),
			}
		}
	}

	if _, ok := suggestion.Fields[RoleDate]; !ok {
		suggestion.Missing = append(suggestion.Missing, RoleDate)
	}
	_, hasBalance := suggestion.Fields[RoleBalance]
	if !hasBalance && !suggestion.hasRawAmount() {
		suggestion.Missing = append(suggestion.Missing, RoleAmount)
	}

	return suggestion
}

func (s *Suggestion) hasRawAmount() bool {
	for _, r := range []Role{RoleAmount, RoleDebit, RoleCredit} {
		if _, ok := s.Fields[r]; ok {
			return true
		}
	}
	return false
}

func scoreHeader(header string, spec roleSpec, samples []string) int {
	h := strings.ToLower(strings.TrimSpace(header))
	if h == "" {
		return 0
	}

	score := 0
	for _, kw := range spec.keywords {
		if h == kw {
			score += scoreExactKeyword
		} else if strings.Contains(h, kw) {
			score += scoreSubstring
		}
	}
	for _, p := range spec.patterns {
		if p.MatchString(h) {
			score += scorePatternMatch
		}
	}
	// The validator is a tie-breaker for headers the name heuristics already
	// favour; on its own it would bind any numeric column to any role.
	if score > 0 && spec.validator != nil && len(samples) > 0 && spec.validator(samples) {
		score += scoreValidatorPass
	}
	return score
}

func confidence(score int) float64 {
	c := float64(score) / confidenceFullScore
	if c > 1 {
		c = 1
	}
	return c
}

func columnSamples(rows [][]string, col int) []string {
	var out []string
	for _, row := range rows {
		if col < len(row) {
			if v := strings.TrimSpace(row[col]); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func amountsParse(samples []string) bool {
	for _, s := range samples {
		if _, ok := normalizer.ParseAmount(s); !ok {
			return false
		}
	}
	return true
}

func datesParse(samples []string) bool {
	layout, ok := normalizer.DetectDateFormat(samples)
	if !ok {
		return false
	}
	for _, s := range samples {
		if _, ok := normalizer.ParseDate(layout, s); !ok {
			return false
		}
	}
	return true
}

func cardinalityRatio(samples []string) float64 {
	if len(samples) == 0 {
		return 0
	}
	distinct := make(map[string]struct{}, len(samples))
	for _, s := range samples {
		distinct[strings.ToLower(s)] = struct{}{}
	}
	return float64(len(distinct)) / float64(len(samples))
}
