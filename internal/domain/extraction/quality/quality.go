// Package quality scores an extraction run so the pipeline can refuse to
// report success on barely-parsed documents.
package quality

import (
	"strings"

	"github.com/finatlas/statement-pipeline/internal/domain/extraction/assembler"
	"github.com/finatlas/statement-pipeline/internal/domain/extraction/columns"
	"github.com/finatlas/statement-pipeline/internal/domain/extraction/normalizer"
	"github.com/finatlas/statement-pipeline/internal/domain/extraction/table"
)

// SuccessThreshold is the minimum score for the pipeline to report success.
// Below it the run fails rather than returning a result for correction.
const SuccessThreshold = 30

// Debt-path check weights. They sum to the score cap.
const (
	debtAnyTransactions = 40
	debtFiveOrMore      = 10
	debtTenOrMore       = 10
	debtStartingBalance = 20
	debtInterestRate    = 10
	debtAllDatesValid   = 10
	scoreCap            = 100
	minTxForFiveBonus   = 5
	minTxForTenBonus    = 10
)

// Savings-path checklist weights. They sum to the score cap so the weighted
// ratio sum is already on the [0,100] scale.
const (
	savingsRowsPresent  = 20
	savingsDateRatio    = 25
	savingsDescRatio    = 20
	savingsBalanceRatio = 20
	savingsAmountRatio  = 15
)

// minDescriptionLen is the shortest description counted as non-trivial.
const minDescriptionLen = 3

// Report carries the score together with the row counts that fed it.
// Immutable once produced, attached one-to-one to a pipeline run.
type Report struct {
	Score                  int
	RowsFound              int
	ValidDates             int
	ValidAmounts           int
	ValidBalances          int
	NonTrivialDescriptions int
}

// Acceptable reports whether the run may be surfaced as a success.
func (r Report) Acceptable() bool {
	return r.Score >= SuccessThreshold
}

// Observe counts per-row field validity across a reconstructed grid using
// the same parsing rules the assembler applies. Score is left at zero; a
// scoring function fills it.
func Observe(grid *table.Grid, dateFormat normalizer.Format, a *assembler.Assembler) Report {
	var r Report
	for _, rec := range grid.Records {
		r.RowsFound++
		if _, ok := a.ParseDate(rec.Fields[columns.RoleDate], dateFormat); ok {
			r.ValidDates++
		}
		if _, ok := a.SignedAmount(rec.Fields); ok {
			r.ValidAmounts++
		}
		if raw, present := rec.Fields[columns.RoleBalance]; present {
			if _, ok := normalizer.ParseAmount(raw); ok {
				r.ValidBalances++
			}
		}
		if len(strings.TrimSpace(rec.Fields[columns.RoleDescription])) >= minDescriptionLen {
			r.NonTrivialDescriptions++
		}
	}
	return r
}

// ObserveTransactions builds a report for the pattern-fallback path, where
// every emitted transaction already carries a valid date and amount.
func ObserveTransactions(txs []assembler.Transaction) Report {
	r := Report{RowsFound: len(txs), ValidDates: len(txs), ValidAmounts: len(txs)}
	for _, tx := range txs {
		if tx.Balance != nil {
			r.ValidBalances++
		}
		if len(strings.TrimSpace(tx.Description)) >= minDescriptionLen {
			r.NonTrivialDescriptions++
		}
	}
	return r
}

// ScoreDebt applies the debt-statement checklist: transaction presence with
// volume bonuses, statement metadata, and full date validity.
func ScoreDebt(r Report, txCount int, hasStartingBalance, hasInterestRate bool) Report {
	score := 0
	if txCount >= 1 {
		score += debtAnyTransactions
	}
	if txCount >= minTxForFiveBonus {
		score += debtFiveOrMore
	}
	if txCount >= minTxForTenBonus {
		score += debtTenOrMore
	}
	if hasStartingBalance {
		score += debtStartingBalance
	}
	if hasInterestRate {
		score += debtInterestRate
	}
	if r.RowsFound > 0 && r.ValidDates == r.RowsFound {
		score += debtAllDatesValid
	}
	if score > scoreCap {
		score = scoreCap
	}
	r.Score = score
	return r
}

// ScoreSavings applies the savings-statement checklist: each field-coverage
// ratio contributes its weight times the ratio achieved.
func ScoreSavings(r Report) Report {
	if r.RowsFound == 0 {
		r.Score = 0
		return r
	}
	n := float64(r.RowsFound)
	score := float64(savingsRowsPresent)
	score += float64(savingsDateRatio) * float64(r.ValidDates) / n
	score += float64(savingsDescRatio) * float64(r.NonTrivialDescriptions) / n
	score += float64(savingsBalanceRatio) * float64(r.ValidBalances) / n
	score += float64(savingsAmountRatio) * float64(r.ValidAmounts) / n
	r.Score = int(score + 0.5)
	if r.Score > scoreCap {
		r.Score = scoreCap
	}
	return r
}
