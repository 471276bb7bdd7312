// Package assembler turns reconstructed table records, or raw recognized
// text when no table structure survived extraction, into normalized
// transaction records.
package assembler

import (
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/finatlas/statement-pipeline/internal/domain/extraction/columns"
	"github.com/finatlas/statement-pipeline/internal/domain/extraction/normalizer"
	"github.com/finatlas/statement-pipeline/internal/domain/extraction/table"
)

// Transaction is the normalized output record. Amount is signed: positive
// for debits and charges, negative when a credit marker was present.
type Transaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Balance     *decimal.Decimal
	Payee       string
}

// Assembler builds transactions from table grids and free text. The clock
// is injectable because year inference for year-less dates is relative to
// the processing date.
type Assembler struct {
	now    func() time.Time
	logger *slog.Logger
}

func New(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{now: time.Now, logger: logger}
}

// WithClock replaces the reference clock. Used in tests.
func (a *Assembler) WithClock(now func() time.Time) *Assembler {
	a.now = now
	return a
}

// creditSuffix matches an inline credit marker at the end of an amount cell.
var creditSuffix = regexp.MustCompile(`(?i)\s*\b(cr|credit)\b\.?\s*$`)

// FromGrid converts each grid record into a transaction. Rows lacking a
// parseable date or amount are dropped, not surfaced as errors, since
// statements routinely carry summary and footer rows.
func (a *Assembler) FromGrid(grid *table.Grid, dateFormat normalizer.Format) []Transaction {
	txs := make([]Transaction, 0, len(grid.Records))
	for _, rec := range grid.Records {
		tx, ok := a.fromRecord(rec, dateFormat)
		if !ok {
			a.logger.Debug("dropping row without date and amount", "fields", rec.Fields)
			continue
		}
		txs = append(txs, tx)
	}
	return txs
}

func (a *Assembler) fromRecord(rec table.Record, dateFormat normalizer.Format) (Transaction, bool) {
	date, ok := a.ParseDate(rec.Fields[columns.RoleDate], dateFormat)
	if !ok {
		return Transaction{}, false
	}

	amount, ok := a.SignedAmount(rec.Fields)
	if !ok {
		return Transaction{}, false
	}

	desc := normalizer.NormalizeWhitespace(rec.Fields[columns.RoleDescription])
	tx := Transaction{
		Date:        date,
		Description: desc,
		Amount:      amount,
		Payee:       payeeLabel(desc),
	}
	if raw, present := rec.Fields[columns.RoleBalance]; present {
		if bal, parsed := normalizer.ParseAmount(raw); parsed {
			tx.Balance = &bal
		}
	}
	return tx, true
}

// SignedAmount resolves the signed amount from either a single amount
// column (with optional CR suffix) or a debit/credit column pair. Debits
// stay positive; credits are negated.
func (a *Assembler) SignedAmount(fields map[columns.Role]string) (decimal.Decimal, bool) {
	if raw, ok := fields[columns.RoleAmount]; ok {
		credit := creditSuffix.MatchString(raw)
		amount, parsed := normalizer.ParseAmount(creditSuffix.ReplaceAllString(raw, ""))
		if !parsed {
			return decimal.Decimal{}, false
		}
		if credit {
			amount = amount.Neg()
		}
		return amount, true
	}
	if raw, ok := fields[columns.RoleDebit]; ok && strings.TrimSpace(raw) != "" {
		if amount, parsed := normalizer.ParseAmount(raw); parsed {
			return amount, true
		}
	}
	if raw, ok := fields[columns.RoleCredit]; ok && strings.TrimSpace(raw) != "" {
		if amount, parsed := normalizer.ParseAmount(raw); parsed {
			return amount.Neg(), true
		}
	}
	return decimal.Decimal{}, false
}

// payeeNoise matches trailing reference tokens statements append to the
// merchant name: store numbers, card fragments, transaction dates.
var payeeNoise = regexp.MustCompile(`(?i)\s+(?:\d{2,}|x{2,}\d+|\d{1,2}[a-z]{3}\d{0,4}|ref\s*\S*)\s*$`)

// payeeLabel derives a creditor label from a transaction description by
// stripping trailing reference noise. Empty when nothing recognizable
// remains.
func payeeLabel(desc string) string {
	label := desc
	for {
		trimmed := payeeNoise.ReplaceAllString(label, "")
		if trimmed == label {
			break
		}
		label = trimmed
	}
	label = strings.TrimSpace(label)
	if label == "" || !strings.ContainsFunc(label, unicode.IsLetter) {
		return ""
	}
	return label
}

// Year-less day-and-month layouts seen on card statements.
var dayMonthLayouts = []string{"02 Jan", "02 January", "Jan 02", "January 02"}

// ParseDate tries the detected statement format first, then the fixed
// layout list, then year-less day-month tokens with year inference.
func (a *Assembler) ParseDate(raw string, dateFormat normalizer.Format) (time.Time, bool) {
	raw = normalizer.NormalizeWhitespace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if dateFormat != "" {
		if t, ok := normalizer.ParseDate(dateFormat, raw); ok {
			return t, true
		}
	}
	if layout, ok := normalizer.DetectDateFormat([]string{raw}); ok {
		if t, parsed := normalizer.ParseDate(layout, raw); parsed {
			return t, true
		}
	}
	for _, layout := range dayMonthLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(a.inferYear(t.Month()), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// inferYear resolves a year-less statement date. Statements list recent
// activity, so a month later in the calendar than the processing month
// cannot be this year yet and belongs to the prior one.
func (a *Assembler) inferYear(m time.Month) int {
	ref := a.now()
	if m > ref.Month() {
		return ref.Year() - 1
	}
	return ref.Year()
}
