// Package money provides currency-safe monetary arithmetic over integer
// minor units, wrapping go-money for arithmetic and shopspring/decimal for
// conversions. Statement amounts are decimals during extraction and become
// Money at the presentation boundary.
package money

import (
	"errors"
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Common currency codes (ISO-4217)
const (
	GBP = "GBP" // British Pound
	USD = "USD" // US Dollar
	EUR = "EUR" // Euro
)

// ErrCurrencyMismatch is returned when combining values of different
// currencies.
var ErrCurrencyMismatch = errors.New("currency mismatch")

// Money represents a monetary value with currency.
type Money struct {
	m *money.Money
}

// New creates a Money value from minor units (pence, cents) and currency.
func New(minorUnits int64, currencyCode string) *Money {
	return &Money{m: money.New(minorUnits, currencyCode)}
}

// NewFromDecimal creates Money from a decimal amount in major units.
// This is the conversion used for extracted statement amounts.
func NewFromDecimal(amount decimal.Decimal, currencyCode string) *Money {
	currency := money.GetCurrency(currencyCode)
	if currency == nil {
		currency = money.GetCurrency(GBP)
	}
	multiplier := decimal.New(1, int32(currency.Fraction))
	return New(amount.Mul(multiplier).Round(0).IntPart(), currency.Code)
}

// Zero returns a zero value for the given currency.
func Zero(currencyCode string) *Money {
	return New(0, currencyCode)
}

// Amount returns the value in minor units.
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// Currency returns the ISO-4217 currency code.
func (m *Money) Currency() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Currency().Code
}

// IsZero reports whether the amount is exactly zero.
func (m *Money) IsZero() bool {
	return m.Amount() == 0
}

// IsNegative reports whether the amount is below zero. Extraction encodes
// credits as negative amounts.
func (m *Money) IsNegative() bool {
	return m.Amount() < 0
}

// Abs returns the absolute value.
func (m *Money) Abs() *Money {
	return New(abs64(m.Amount()), m.Currency())
}

// Negate returns the value with its sign flipped.
func (m *Money) Negate() *Money {
	return New(-m.Amount(), m.Currency())
}

// Add adds two values. Returns ErrCurrencyMismatch for differing currencies.
func (m *Money) Add(other *Money) (*Money, error) {
	if m.Currency() != other.Currency() {
		return nil, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.Currency(), other.Currency())
	}
	sum, err := m.m.Add(other.m)
	if err != nil {
		return nil, err
	}
	return &Money{m: sum}, nil
}

// Display returns a locale-formatted string, e.g. "£1,234.56".
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Display()
}

// String returns the amount as a plain decimal string, e.g. "1234.56".
func (m *Money) String() string {
	return m.ToDecimal().StringFixed(2)
}

// ToDecimal converts back to a decimal in major units.
func (m *Money) ToDecimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	fraction := int32(m.m.Currency().Fraction)
	return decimal.New(m.Amount(), -fraction)
}

// Percentage computes percent of the amount with decimal precision, for
// interest projections on extracted balances.
func (m *Money) Percentage(percent decimal.Decimal) *Money {
	result := m.ToDecimal().Mul(percent).Div(decimal.NewFromInt(100))
	return NewFromDecimal(result, m.Currency())
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
