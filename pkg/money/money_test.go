package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromDecimal(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		want     int64
	}{
		{"two decimal places", "1234.56", GBP, 123456},
		{"rounds half up", "0.005", GBP, 1},
		{"negative credit", "-45.00", GBP, -4500},
		{"unknown currency falls back to GBP", "10.00", "ZZZ", 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewFromDecimal(decimal.RequireFromString(tt.amount), tt.currency)
			assert.Equal(t, tt.want, m.Amount())
		})
	}
}

func TestArithmetic(t *testing.T) {
	t.Run("add same currency", func(t *testing.T) {
		sum, err := New(1250, GBP).Add(New(320, GBP))
		require.NoError(t, err)
		assert.Equal(t, int64(1570), sum.Amount())
	})

	t.Run("add mismatched currency", func(t *testing.T) {
		_, err := New(100, GBP).Add(New(100, EUR))
		assert.ErrorIs(t, err, ErrCurrencyMismatch)
	})

	t.Run("negate and abs", func(t *testing.T) {
		m := New(-4500, GBP)
		assert.True(t, m.IsNegative())
		assert.Equal(t, int64(4500), m.Abs().Amount())
		assert.Equal(t, int64(4500), m.Negate().Amount())
	})
}

func TestDisplayAndString(t *testing.T) {
	m := New(123456, GBP)
	assert.Equal(t, "£1,234.56", m.Display())
	assert.Equal(t, "1234.56", m.String())
	assert.True(t, m.ToDecimal().Equal(decimal.RequireFromString("1234.56")))
}

func TestPercentage(t *testing.T) {
	// 24.9% APR on a £1,000.00 balance.
	m := New(100000, GBP).Percentage(decimal.RequireFromString("24.9"))
	assert.Equal(t, int64(24900), m.Amount())
}

func TestNilSafety(t *testing.T) {
	var m *Money
	assert.Equal(t, int64(0), m.Amount())
	assert.Equal(t, "", m.Currency())
	assert.Equal(t, "", m.Display())
	assert.True(t, m.ToDecimal().IsZero())
}
