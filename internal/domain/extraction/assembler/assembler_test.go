package assembler

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finatlas/statement-pipeline/internal/domain/extraction/columns"
	"github.com/finatlas/statement-pipeline/internal/domain/extraction/table"
)

func fixedClock(year int, month time.Month, day int) func() time.Time {
	return func() time.Time {
		return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
	}
}

func gridOf(fields ...map[columns.Role]string) *table.Grid {
	g := &table.Grid{}
	for _, f := range fields {
		g.Records = append(g.Records, table.Record{Fields: f})
	}
	return g
}

func TestFromGrid(t *testing.T) {
	a := New(nil)

	t.Run("basic debit row", func(t *testing.T) {
		txs := a.FromGrid(gridOf(map[columns.Role]string{
			columns.RoleDate:        "01/02/2024",
			columns.RoleDescription: "TESCO STORES",
			columns.RoleAmount:      "£12.50",
			columns.RoleBalance:     "£987.50",
		}), "02/01/2006")

		require.Len(t, txs, 1)
		tx := txs[0]
		assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), tx.Date)
		assert.Equal(t, "TESCO STORES", tx.Description)
		assert.True(t, tx.Amount.Equal(decimal.RequireFromString("12.50")))
		require.NotNil(t, tx.Balance)
		assert.True(t, tx.Balance.Equal(decimal.RequireFromString("987.50")))
	})

	t.Run("credit marker negates amount", func(t *testing.T) {
		txs := a.FromGrid(gridOf(map[columns.Role]string{
			columns.RoleDate:   "03/02/2024",
			columns.RoleAmount: "£45.00 CR",
		}), "02/01/2006")

		require.Len(t, txs, 1)
		assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("-45.00")))
	})

	t.Run("debit and credit column pair", func(t *testing.T) {
		txs := a.FromGrid(gridOf(
			map[columns.Role]string{
				columns.RoleDate:  "01/02/2024",
				columns.RoleDebit: "20.00",
			},
			map[columns.Role]string{
				columns.RoleDate:   "02/02/2024",
				columns.RoleCredit: "100.00",
			},
		), "02/01/2006")

		require.Len(t, txs, 2)
		assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("20.00")))
		assert.True(t, txs[1].Amount.Equal(decimal.RequireFromString("-100.00")))
	})

	t.Run("rows without date or amount are dropped", func(t *testing.T) {
		txs := a.FromGrid(gridOf(
			map[columns.Role]string{columns.RoleDescription: "TOTAL THIS PERIOD"},
			map[columns.Role]string{columns.RoleDate: "01/02/2024", columns.RoleDescription: "no amount"},
			map[columns.Role]string{columns.RoleAmount: "9.99", columns.RoleDescription: "no date"},
		), "02/01/2006")
		assert.Empty(t, txs)
	})

	t.Run("unparseable balance is left nil", func(t *testing.T) {
		txs := a.FromGrid(gridOf(map[columns.Role]string{
			columns.RoleDate:    "01/02/2024",
			columns.RoleAmount:  "5.00",
			columns.RoleBalance: "OD",
		}), "02/01/2006")
		require.Len(t, txs, 1)
		assert.Nil(t, txs[0].Balance)
	})
}

func TestYearInference(t *testing.T) {
	// Processing in February 2026: January belongs to this year, months
	// after February cannot have happened yet and belong to 2025.
	a := New(nil).WithClock(fixedClock(2026, time.February, 15))

	t.Run("earlier month keeps current year", func(t *testing.T) {
		txs := a.FromGrid(gridOf(map[columns.Role]string{
			columns.RoleDate:   "05 Jan",
			columns.RoleAmount: "10.00",
		}), "")
		require.Len(t, txs, 1)
		assert.Equal(t, time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC), txs[0].Date)
	})

	t.Run("later month falls back a year", func(t *testing.T) {
		txs := a.FromGrid(gridOf(map[columns.Role]string{
			columns.RoleDate:   "05 Mar",
			columns.RoleAmount: "10.00",
		}), "")
		require.Len(t, txs, 1)
		assert.Equal(t, time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC), txs[0].Date)
	})

	t.Run("full month name", func(t *testing.T) {
		txs := a.FromGrid(gridOf(map[columns.Role]string{
			columns.RoleDate:   "12 December",
			columns.RoleAmount: "10.00",
		}), "")
		require.Len(t, txs, 1)
		assert.Equal(t, 2025, txs[0].Date.Year())
	})
}

func TestFromText(t *testing.T) {
	a := New(nil)

	t.Run("matches transaction shaped lines", func(t *testing.T) {
		text := "CREDIT CARD STATEMENT\n" +
			"01/02/2024 TESCO STORES 2041 12.50\n" +
			"03/02/2024 PAYMENT RECEIVED THANK YOU 45.00 CR\n" +
			"Minimum payment due\n" +
			"05/02/2024 COFFEE SHOP £3.20\n"

		txs := a.FromText(text, "02/01/2006")
		require.Len(t, txs, 3)

		assert.Equal(t, "TESCO STORES 2041", txs[0].Description)
		assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("12.50")))

		assert.True(t, txs[1].Amount.Equal(decimal.RequireFromString("-45.00")))
		assert.Equal(t, "PAYMENT RECEIVED THANK YOU", txs[1].Description)

		assert.True(t, txs[2].Amount.Equal(decimal.RequireFromString("3.20")))
	})

	t.Run("no transaction lines", func(t *testing.T) {
		assert.Empty(t, a.FromText("Dear customer, thank you.", ""))
	})
}

func TestStatementMetadata(t *testing.T) {
	t.Run("starting balance", func(t *testing.T) {
		b := StartingBalance("Previous balance: £1,234.56\nPayments received")
		require.NotNil(t, b)
		assert.True(t, b.Equal(decimal.RequireFromString("1234.56")))
	})

	t.Run("balance brought forward", func(t *testing.T) {
		b := StartingBalance("Balance brought forward £320.00")
		require.NotNil(t, b)
		assert.True(t, b.Equal(decimal.RequireFromString("320.00")))
	})

	t.Run("no balance", func(t *testing.T) {
		assert.Nil(t, StartingBalance("no figures here"))
	})

	t.Run("interest rate keyword first", func(t *testing.T) {
		r := InterestRate("Interest rate on purchases 24.9% per annum")
		require.NotNil(t, r)
		assert.True(t, r.Equal(decimal.RequireFromString("24.9")))
	})

	t.Run("percent before keyword", func(t *testing.T) {
		r := InterestRate("Representative 39.9% APR variable")
		require.NotNil(t, r)
		assert.True(t, r.Equal(decimal.RequireFromString("39.9")))
	})

	t.Run("bare percentage is ignored", func(t *testing.T) {
		assert.Nil(t, InterestRate("Your cashback is 1%"))
	})
}

func TestPayeeLabel(t *testing.T) {
	cases := []struct {
		desc string
		want string
	}{
		{"TESCO STORES 2041", "TESCO STORES"},
		{"AMAZON MKTPLACE XX4821", "AMAZON MKTPLACE"},
		{"CARD PAYMENT 12FEB24 COSTA", "CARD PAYMENT 12FEB24 COSTA"},
		{"DIRECT DEBIT REF 00918273", "DIRECT DEBIT"},
		{"COFFEE SHOP", "COFFEE SHOP"},
		{"1234 5678", ""},
		{"", ""},
	}
	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.want, payeeLabel(tc.desc))
		})
	}
}
