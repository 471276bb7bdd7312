package columns

import (
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggest(t *testing.T) {
	t.Run("minimal viable mapping", func(t *testing.T) {
		headers := []string{"Date", "Balance"}
		rows := [][]string{
			{"01/03/2024", "1000.00"},
			{"02/03/2024", "995.50"},
			{"03/03/2024", "990.00"},
			{"04/03/2024", "985.00"},
			{"05/03/2024", "980.00"},
		}

		s := Suggest(headers, rows)

		date, ok := s.Fields[RoleDate]
		require.True(t, ok)
		assert.Equal(t, "Date", date.Header)
		assert.Equal(t, 0, date.Column)

		balance, ok := s.Fields[RoleBalance]
		require.True(t, ok)
		assert.Equal(t, "Balance", balance.Header)
		assert.Equal(t, 1, balance.Column)

		assert.Empty(t, s.Missing, "date + balance satisfies the mandatory set")
	})

	t.Run("full current account export", func(t *testing.T) {
		headers := []string{"Transaction Date", "Transaction Details", "Money Out", "Money In", "Balance"}
		rows := [][]string{
			{"01/03/2024", "TESCO STORES", "12.50", "", "987.50"},
			{"02/03/2024", "SALARY ACME LTD", "", "2000.00", "2987.50"},
			{"03/03/2024", "COUNCIL TAX", "145.00", "", "2842.50"},
		}

		s := Suggest(headers, rows)

		assert.Equal(t, 0, s.Fields[RoleDate].Column)
		assert.Equal(t, 1, s.Fields[RoleDescription].Column)
		assert.Equal(t, 2, s.Fields[RoleDebit].Column)
		assert.Equal(t, 3, s.Fields[RoleCredit].Column)
		assert.Equal(t, 4, s.Fields[RoleBalance].Column)
		assert.Empty(t, s.Missing)
	})

	t.Run("confidence bounded", func(t *testing.T) {
		s := Suggest([]string{"Date", "Amount"}, [][]string{{"01/03/2024", "5.00"}})
		for role, f := range s.Fields {
			assert.GreaterOrEqual(t, f.Confidence, 0.0, role)
			assert.LessOrEqual(t, f.Confidence, 1.0, role)
		}
		assert.Equal(t, 1.0, s.Fields[RoleDate].Confidence)
	})

	t.Run("missing mandatory roles reported not failed", func(t *testing.T) {
		s := Suggest([]string{"Foo", "Bar"}, nil)
		assert.Contains(t, s.Missing, RoleDate)
		assert.Contains(t, s.Missing, RoleAmount)
	})

	t.Run("anonymous numeric column stays unmapped", func(t *testing.T) {
		// Every monetary validator accepts a numeric column; without a
		// name signal none of amount, debit, credit or balance may claim
		// it, or all four would bind to the same column.
		s := Suggest([]string{"Col1", "Col2"}, [][]string{
			{"01/03/2024", "5.00"},
			{"02/03/2024", "7.50"},
		})
		for _, role := range []Role{RoleAmount, RoleDebit, RoleCredit, RoleBalance} {
			assert.NotContains(t, s.Fields, role)
		}
	})

	t.Run("near constant column is not a description", func(t *testing.T) {
		headers := []string{"Date", "Details", "Amount"}
		var rows [][]string
		for i := 0; i < 10; i++ {
			rows = append(rows, []string{fmt.Sprintf("%02d/03/2024", i+1), "PAYMENT", "5.00"})
		}
		s := Suggest(headers, rows)
		// Details still maps by name but without the validator bonus.
		withConstant := s.Fields[RoleDescription].Confidence

		for i := range rows {
			rows[i][1] = gofakeit.Company()
		}
		s = Suggest(headers, rows)
		withVaried := s.Fields[RoleDescription].Confidence

		assert.Greater(t, withVaried, withConstant)
	})
}

func TestDetectAccountType(t *testing.T) {
	cases := []struct {
		name    string
		samples []string
		want    AccountType
	}{
		{"lifetime isa", []string{"LIFETIME ISA BONUS", "DEPOSIT"}, AccountLISA},
		{"isa standalone", []string{"ISA TRANSFER IN", "INTEREST"}, AccountISA},
		{"premium bonds", []string{"PREMIUM BONDS PRIZE"}, AccountPremiumBonds},
		{"current account", []string{"DIRECT DEBIT BRITISH GAS", "CARD PAYMENT"}, AccountCurrent},
		{"default savings", []string{"MISC PAYMENT", "TRANSFER"}, AccountSavings},
		{"visa does not trigger isa", []string{"VISA PAYMENT LONDON"}, AccountSavings},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectAccountType(tc.samples))
		})
	}
}

func TestDetectBank(t *testing.T) {
	t.Run("from filename", func(t *testing.T) {
		name, ok := DetectBank("barclays_statement_march.csv", "")
		require.True(t, ok)
		assert.Equal(t, "Barclays", name)
	})

	t.Run("from document text", func(t *testing.T) {
		name, ok := DetectBank("statement.pdf", "Your Santander account summary for March")
		require.True(t, ok)
		assert.Equal(t, "Santander", name)
	})

	t.Run("fuzzy ocr noise", func(t *testing.T) {
		name, ok := DetectBank("scan001.pdf", "M0NZO current account")
		require.True(t, ok)
		assert.Equal(t, "Monzo", name)
	})

	t.Run("no match", func(t *testing.T) {
		_, ok := DetectBank("statement.csv", "generic text with no provider")
		assert.False(t, ok)
	})
}
