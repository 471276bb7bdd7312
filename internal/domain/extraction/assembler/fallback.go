package assembler

import (
	"regexp"
	"strings"

	"github.com/finatlas/statement-pipeline/internal/domain/extraction/columns"
)

// Pattern fallback for text without positional metadata (OCR output or
// native text where no table header was found). One combined expression
// matches a leading date-like token, free description text, and a trailing
// amount token with an optional credit marker.
var linePattern = regexp.MustCompile(
	`(?mi)^[ \t]*` +
		`(\d{1,2}[/. -](?:\d{1,2}|[a-z]{3,9})(?:[/. -]\d{2,4})?)` + // date token
		`[ \t]+(.*?)` + // description free text
		`[ \t]+([£$€]?-?\d[\d,]*(?:\.\d{1,2})?)` + // amount token
		`[ \t]*(cr|credit)?\.?[ \t]*$`)

const (
	patDate = iota + 1
	patDescription
	patAmount
	patCredit
)

// FromText scans recognized document text line by line for transaction
// shaped rows. The same sign convention applies: a trailing credit marker
// negates the amount.
func (a *Assembler) FromText(text, dateFormat string) []Transaction {
	var txs []Transaction
	for _, m := range linePattern.FindAllStringSubmatch(text, -1) {
		date, ok := a.ParseDate(m[patDate], dateFormat)
		if !ok {
			continue
		}
		amountRaw := m[patAmount]
		if m[patCredit] != "" {
			amountRaw += " CR"
		}
		amount, ok := a.SignedAmount(map[columns.Role]string{columns.RoleAmount: amountRaw})
		if !ok {
			continue
		}
		desc := strings.TrimSpace(m[patDescription])
		txs = append(txs, Transaction{
			Date:        date,
			Description: desc,
			Amount:      amount,
			Payee:       payeeLabel(desc),
		})
	}
	return txs
}
