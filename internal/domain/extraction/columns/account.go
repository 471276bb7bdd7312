package columns

import (
	"regexp"
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// AccountType is the product category inferred from transaction descriptions.
type AccountType string

const (
	AccountLISA         AccountType = "Lifetime ISA"
	AccountISA          AccountType = "ISA"
	AccountPremiumBonds AccountType = "Premium Bonds"
	AccountCurrent      AccountType = "Current Account"
	AccountSavings      AccountType = "Savings"
)

const maxAccountTypeSamples = 20

// accountCategory pairs a category with its keyword set. Order matters:
// LISA is checked before ISA because every LISA keyword contains "ISA".
var accountCategories = []struct {
	accountType AccountType
	keywords    []string
}{
	{AccountLISA, []string{"LISA", "LIFETIME ISA"}},
	{AccountISA, []string{"ISA", "INDIVIDUAL SAVINGS"}},
	{AccountPremiumBonds, []string{"PREMIUM BOND", "PREMIUM BONDS", "ERNIE"}},
	{AccountCurrent, []string{"CURRENT ACCOUNT", "DIRECT DEBIT", "STANDING ORDER", "CARD PAYMENT"}},
	{AccountSavings, []string{"SAVINGS", "INTEREST PAID", "GROSS INTEREST"}},
}

// Short keywords hit inside longer words ("ISA" in "VISA"); confirm those
// with a word-boundary check after the multi-pattern scan.
var wordBoundary = regexp.MustCompile(`(?i)(^|[^A-Z0-9])(ISA|LISA)([^A-Z0-9]|$)`)

type accountMatcher struct {
	matcher  *ahocorasick.Matcher
	keywords []string
}

var accountMatchers = buildAccountMatchers()

func buildAccountMatchers() []accountMatcher {
	out := make([]accountMatcher, len(accountCategories))
	for i, cat := range accountCategories {
		out[i] = accountMatcher{
			matcher:  ahocorasick.NewStringMatcher(cat.keywords),
			keywords: cat.keywords,
		}
	}
	return out
}

// DetectAccountType scans up to 20 description samples for category keywords
// and returns the first matching category in table order. Defaults to
// Savings when nothing matches.
func DetectAccountType(samples []string) AccountType {
	if len(samples) > maxAccountTypeSamples {
		samples = samples[:maxAccountTypeSamples]
	}

	joined := strings.ToUpper(strings.Join(samples, "\n"))
	for i, cat := range accountCategories {
		hits := accountMatchers[i].matcher.Match([]byte(joined))
		for _, hit := range hits {
			kw := cat.keywords[hit]
			if len(kw) <= 4 && !wordBoundary.MatchString(joined) {
				continue
			}
			return cat.accountType
		}
	}
	return AccountSavings
}
