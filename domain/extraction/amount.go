package extraction

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// amountRules are tried in order; the first rule whose number parses wins.
var amountRules = []*regexp.Regexp{
	regexp.MustCompile(`\$(\d+\.?\d*)`),
	regexp.MustCompile(`(?i)(\d+\.?\d*)\s*dollars?`),
	regexp.MustCompile(`(?i)(\d+\.?\d*)\s*USD`),
	regexp.MustCompile(`(\d+\.?\d*)`),
}

// ExtractAmount finds the most likely monetary amount in text.
// The result is invalid when nothing matched; that is not an error.
func ExtractAmount(text string) decimal.NullDecimal {
	for _, rule := range amountRules {
		m := rule.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		amount, err := decimal.NewFromString(m[1])
		if err != nil {
			continue
		}
		return decimal.NewNullDecimal(amount)
	}
	return decimal.NullDecimal{}
}
