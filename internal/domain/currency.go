package domain

import (
	"regexp"
	"sort"
	"strings"
)

// Currency is an ISO 4217 code.
type Currency string

var SupportedCurrency = map[Currency]bool{
	"EUR": true,
	"USD": true,
	"GBP": true,
	"CHF": true,
	"PLN": true,
	"MXN": true,
}

var currencyRe = regexp.MustCompile(`^[A-Z]{3}$`)

// ParseCurrency normalises case and checks the code against SupportedCurrency.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !currencyRe.MatchString(string(c)) || !SupportedCurrency[c] {
		return "", ErrUnsupportedCurrency
	}
	return c, nil
}

func (c Currency) Valid() bool {
	return currencyRe.MatchString(string(c)) && SupportedCurrency[c]
}

// SupportedCodes returns the supported currencies in a stable order.
func SupportedCodes() []string {
	out := make([]string, 0, len(SupportedCurrency))
	for c := range SupportedCurrency {
		out = append(out, string(c))
	}
	sort.Strings(out)
	return out
}
