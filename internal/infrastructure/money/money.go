// Package money renders amounts for display using a per-currency table.
package money

import (
	_ "embed"
	"fmt"
	"math"
	"strconv"
	"strings"

	"lessonquote-service/internal/application"
	"lessonquote-service/internal/domain"

	"github.com/BurntSushi/toml"
)

//go:embed currencies.toml
var defaultTable []byte

type Rule struct {
	Symbol      string `toml:"symbol"`
	Decimals    int    `toml:"decimals"`
	SymbolFirst bool   `toml:"symbol_first"`
	Space       bool   `toml:"space"`
	Thousands   string `toml:"thousands"`
	Decimal     string `toml:"decimal"`
}

type Formatter struct {
	rules map[domain.Currency]Rule
}

var _ application.MoneyFormatter = (*Formatter)(nil)

// NewFormatter loads the embedded currency table.
func NewFormatter() (*Formatter, error) {
	return Parse(defaultTable)
}

func Parse(data []byte) (*Formatter, error) {
	var raw map[string]Rule
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("money: decode table: %w", err)
	}
	rules := make(map[domain.Currency]Rule, len(raw))
	for code, r := range raw {
		c, err := domain.ParseCurrency(code)
		if err != nil {
			return nil, fmt.Errorf("money: %q: %w", code, err)
		}
		if r.Decimals < 0 || r.Decimals > 4 {
			return nil, fmt.Errorf("money: %s: decimals out of range", c)
		}
		if r.Decimal == "" {
			r.Decimal = "."
		}
		rules[c] = r
	}
	return &Formatter{rules: rules}, nil
}

func (f *Formatter) Decimals(c domain.Currency) int {
	if r, ok := f.rules[c]; ok {
		return r.Decimals
	}
	return 2
}

// Format renders amount with the currency's symbol and separators. Unknown
// currencies fall back to "<amount> <CODE>".
func (f *Formatter) Format(amount float64, c domain.Currency) string {
	r, ok := f.rules[c]
	if !ok {
		return strconv.FormatFloat(amount, 'f', 2, 64) + " " + string(c)
	}
	neg := amount < 0
	num := groupDigits(math.Abs(amount), r)

	sep := ""
	if r.Space {
		sep = " "
	}
	var out string
	if r.SymbolFirst {
		out = r.Symbol + sep + num
	} else {
		out = num + sep + r.Symbol
	}
	if neg {
		out = "-" + out
	}
	return out
}

func groupDigits(v float64, r Rule) string {
	s := strconv.FormatFloat(v, 'f', r.Decimals, 64)
	intPart, frac, _ := strings.Cut(s, ".")
	if r.Thousands != "" && len(intPart) > 3 {
		var b strings.Builder
		lead := len(intPart) % 3
		if lead > 0 {
			b.WriteString(intPart[:lead])
		}
		for i := lead; i < len(intPart); i += 3 {
			if b.Len() > 0 {
				b.WriteString(r.Thousands)
			}
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}
	if frac == "" {
		return intPart
	}
	return intPart + r.Decimal + frac
}
