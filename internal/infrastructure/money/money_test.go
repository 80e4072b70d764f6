package money

import (
	"testing"

	"lessonquote-service/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	f, err := NewFormatter()
	require.NoError(t, err)

	cases := []struct {
		amount float64
		cur    domain.Currency
		want   string
	}{
		{12, "EUR", "€12.00"},
		{13.1, "USD", "$13.10"},
		{1234.5, "GBP", "£1,234.50"},
		{1234567.891, "USD", "$1,234,567.89"},
		{2500, "CHF", "CHF 2'500.00"},
		{1234.5, "PLN", "1 234,50 zł"},
		{-5, "EUR", "-€5.00"},
		{0.5, "MXN", "MX$0.50"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, f.Format(c.amount, c.cur), "%v %s", c.amount, c.cur)
	}
}

func TestDecimals(t *testing.T) {
	f, err := Parse([]byte("[USD]\nsymbol = \"$\"\ndecimals = 0\nsymbol_first = true\n"))
	require.NoError(t, err)
	require.Equal(t, 0, f.Decimals("USD"))
	require.Equal(t, "$13", f.Format(13.1, "USD"))
	require.Equal(t, 2, f.Decimals("EUR"))
	require.Equal(t, "12.00 EUR", f.Format(12, "EUR"))
}

func TestParse_RejectsUnknownCurrency(t *testing.T) {
	_, err := Parse([]byte("[XYZ]\nsymbol = \"x\"\n"))
	require.ErrorIs(t, err, domain.ErrUnsupportedCurrency)
}

func TestParse_EveryRuleHasSupportedCurrency(t *testing.T) {
	f, err := NewFormatter()
	require.NoError(t, err)
	for _, code := range domain.SupportedCodes() {
		_, ok := f.rules[domain.Currency(code)]
		require.True(t, ok, code)
	}
}
