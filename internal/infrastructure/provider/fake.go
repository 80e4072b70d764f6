package provider

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"lessonquote-service/internal/application"
	"lessonquote-service/internal/domain"
)

// Ensure Fake implements application.RateProvider.
var _ application.RateProvider = (*Fake)(nil)

// DefaultFakeRates are EUR-based and roughly realistic.
var DefaultFakeRates = map[domain.Currency]float64{
	"EUR": 1,
	"USD": 1.0916,
	"GBP": 0.8532,
	"CHF": 0.9415,
	"PLN": 4.3120,
	"MXN": 18.7350,
}

type Fake struct {
	rates map[domain.Currency]float64
}

func NewFake(rates map[domain.Currency]float64) *Fake {
	if len(rates) == 0 {
		rates = DefaultFakeRates
	}
	return &Fake{rates: rates}
}

// ParseFakeRates reads "USD=1.09,GBP=0.85". EUR is always 1.
func ParseFakeRates(s string) (map[domain.Currency]float64, error) {
	out := map[domain.Currency]float64{"EUR": 1}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, val, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("fake rates: malformed entry %q", part)
		}
		c, err := domain.ParseCurrency(code)
		if err != nil {
			return nil, fmt.Errorf("fake rates: %q: %w", code, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("fake rates: bad rate for %s", c)
		}
		out[c] = v
	}
	return out, nil
}

func (f *Fake) Fetch(_ context.Context) (domain.RateSnapshot, error) {
	rates := make(map[domain.Currency]float64, len(f.rates))
	for k, v := range f.rates {
		rates[k] = v
	}
	return domain.RateSnapshot{
		Base:      "EUR",
		Rates:     rates,
		FetchedAt: time.Now().UTC(),
		Source:    "fake",
	}, nil
}
