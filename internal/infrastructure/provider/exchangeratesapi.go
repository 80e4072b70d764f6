package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lessonquote-service/internal/application"
	"lessonquote-service/internal/domain"
	"lessonquote-service/internal/infrastructure/httpx"
)

const (
	exchangeRatesLatestPath = "/v1/latest"
	exchangeRatesSource     = "exchangeratesapi"
)

// ExchangeRatesAPIProvider fetches EUR-based rates for every supported
// currency in a single call.
type ExchangeRatesAPIProvider struct {
	BaseURL string
	APIKey  string
	Client  *httpx.Client
	Now     func() time.Time
}

var _ application.RateProvider = (*ExchangeRatesAPIProvider)(nil)

type xrLatestResp struct {
	Success   bool               `json:"success"`
	Timestamp int64              `json:"timestamp"`
	Base      string             `json:"base"`
	Date      string             `json:"date"`
	Rates     map[string]float64 `json:"rates"`
	Error     *struct {
		Code int    `json:"code"`
		Info string `json:"info"`
	} `json:"error,omitempty"`
}

func (p *ExchangeRatesAPIProvider) Fetch(ctx context.Context) (domain.RateSnapshot, error) {
	if p.BaseURL == "" || p.APIKey == "" {
		return domain.RateSnapshot{}, errors.New("exchangeratesapi: missing configuration")
	}

	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return domain.RateSnapshot{}, fmt.Errorf("exchangeratesapi: invalid base url: %w", err)
	}
	u.Path = exchangeRatesLatestPath
	q := u.Query()
	q.Set("access_key", p.APIKey)
	q.Set("symbols", strings.Join(domain.SupportedCodes(), ","))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.RateSnapshot{}, fmt.Errorf("exchangeratesapi: create request: %w", err)
	}

	client := p.Client
	if client == nil {
		client = &httpx.Client{}
	}
	var body xrLatestResp
	if err := client.DoJSON(ctx, req, &body); err != nil {
		return domain.RateSnapshot{}, fmt.Errorf("exchangeratesapi: %w", err)
	}
	if !body.Success {
		if body.Error != nil {
			return domain.RateSnapshot{}, fmt.Errorf("exchangeratesapi: %d %s", body.Error.Code, body.Error.Info)
		}
		return domain.RateSnapshot{}, errors.New("exchangeratesapi: unsuccessful response")
	}

	base, err := domain.ParseCurrency(body.Base)
	if err != nil {
		return domain.RateSnapshot{}, fmt.Errorf("exchangeratesapi: base %q: %w", body.Base, err)
	}
	rates := make(map[domain.Currency]float64, len(body.Rates)+1)
	rates[base] = 1
	for code, v := range body.Rates {
		c, err := domain.ParseCurrency(code)
		if err != nil || v <= 0 {
			continue
		}
		rates[c] = v
	}
	for _, code := range domain.SupportedCodes() {
		if _, ok := rates[domain.Currency(code)]; !ok {
			return domain.RateSnapshot{}, fmt.Errorf("exchangeratesapi: missing rate for %s", code)
		}
	}

	fetchedAt := p.now()
	if body.Timestamp > 0 {
		fetchedAt = time.Unix(body.Timestamp, 0).UTC()
	}
	return domain.RateSnapshot{
		Base:      base,
		Rates:     rates,
		FetchedAt: fetchedAt,
		Source:    exchangeRatesSource,
	}, nil
}

func (p *ExchangeRatesAPIProvider) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now().UTC()
}
