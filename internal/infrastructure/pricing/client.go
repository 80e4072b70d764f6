// Package pricing calls the remote stored procedures that price lessons and
// report prepaid credits.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"lessonquote-service/internal/application"
	"lessonquote-service/internal/domain"
	"lessonquote-service/internal/infrastructure/httpx"

	"go.uber.org/zap"
)

const (
	calculatePricePath = "/rest/v1/rpc/calculate_lesson_price"
	userCreditsPath    = "/rest/v1/rpc/get_user_credits"
)

var (
	ErrRejected        = errors.New("pricing: request rejected")
	ErrInvalidResponse = errors.New("pricing: invalid response")
)

// Client talks to the pricing RPC endpoints. Calls are never retried: a
// failed quote is shown as unavailable and recomputed on the next request.
type Client struct {
	baseURL string
	http    *httpx.Client
	log     *zap.Logger
}

var (
	_ application.PricingService = (*Client)(nil)
	_ application.CreditLedger   = (*Client)(nil)
)

func NewClient(baseURL, apiKey string, timeout time.Duration, log *zap.Logger) *Client {
	return NewClientWithHTTP(baseURL, apiKey, &http.Client{Timeout: timeout}, log)
}

func NewClientWithHTTP(baseURL, apiKey string, hc *http.Client, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &httpx.Client{
			HTTP:       hc,
			Token:      apiKey,
			Header:     http.Header{"Apikey": []string{apiKey}},
			NewBackOff: httpx.NoRetry,
			Log:        log,
		},
		log: log,
	}
}

type priceParams struct {
	UserID     string `json:"p_user_id"`
	CourseType string `json:"p_course_type"`
	Duration   int    `json:"p_duration"`
	Quantity   int    `json:"p_quantity"`
}

type priceResult struct {
	Success  bool     `json:"success"`
	Price    *float64 `json:"price"`
	Currency string   `json:"currency"`
	IsVIP    bool     `json:"is_vip"`
	Error    string   `json:"error"`
}

func (c *Client) CalculatePrice(ctx context.Context, req application.PriceRequest) (domain.PriceQuote, error) {
	var res priceResult
	err := c.http.PostJSON(ctx, c.baseURL+calculatePricePath, priceParams{
		UserID:     req.UserID,
		CourseType: string(req.CourseType),
		Duration:   req.DurationMinutes,
		Quantity:   req.Quantity,
	}, &res)
	if err != nil {
		c.log.Warn("pricing.rpc_failed",
			zap.String("course_type", string(req.CourseType)),
			zap.Int("duration", req.DurationMinutes),
			zap.Int("quantity", req.Quantity),
			zap.Error(err),
		)
		return domain.PriceQuote{}, fmt.Errorf("%w: pricing: %w", application.ErrPricingUnavailable, err)
	}
	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = "unspecified failure"
		}
		c.log.Warn("pricing.rejected", zap.String("course_type", string(req.CourseType)), zap.String("reason", msg))
		return domain.PriceQuote{}, fmt.Errorf("%w: %w: %s", application.ErrPricingUnavailable, ErrRejected, msg)
	}
	if res.Price == nil || math.IsNaN(*res.Price) || *res.Price < 0 {
		return domain.PriceQuote{}, fmt.Errorf("%w: %w: missing or negative price", application.ErrPricingUnavailable, ErrInvalidResponse)
	}
	cur, err := domain.ParseCurrency(res.Currency)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("%w: %w: currency %q", application.ErrPricingUnavailable, ErrInvalidResponse, res.Currency)
	}
	return domain.PriceQuote{Price: *res.Price, Currency: cur, IsVIP: res.IsVIP}, nil
}

type creditParams struct {
	UserID     string `json:"p_user_id"`
	CourseType string `json:"p_course_type"`
	Duration   int    `json:"p_duration"`
}

func (c *Client) RemainingCredits(ctx context.Context, userID string, courseType domain.CourseType, durationMinutes int) (int, error) {
	var n *int
	err := c.http.PostJSON(ctx, c.baseURL+userCreditsPath, creditParams{
		UserID:     userID,
		CourseType: string(courseType),
		Duration:   durationMinutes,
	}, &n)
	if err != nil {
		return 0, fmt.Errorf("pricing: credits: %w", err)
	}
	if n == nil {
		return 0, nil
	}
	if *n < 0 {
		return 0, fmt.Errorf("%w: negative credit balance", ErrInvalidResponse)
	}
	return *n, nil
}
