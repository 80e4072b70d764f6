// Package calcom adapts the Cal.com v2 API to application.BookingGateway.
package calcom

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"lessonquote-service/internal/application"
	"lessonquote-service/internal/domain"
	"lessonquote-service/internal/infrastructure/httpx"

	"go.uber.org/zap"
)

const (
	slotsPath    = "/v2/slots"
	bookingsPath = "/v2/bookings"

	slotsAPIVersion    = "2024-09-04"
	bookingsAPIVersion = "2024-08-13"
)

var (
	ErrSlotTaken       = fmt.Errorf("calcom: %w", application.ErrSlotUnavailable)
	ErrInvalidResponse = errors.New("calcom: invalid response")
)

// EventTypeSlug maps a lesson selection to the Cal.com event type.
func EventTypeSlug(ct domain.CourseType, durationMinutes int) string {
	return fmt.Sprintf("%s-%d", ct, durationMinutes)
}

type Client struct {
	baseURL  string
	username string
	// reads are retried, booking creation is not
	read  *httpx.Client
	write *httpx.Client
	log   *zap.Logger
}

var _ application.BookingGateway = (*Client)(nil)

func NewClient(baseURL, apiKey, username string, timeout time.Duration, log *zap.Logger) *Client {
	return NewClientWithHTTP(baseURL, apiKey, username, &http.Client{Timeout: timeout}, log)
}

func NewClientWithHTTP(baseURL, apiKey, username string, hc *http.Client, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		read:     &httpx.Client{HTTP: hc, Token: apiKey, Log: log},
		write:    &httpx.Client{HTTP: hc, Token: apiKey, NewBackOff: httpx.NoRetry, Log: log},
		log:      log,
	}
}

type slotsResponse struct {
	Status string                `json:"status"`
	Data   map[string][]slotItem `json:"data"`
}

type slotItem struct {
	Start time.Time `json:"start"`
}

func (c *Client) ListSlots(ctx context.Context, q application.SlotQuery) ([]domain.Slot, error) {
	u, err := url.Parse(c.baseURL + slotsPath)
	if err != nil {
		return nil, fmt.Errorf("calcom: invalid base url: %w", err)
	}
	v := u.Query()
	v.Set("eventTypeSlug", EventTypeSlug(q.CourseType, q.DurationMinutes))
	v.Set("username", c.username)
	v.Set("start", q.From.UTC().Format(time.RFC3339))
	v.Set("end", q.To.UTC().Format(time.RFC3339))
	if q.TimeZone != "" {
		v.Set("timeZone", q.TimeZone)
	}
	u.RawQuery = v.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("calcom: create request: %w", err)
	}
	req.Header.Set("cal-api-version", slotsAPIVersion)

	var res slotsResponse
	if err := c.read.DoJSON(ctx, req, &res); err != nil {
		return nil, fmt.Errorf("calcom: list slots: %w", err)
	}
	if res.Status != "success" {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidResponse, res.Status)
	}

	length := time.Duration(q.DurationMinutes) * time.Minute
	var out []domain.Slot
	for _, day := range res.Data {
		for _, s := range day {
			out = append(out, domain.Slot{Start: s.Start.UTC(), End: s.Start.UTC().Add(length)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

type bookingAttendee struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	TimeZone string `json:"timeZone"`
}

type bookingBody struct {
	Start         string            `json:"start"`
	EventTypeSlug string            `json:"eventTypeSlug"`
	Username      string            `json:"username"`
	Attendee      bookingAttendee   `json:"attendee"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

type bookingResponse struct {
	Status string `json:"status"`
	Data   struct {
		ID     int64     `json:"id"`
		UID    string    `json:"uid"`
		Status string    `json:"status"`
		Start  time.Time `json:"start"`
		End    time.Time `json:"end"`
	} `json:"data"`
}

func (c *Client) CreateBooking(ctx context.Context, r domain.BookingRequest) (domain.Booking, error) {
	tz := r.Attendee.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	body, err := json.Marshal(bookingBody{
		Start:         r.Start.UTC().Format(time.RFC3339),
		EventTypeSlug: EventTypeSlug(r.CourseType, r.DurationMinutes),
		Username:      c.username,
		Attendee:      bookingAttendee{Name: r.Attendee.Name, Email: r.Attendee.Email, TimeZone: tz},
		Metadata: map[string]string{
			"user_id":       r.UserID,
			"quantity":      fmt.Sprint(r.Quantity),
			"display_price": r.Quote.DisplayPrice,
			"vip":           fmt.Sprint(r.Quote.IsVIP),
		},
	})
	if err != nil {
		return domain.Booking{}, fmt.Errorf("calcom: encode booking: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+bookingsPath, bytes.NewReader(body))
	if err != nil {
		return domain.Booking{}, fmt.Errorf("calcom: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("cal-api-version", bookingsAPIVersion)

	var res bookingResponse
	if err := c.write.DoJSON(ctx, req, &res); err != nil {
		var se *httpx.StatusError
		if errors.As(err, &se) && (se.Code == http.StatusConflict || se.Code == http.StatusBadRequest) {
			c.log.Warn("calcom.booking_rejected", zap.Int("status", se.Code), zap.String("body", se.Body))
			return domain.Booking{}, fmt.Errorf("%w: %w", ErrSlotTaken, err)
		}
		return domain.Booking{}, fmt.Errorf("calcom: create booking: %w", err)
	}
	if res.Status != "success" || res.Data.UID == "" {
		return domain.Booking{}, fmt.Errorf("%w: status %q", ErrInvalidResponse, res.Status)
	}
	return domain.Booking{
		ID:     res.Data.UID,
		Status: res.Data.Status,
		Start:  res.Data.Start.UTC(),
		End:    res.Data.End.UTC(),
	}, nil
}
