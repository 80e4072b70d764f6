package httpserver

import (
	"fmt"
	"time"

	"lessonquote-service/internal/application"
	"lessonquote-service/internal/domain"
)

type selectionBody struct {
	CourseType      *string    `json:"course_type,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	Quantity        *int       `json:"quantity,omitempty"`
	Currency        *string    `json:"currency,omitempty"`
	SlotStart       *time.Time `json:"slot_start,omitempty"`
	ClearSlot       bool       `json:"clear_slot,omitempty"`
}

func (b selectionBody) patch() (application.SelectionPatch, error) {
	var p application.SelectionPatch
	if b.CourseType != nil {
		ct, err := domain.ParseCourseType(*b.CourseType)
		if err != nil {
			return p, fmt.Errorf("course_type: %w", err)
		}
		p.CourseType = &ct
	}
	if b.Currency != nil {
		c, err := domain.ParseCurrency(*b.Currency)
		if err != nil {
			return p, fmt.Errorf("currency: %w", err)
		}
		p.Currency = &c
	}
	p.DurationMinutes = b.DurationMinutes
	p.Quantity = b.Quantity
	p.SlotStart = b.SlotStart
	p.ClearSlot = b.ClearSlot
	return p, nil
}

type selectionDTO struct {
	CourseType      string     `json:"course_type"`
	DurationMinutes int        `json:"duration_minutes"`
	Quantity        int        `json:"quantity"`
	Currency        string     `json:"currency"`
	SlotStart       *time.Time `json:"slot_start,omitempty"`
}

func toSelectionDTO(s application.Selection) selectionDTO {
	out := selectionDTO{
		CourseType:      string(s.CourseType),
		DurationMinutes: s.DurationMinutes,
		Quantity:        s.Quantity,
		Currency:        string(s.Currency),
	}
	if s.HasSlot() {
		t := s.SlotStart
		out.SlotStart = &t
	}
	return out
}

type sessionDTO struct {
	SessionID   string       `json:"session_id"`
	UserID      string       `json:"user_id"`
	Selection   selectionDTO `json:"selection"`
	QuoteCached bool         `json:"quote_cached"`
}

type quoteDTO struct {
	SessionID      string       `json:"session_id"`
	Selection      selectionDTO `json:"selection"`
	Available      bool         `json:"available"`
	DisplayPrice   string       `json:"display_price"`
	RawPrice       *float64     `json:"raw_price,omitempty"`
	SourceCurrency string       `json:"source_currency,omitempty"`
	IsVIP          bool         `json:"is_vip"`
	CanSubmit      bool         `json:"can_submit"`
	Credits        *int         `json:"credits,omitempty"`
}

func toQuoteDTO(v application.QuoteView) quoteDTO {
	out := quoteDTO{
		SessionID: v.SessionID,
		Selection: selectionDTO{
			CourseType:      string(v.Key.CourseType),
			DurationMinutes: v.Key.DurationMinutes,
			Quantity:        v.Key.Quantity,
			Currency:        string(v.Key.DisplayCurrency),
		},
		Available:    v.Available,
		DisplayPrice: v.DisplayPrice,
		CanSubmit:    v.CanSubmit,
		Credits:      v.Credits,
	}
	if v.Available {
		raw := v.Quote.RawPrice
		out.RawPrice = &raw
		out.SourceCurrency = string(v.Quote.SourceCurrency)
		out.IsVIP = v.Quote.IsVIP
	}
	return out
}

type slotDTO struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type bookingBody struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	TimeZone string `json:"time_zone"`
}

type bookingDTO struct {
	BookingID string    `json:"booking_id"`
	Status    string    `json:"status"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

type conversionDTO struct {
	Amount    float64 `json:"amount"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Converted float64 `json:"converted"`
	Display   string  `json:"display"`
}
