package application

import "errors"

var ErrNotFound = errors.New("not found")
var ErrConflict = errors.New("conflict")
var ErrBadRequest = errors.New("bad request")

var (
	// ErrPricingUnavailable covers transport failures, failure payloads and
	// conversion failures while computing a quote.
	ErrPricingUnavailable = errors.New("pricing unavailable")
	// ErrStaleQuote is returned when a pricing response arrives for a
	// selection that has since changed. It is an expected outcome, not a fault.
	ErrStaleQuote       = errors.New("stale quote discarded")
	ErrQuoteUnavailable = errors.New("no valid quote for current selection")
	ErrRatesUnavailable = errors.New("exchange rates unavailable")
	ErrSlotUnavailable  = errors.New("time slot unavailable")
)
