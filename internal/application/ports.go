package application

import (
	"context"
	"time"

	"lessonquote-service/internal/domain"
)

type PriceRequest struct {
	UserID          string
	CourseType      domain.CourseType
	DurationMinutes int
	Quantity        int
}

// PricingService computes lesson prices remotely. A failure payload from the
// remote side must be reported as an error wrapping ErrPricingUnavailable.
type PricingService interface {
	CalculatePrice(ctx context.Context, req PriceRequest) (domain.PriceQuote, error)
}

// CreditLedger reports prepaid lesson credits mirrored in the remote database.
type CreditLedger interface {
	RemainingCredits(ctx context.Context, userID string, courseType domain.CourseType, durationMinutes int) (int, error)
}

type RateProvider interface {
	Fetch(ctx context.Context) (domain.RateSnapshot, error)
}

// CachedRates is a shared snapshot together with the time it was cached.
type CachedRates struct {
	Snapshot domain.RateSnapshot
	StoredAt time.Time
}

type RateCache interface {
	Get(ctx context.Context) (CachedRates, bool, error)
	Put(ctx context.Context, snap domain.RateSnapshot) error
}

type RateRepo interface {
	GetLatest(ctx context.Context) (domain.RateSnapshot, error)
	Save(ctx context.Context, snap domain.RateSnapshot) error
}

type SlotQuery struct {
	CourseType      domain.CourseType
	DurationMinutes int
	From            time.Time
	To              time.Time
	TimeZone        string
}

type BookingGateway interface {
	ListSlots(ctx context.Context, q SlotQuery) ([]domain.Slot, error)
	CreateBooking(ctx context.Context, req domain.BookingRequest) (domain.Booking, error)
}

type MoneyFormatter interface {
	Format(amount float64, c domain.Currency) string
	Decimals(c domain.Currency) int
}

type MetricsRecorder interface {
	QuoteLookup(hit bool)
	QuoteDiscarded()
	PricingFailed()
}

type noopMetrics struct{}

func (noopMetrics) QuoteLookup(bool) {}
func (noopMetrics) QuoteDiscarded()  {}
func (noopMetrics) PricingFailed()   {}
