package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"lessonquote-service/internal/domain"
)

var (
	ErrRemote = errors.New("remote error")
)

type fakePricing struct {
	mu    sync.Mutex
	calls int
	out   map[domain.CourseType]domain.PriceQuote
	err   error
}

func (f *fakePricing) CalculatePrice(_ context.Context, req PriceRequest) (domain.PriceQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return domain.PriceQuote{}, f.err
	}
	q, ok := f.out[req.CourseType]
	if !ok {
		return domain.PriceQuote{}, fmt.Errorf("%w: no price for %s", ErrPricingUnavailable, req.CourseType)
	}
	q.Price *= float64(req.Quantity)
	return q, nil
}

func (f *fakePricing) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRateProvider struct {
	mu    sync.Mutex
	calls int
	out   domain.RateSnapshot
	err   error
}

func (f *fakeRateProvider) Fetch(context.Context) (domain.RateSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return domain.RateSnapshot{}, f.err
	}
	return f.out, nil
}

type fakeRateCache struct {
	snap     domain.RateSnapshot
	storedAt time.Time
	set      bool
	puts     int
}

func (f *fakeRateCache) Get(context.Context) (CachedRates, bool, error) {
	return CachedRates{Snapshot: f.snap, StoredAt: f.storedAt}, f.set, nil
}

func (f *fakeRateCache) Put(_ context.Context, s domain.RateSnapshot) error {
	f.snap, f.set = s, true
	f.puts++
	return nil
}

type fakeRateRepo struct {
	saved []domain.RateSnapshot
	last  domain.RateSnapshot
	err   error
}

func (f *fakeRateRepo) GetLatest(context.Context) (domain.RateSnapshot, error) {
	if f.err != nil {
		return domain.RateSnapshot{}, f.err
	}
	if f.last.Empty() {
		return domain.RateSnapshot{}, ErrNotFound
	}
	return f.last, nil
}

func (f *fakeRateRepo) Save(_ context.Context, s domain.RateSnapshot) error {
	f.saved = append(f.saved, s)
	f.last = s
	return nil
}

// plainFormatter renders "<amount> <CODE>" with two decimals.
type plainFormatter struct{}

func (plainFormatter) Format(amount float64, c domain.Currency) string {
	return fmt.Sprintf("%.2f %s", amount, c)
}

func (plainFormatter) Decimals(domain.Currency) int { return 2 }

type fakeCredits struct {
	n   int
	err error
}

func (f fakeCredits) RemainingCredits(context.Context, string, domain.CourseType, int) (int, error) {
	return f.n, f.err
}

type fakeGateway struct {
	mu       sync.Mutex
	slots    []domain.Slot
	requests []domain.BookingRequest
	err      error
}

func (f *fakeGateway) ListSlots(_ context.Context, q SlotQuery) ([]domain.Slot, error) {
	return f.slots, f.err
}

func (f *fakeGateway) CreateBooking(_ context.Context, req domain.BookingRequest) (domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.Booking{}, f.err
	}
	f.requests = append(f.requests, req)
	return domain.Booking{
		ID:     fmt.Sprintf("bk-%d", len(f.requests)),
		Status: "accepted",
		Start:  req.Start,
		End:    req.Start.Add(time.Duration(req.DurationMinutes) * time.Minute),
	}, nil
}

type fakeIdem struct{ seen map[string]bool }

func (f *fakeIdem) TryReserve(_ context.Context, k string) (bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[k] {
		return false, nil
	}
	f.seen[k] = true
	return true, nil
}

func (f *fakeIdem) Release(_ context.Context, k string) error {
	delete(f.seen, k)
	return nil
}

type fakeClock struct{ t time.Time }

func (c fakeClock) Now() time.Time { return c.t }

type seqIDGen struct{ n int }

func (g *seqIDGen) NewID() string {
	g.n++
	return fmt.Sprintf("session-%d", g.n)
}

type countingMetrics struct {
	mu                          sync.Mutex
	hits, misses, stale, failed int
}

func (m *countingMetrics) QuoteLookup(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func (m *countingMetrics) QuoteDiscarded() {
	m.mu.Lock()
	m.stale++
	m.mu.Unlock()
}

func (m *countingMetrics) PricingFailed() {
	m.mu.Lock()
	m.failed++
	m.mu.Unlock()
}

func eurRates() domain.RateSnapshot {
	return domain.RateSnapshot{
		Base:      "EUR",
		Rates:     map[domain.Currency]float64{"EUR": 1, "USD": 1.0916, "GBP": 0.85},
		FetchedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Source:    "test",
	}
}
