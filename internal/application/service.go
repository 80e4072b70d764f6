package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"lessonquote-service/internal/domain"

	"go.uber.org/zap"
)

// PriceUnavailablePlaceholder is shown instead of a price when pricing fails.
const PriceUnavailablePlaceholder = "price unavailable"

const maxRecompute = 3

type QuoteView struct {
	SessionID string
	Key       domain.QuoteKey
	Available bool
	Quote     domain.Quote
	// DisplayPrice is the formatted price or PriceUnavailablePlaceholder.
	DisplayPrice string
	CanSubmit    bool
	// Credits is nil when the ledger could not be read.
	Credits *int
}

type QuoteService struct {
	pricing   PricingService
	converter *CurrencyConverter
	credits   CreditLedger
	gateway   BookingGateway
	idem      IdempotencyStore
	metrics   MetricsRecorder
	log       *zap.Logger
	clock     Clock
	idgen     IDGen
	idleTTL   time.Duration

	mu       sync.RWMutex
	sessions map[string]*BookingSession
}

type Option func(*QuoteService)

func WithClock(c Clock) Option               { return func(s *QuoteService) { s.clock = c } }
func WithIDGen(g IDGen) Option               { return func(s *QuoteService) { s.idgen = g } }
func WithLogger(l *zap.Logger) Option        { return func(s *QuoteService) { s.log = l } }
func WithMetrics(m MetricsRecorder) Option   { return func(s *QuoteService) { s.metrics = m } }
func WithCreditLedger(c CreditLedger) Option { return func(s *QuoteService) { s.credits = c } }
func WithBookingGateway(g BookingGateway) Option {
	return func(s *QuoteService) { s.gateway = g }
}
func WithIdempotency(i IdempotencyStore) Option { return func(s *QuoteService) { s.idem = i } }
func WithSessionIdleTTL(d time.Duration) Option { return func(s *QuoteService) { s.idleTTL = d } }

func NewQuoteService(pricing PricingService, converter *CurrencyConverter, opts ...Option) *QuoteService {
	s := &QuoteService{
		pricing:   pricing,
		converter: converter,
		idleTTL:   2 * time.Hour,
		sessions:  map[string]*BookingSession{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = realClock{}
	}
	if s.idgen == nil {
		s.idgen = defaultIDGen{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.metrics == nil {
		s.metrics = noopMetrics{}
	}
	if s.idem == nil {
		s.idem = NoopIdempotency{}
	}
	return s
}

func (s *QuoteService) StartSession(ctx context.Context, userID string, sel Selection) (*BookingSession, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrBadRequest)
	}
	if err := sel.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	now := s.clock.Now()
	s.pruneIdle(now)

	sess := NewBookingSession(s.idgen.NewID(), userID, sel)
	sess.touch(now)
	sess.Subscribe(s.logEvent)

	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	s.mu.Unlock()

	s.log.Info("session.started",
		zap.String("session_id", sess.ID()),
		zap.String("user_id", userID),
		zap.String("course_type", string(sel.CourseType)),
	)
	return sess, nil
}

func (s *QuoteService) Session(id string) (*BookingSession, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	sess.touch(s.clock.Now())
	return sess, nil
}

func (s *QuoteService) EndSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// PruneIdle drops sessions untouched for longer than the idle TTL and
// reports how many were removed.
func (s *QuoteService) PruneIdle() int { return s.pruneIdle(s.clock.Now()) }

func (s *QuoteService) pruneIdle(now time.Time) int {
	if s.idleTTL <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.idleSince()) > s.idleTTL {
			delete(s.sessions, id)
			n++
			s.log.Debug("session.expired", zap.String("session_id", id))
		}
	}
	return n
}

func (s *QuoteService) UpdateSelection(ctx context.Context, id string, p SelectionPatch) (Selection, error) {
	sess, err := s.Session(id)
	if err != nil {
		return Selection{}, err
	}
	return sess.Apply(p)
}

func (s *QuoteService) Invalidate(ctx context.Context, id string) error {
	sess, err := s.Session(id)
	if err != nil {
		return err
	}
	sess.Invalidate()
	return nil
}

// CurrentQuote prices the session's current selection. A pricing failure
// yields a placeholder view rather than an error. If the selection changes
// while pricing is in flight, the quote is recomputed for the new selection.
func (s *QuoteService) CurrentQuote(ctx context.Context, id string) (QuoteView, error) {
	sess, err := s.Session(id)
	if err != nil {
		return QuoteView{}, err
	}
	for attempt := 0; attempt < maxRecompute; attempt++ {
		sel := sess.Selection()
		key := sel.Key()
		fetched := false
		q, err := sess.GetQuote(ctx, key, func(ctx context.Context, k domain.QuoteKey) (domain.Quote, error) {
			fetched = true
			return s.fetchQuote(ctx, sess.UserID(), k)
		})
		switch {
		case err == nil:
			s.metrics.QuoteLookup(!fetched)
			view := QuoteView{
				SessionID:    id,
				Key:          key,
				Available:    true,
				Quote:        q,
				DisplayPrice: q.DisplayPrice,
				CanSubmit:    sel.HasSlot(),
			}
			view.Credits = s.remainingCredits(ctx, sess.UserID(), key)
			return view, nil
		case errors.Is(err, ErrStaleQuote):
			s.metrics.QuoteDiscarded()
			continue
		case errors.Is(err, ErrPricingUnavailable):
			s.metrics.QuoteLookup(false)
			s.metrics.PricingFailed()
			return QuoteView{
				SessionID:    id,
				Key:          key,
				DisplayPrice: PriceUnavailablePlaceholder,
			}, nil
		default:
			return QuoteView{}, err
		}
	}
	return QuoteView{}, ErrStaleQuote
}

func (s *QuoteService) fetchQuote(ctx context.Context, userID string, key domain.QuoteKey) (domain.Quote, error) {
	pq, err := s.pricing.CalculatePrice(ctx, PriceRequest{
		UserID:          userID,
		CourseType:      key.CourseType,
		DurationMinutes: key.DurationMinutes,
		Quantity:        key.Quantity,
	})
	if err != nil {
		return domain.Quote{}, err
	}
	amount, err := s.converter.Convert(ctx, pq.Price, pq.Currency, key.DisplayCurrency)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("convert %s to %s: %w", pq.Currency, key.DisplayCurrency, err)
	}
	return domain.Quote{
		DisplayPrice:   s.converter.Format(amount, key.DisplayCurrency),
		RawPrice:       pq.Price,
		SourceCurrency: pq.Currency,
		IsVIP:          pq.IsVIP,
	}, nil
}

func (s *QuoteService) remainingCredits(ctx context.Context, userID string, key domain.QuoteKey) *int {
	if s.credits == nil {
		return nil
	}
	n, err := s.credits.RemainingCredits(ctx, userID, key.CourseType, key.DurationMinutes)
	if err != nil {
		s.log.Warn("credits.lookup_failed", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	return &n
}

func (s *QuoteService) AvailableSlots(ctx context.Context, id string, from, to time.Time, tz string) ([]domain.Slot, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	if s.gateway == nil {
		return nil, errors.New("booking gateway not configured")
	}
	if from.IsZero() || to.IsZero() || !to.After(from) {
		return nil, fmt.Errorf("%w: invalid slot range", ErrBadRequest)
	}
	sel := sess.Selection()
	return s.gateway.ListSlots(ctx, SlotQuery{
		CourseType:      sel.CourseType,
		DurationMinutes: sel.DurationMinutes,
		From:            from,
		To:              to,
		TimeZone:        tz,
	})
}

// ConfirmBooking books the selected slot at the currently cached price.
// It refuses to book without a valid quote for the current selection.
func (s *QuoteService) ConfirmBooking(ctx context.Context, id, idemKey string, attendee domain.Attendee) (domain.Booking, error) {
	sess, err := s.Session(id)
	if err != nil {
		return domain.Booking{}, err
	}
	if s.gateway == nil {
		return domain.Booking{}, errors.New("booking gateway not configured")
	}
	sel, q, ok := sess.Snapshot()
	if !sel.HasSlot() {
		return domain.Booking{}, fmt.Errorf("%w: no time slot selected", ErrBadRequest)
	}
	if !ok {
		return domain.Booking{}, ErrQuoteUnavailable
	}
	if attendee.Email == "" {
		return domain.Booking{}, fmt.Errorf("%w: attendee email is required", ErrBadRequest)
	}
	if idemKey != "" {
		reserved, err := s.idem.TryReserve(ctx, "booking:"+idemKey)
		if err != nil {
			return domain.Booking{}, fmt.Errorf("reserve idempotency key: %w", err)
		}
		if !reserved {
			return domain.Booking{}, ErrConflict
		}
	}

	log := s.log.With(
		zap.String("session_id", id),
		zap.String("user_id", sess.UserID()),
		zap.Time("start", sel.SlotStart),
	)
	b, err := s.gateway.CreateBooking(ctx, domain.BookingRequest{
		UserID:          sess.UserID(),
		CourseType:      sel.CourseType,
		DurationMinutes: sel.DurationMinutes,
		Quantity:        sel.Quantity,
		Start:           sel.SlotStart,
		Attendee:        attendee,
		Quote:           q,
	})
	if err != nil {
		log.Error("booking.create_failed", zap.Error(err))
		if idemKey != "" {
			if rerr := s.idem.Release(ctx, "booking:"+idemKey); rerr != nil {
				log.Warn("booking.idempotency_release_failed", zap.Error(rerr))
			}
		}
		return domain.Booking{}, fmt.Errorf("create booking: %w", err)
	}
	log.Info("booking.created", zap.String("booking_id", b.ID), zap.String("price", q.DisplayPrice))
	return b, nil
}

func (s *QuoteService) Converter() *CurrencyConverter { return s.converter }

func (s *QuoteService) logEvent(ev Event) {
	log := s.log.With(zap.String("session_id", ev.SessionID), zap.String("event", string(ev.Type)))
	switch ev.Type {
	case EventQuoteUnavailable:
		log.Warn("quote.unavailable", zap.Error(ev.Err))
	case EventQuoteDiscarded:
		log.Debug("quote.stale_discarded", zap.String("course_type", string(ev.Key.CourseType)))
	case EventQuoteReady:
		log.Debug("quote.ready", zap.String("display_price", ev.Quote.DisplayPrice), zap.Bool("vip", ev.Quote.IsVIP))
	default:
		log.Debug("session.selection_changed")
	}
}
