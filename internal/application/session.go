package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"lessonquote-service/internal/domain"
)

// Selection is the user's current booking draft.
type Selection struct {
	CourseType      domain.CourseType
	DurationMinutes int
	Quantity        int
	Currency        domain.Currency
	// SlotStart is zero while no time slot is selected.
	SlotStart time.Time
}

func DefaultSelection() Selection {
	return Selection{
		CourseType:      domain.CourseConversation,
		DurationMinutes: 60,
		Quantity:        1,
		Currency:        "EUR",
	}
}

func (s Selection) Key() domain.QuoteKey {
	return domain.QuoteKey{
		CourseType:      s.CourseType,
		DurationMinutes: s.DurationMinutes,
		Quantity:        s.Quantity,
		DisplayCurrency: s.Currency,
	}
}

func (s Selection) Validate() error { return s.Key().Validate() }

func (s Selection) HasSlot() bool { return !s.SlotStart.IsZero() }

func (s Selection) equal(o Selection) bool {
	return s.Key() == o.Key() && s.SlotStart.Equal(o.SlotStart)
}

// SelectionPatch carries the fields a user changed. Nil fields are left as is.
type SelectionPatch struct {
	CourseType      *domain.CourseType
	DurationMinutes *int
	Quantity        *int
	Currency        *domain.Currency
	SlotStart       *time.Time
	ClearSlot       bool
}

// With returns a copy of s with the patch applied. It does not validate.
func (s Selection) With(p SelectionPatch) Selection {
	if p.CourseType != nil {
		s.CourseType = *p.CourseType
	}
	if p.DurationMinutes != nil {
		s.DurationMinutes = *p.DurationMinutes
	}
	if p.Quantity != nil {
		s.Quantity = *p.Quantity
	}
	if p.Currency != nil {
		s.Currency = *p.Currency
	}
	if p.SlotStart != nil {
		s.SlotStart = p.SlotStart.UTC()
	}
	if p.ClearSlot {
		s.SlotStart = time.Time{}
	}
	return s
}

type EventType string

const (
	EventSelectionChanged EventType = "selection_changed"
	EventQuoteReady       EventType = "quote_ready"
	EventQuoteUnavailable EventType = "quote_unavailable"
	EventQuoteDiscarded   EventType = "quote_discarded"
)

// Event is delivered to session listeners after the session lock is released.
type Event struct {
	Type      EventType
	SessionID string
	Key       domain.QuoteKey
	Selection Selection
	Quote     domain.Quote
	Err       error
}

type Listener func(Event)

type FetchFunc func(ctx context.Context, key domain.QuoteKey) (domain.Quote, error)

// BookingSession owns one booking draft and its quote cache.
//
// Every selection change invalidates the cache and bumps a generation
// counter. A pricing response is stored only if the generation it was
// requested under is still current and its key still matches the selection.
type BookingSession struct {
	id     string
	userID string

	mu        sync.Mutex
	sel       Selection
	gen       uint64
	cache     *QuoteCache
	listeners []Listener
	touched   time.Time
}

func NewBookingSession(id, userID string, sel Selection) *BookingSession {
	return &BookingSession{
		id:     id,
		userID: userID,
		sel:    sel,
		cache:  NewQuoteCache(),
	}
}

func (s *BookingSession) ID() string     { return s.id }
func (s *BookingSession) UserID() string { return s.userID }

func (s *BookingSession) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

func (s *BookingSession) CurrentKey() domain.QuoteKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.Key()
}

func (s *BookingSession) Lookup(key domain.QuoteKey) (domain.Quote, bool) {
	return s.cache.Lookup(key)
}

// Snapshot returns the selection together with the quote cached for it.
func (s *BookingSession) Snapshot() (Selection, domain.Quote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.cache.Lookup(s.sel.Key())
	return s.sel, q, ok
}

func (s *BookingSession) Subscribe(l Listener) {
	if l == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// Invalidate drops the cached quote and supersedes any pricing call in flight.
func (s *BookingSession) Invalidate() {
	s.mu.Lock()
	s.invalidateLocked()
	s.mu.Unlock()
}

func (s *BookingSession) invalidateLocked() {
	s.gen++
	s.cache.Clear()
}

func (s *BookingSession) SetCourseType(ct domain.CourseType) error {
	_, err := s.Apply(SelectionPatch{CourseType: &ct})
	return err
}

func (s *BookingSession) SetDuration(minutes int) error {
	_, err := s.Apply(SelectionPatch{DurationMinutes: &minutes})
	return err
}

func (s *BookingSession) SetQuantity(n int) error {
	_, err := s.Apply(SelectionPatch{Quantity: &n})
	return err
}

func (s *BookingSession) SetCurrency(c domain.Currency) error {
	_, err := s.Apply(SelectionPatch{Currency: &c})
	return err
}

func (s *BookingSession) SetSlot(start time.Time) error {
	if start.IsZero() {
		_, err := s.Apply(SelectionPatch{ClearSlot: true})
		return err
	}
	_, err := s.Apply(SelectionPatch{SlotStart: &start})
	return err
}

// Apply validates and applies a patch. The cache is invalidated only when the
// resulting selection differs from the current one.
func (s *BookingSession) Apply(p SelectionPatch) (Selection, error) {
	s.mu.Lock()
	next := s.sel.With(p)
	if err := next.Validate(); err != nil {
		cur := s.sel
		s.mu.Unlock()
		return cur, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	changed := !next.equal(s.sel)
	if changed {
		s.sel = next
		s.invalidateLocked()
	}
	listeners := s.listeners
	s.mu.Unlock()

	if changed {
		notify(listeners, Event{Type: EventSelectionChanged, SessionID: s.id, Key: next.Key(), Selection: next})
	}
	return next, nil
}

// GetQuote returns the cached quote for key or computes it with fetch.
//
// Failures are never cached. A response whose request has been superseded
// by Invalidate, or whose key no longer matches the selection, is dropped
// and ErrStaleQuote is returned instead. A key that is already outdated is
// rejected before fetch runs and leaves the cache untouched.
func (s *BookingSession) GetQuote(ctx context.Context, key domain.QuoteKey, fetch FetchFunc) (domain.Quote, error) {
	if q, ok := s.cache.Lookup(key); ok {
		return q, nil
	}

	s.mu.Lock()
	if s.sel.Key() != key {
		listeners := s.listeners
		s.mu.Unlock()
		notify(listeners, Event{Type: EventQuoteDiscarded, SessionID: s.id, Key: key})
		return domain.Quote{}, ErrStaleQuote
	}
	gen := s.gen
	s.cache.Clear()
	s.mu.Unlock()

	q, err := fetch(ctx, key)

	s.mu.Lock()
	if s.gen != gen || s.sel.Key() != key {
		listeners := s.listeners
		s.mu.Unlock()
		notify(listeners, Event{Type: EventQuoteDiscarded, SessionID: s.id, Key: key})
		return domain.Quote{}, ErrStaleQuote
	}
	if err != nil {
		listeners := s.listeners
		s.mu.Unlock()
		if !errors.Is(err, ErrPricingUnavailable) {
			err = fmt.Errorf("%w: %w", ErrPricingUnavailable, err)
		}
		notify(listeners, Event{Type: EventQuoteUnavailable, SessionID: s.id, Key: key, Err: err})
		return domain.Quote{}, err
	}
	s.cache.Store(key, q)
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, Event{Type: EventQuoteReady, SessionID: s.id, Key: key, Quote: q})
	return q, nil
}

func (s *BookingSession) touch(now time.Time) {
	s.mu.Lock()
	s.touched = now
	s.mu.Unlock()
}

func (s *BookingSession) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

func notify(listeners []Listener, ev Event) {
	for _, l := range listeners {
		l(ev)
	}
}
