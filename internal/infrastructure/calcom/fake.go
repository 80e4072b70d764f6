package calcom

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lessonquote-service/internal/application"
	"lessonquote-service/internal/domain"
)

var _ application.BookingGateway = (*Fake)(nil)

// Fake offers hourly slots between 09:00 and 17:00 UTC and accepts any
// booking for a free slot.
type Fake struct {
	mu     sync.Mutex
	booked map[time.Time]bool
	seq    int
}

func NewFake() *Fake { return &Fake{booked: map[time.Time]bool{}} }

func (f *Fake) ListSlots(_ context.Context, q application.SlotQuery) ([]domain.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	length := time.Duration(q.DurationMinutes) * time.Minute
	start := q.From.UTC().Truncate(time.Hour)
	if start.Before(q.From) {
		start = start.Add(time.Hour)
	}
	var out []domain.Slot
	for t := start; !t.Add(length).After(q.To); t = t.Add(time.Hour) {
		if t.Hour() < 9 || t.Hour() >= 17 || f.booked[t] {
			continue
		}
		out = append(out, domain.Slot{Start: t, End: t.Add(length)})
	}
	return out, nil
}

func (f *Fake) CreateBooking(_ context.Context, r domain.BookingRequest) (domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	start := r.Start.UTC()
	if f.booked[start] {
		return domain.Booking{}, ErrSlotTaken
	}
	f.booked[start] = true
	f.seq++
	return domain.Booking{
		ID:     fmt.Sprintf("fake-%d", f.seq),
		Status: "accepted",
		Start:  start,
		End:    start.Add(time.Duration(r.DurationMinutes) * time.Minute),
	}, nil
}
