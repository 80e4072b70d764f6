package worker

import (
	"context"
	"time"

	"lessonquote-service/internal/application"
	infraconfig "lessonquote-service/internal/infrastructure/config"

	"go.uber.org/zap"
)

var _ application.Worker = (*RateRefresher)(nil)

// RefreshObserver receives the outcome of every refresh attempt.
type RefreshObserver interface {
	RatesRefreshed(ok bool)
}

// RateRefresher pulls exchange rates on a fixed interval so API replicas
// find a warm cache and a recent persisted snapshot.
type RateRefresher struct {
	Converter *application.CurrencyConverter
	Observer  RefreshObserver

	PollEvery time.Duration
	Timeout   time.Duration
	Log       *zap.Logger
}

func (w *RateRefresher) Start(ctx context.Context) {
	log := w.Log
	if log == nil {
		log = zap.NewNop()
	}
	if w.PollEvery <= 0 {
		w.PollEvery = infraconfig.DefaultWorkerPoll
	}
	if w.Timeout <= 0 {
		w.Timeout = 30 * time.Second
	}

	log.Info("rate_refresher.started", zap.Duration("poll_every", w.PollEvery))
	w.tick(ctx, log)

	t := time.NewTicker(w.PollEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("rate_refresher.stopped")
			return
		case <-t.C:
			w.tick(ctx, log)
		}
	}
}

func (w *RateRefresher) tick(ctx context.Context, log *zap.Logger) {
	c, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()
	snap, err := w.Converter.Refresh(c)
	if w.Observer != nil {
		w.Observer.RatesRefreshed(err == nil)
	}
	if err != nil {
		log.Warn("rate_refresher.refresh_failed", zap.Error(err))
		return
	}
	log.Info("rate_refresher.refreshed",
		zap.String("base", string(snap.Base)),
		zap.Int("currencies", len(snap.Rates)),
		zap.Time("fetched_at", snap.FetchedAt),
		zap.String("source", snap.Source),
	)
}
