package worker

import (
	"context"
	"time"

	"lessonquote-service/internal/application"

	"go.uber.org/zap"
)

var _ application.Worker = (*SessionJanitor)(nil)

type idlePruner interface {
	PruneIdle() int
}

// SessionJanitor evicts idle booking sessions between requests.
type SessionJanitor struct {
	Sessions  idlePruner
	PollEvery time.Duration
	Log       *zap.Logger
}

func NewSessionJanitor(svc *application.QuoteService, every time.Duration, log *zap.Logger) *SessionJanitor {
	return &SessionJanitor{Sessions: svc, PollEvery: every, Log: log}
}

func (j *SessionJanitor) Start(ctx context.Context) {
	log := j.Log
	if log == nil {
		log = zap.NewNop()
	}
	if j.PollEvery <= 0 {
		j.PollEvery = time.Minute
	}
	t := time.NewTicker(j.PollEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := j.Sessions.PruneIdle(); n > 0 {
				log.Info("session_janitor.pruned", zap.Int("sessions", n))
			}
		}
	}
}
