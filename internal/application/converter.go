package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"lessonquote-service/internal/domain"

	"go.uber.org/zap"
)

// CurrencyConverter converts amounts using a base-currency rate snapshot.
// Rates are read through the cache, then the provider, then the last
// persisted snapshot.
type CurrencyConverter struct {
	provider  RateProvider
	formatter MoneyFormatter
	cache     RateCache
	repo      RateRepo
	ttl       time.Duration
	clock     Clock
	log       *zap.Logger

	mu       sync.RWMutex
	snap     domain.RateSnapshot
	loadedAt time.Time // zero when snap came from the fallback path

	ready     chan struct{}
	readyOnce sync.Once
}

type ConverterOption func(*CurrencyConverter)

func WithRateCache(c RateCache) ConverterOption { return func(cc *CurrencyConverter) { cc.cache = c } }
func WithRateRepo(r RateRepo) ConverterOption   { return func(cc *CurrencyConverter) { cc.repo = r } }
func WithRatesTTL(d time.Duration) ConverterOption {
	return func(cc *CurrencyConverter) { cc.ttl = d }
}
func WithConverterClock(c Clock) ConverterOption { return func(cc *CurrencyConverter) { cc.clock = c } }
func WithConverterLogger(l *zap.Logger) ConverterOption {
	return func(cc *CurrencyConverter) { cc.log = l }
}

func NewCurrencyConverter(provider RateProvider, formatter MoneyFormatter, opts ...ConverterOption) *CurrencyConverter {
	c := &CurrencyConverter{
		provider:  provider,
		formatter: formatter,
		ttl:       time.Hour,
		ready:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.clock == nil {
		c.clock = realClock{}
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	return c
}

// Ready is closed once a rate snapshot has been loaded.
func (c *CurrencyConverter) Ready() <-chan struct{} { return c.ready }

func (c *CurrencyConverter) WaitReady(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Warm loads rates eagerly so Ready fires before the first conversion.
func (c *CurrencyConverter) Warm(ctx context.Context) error {
	_, err := c.Rates(ctx)
	return err
}

func (c *CurrencyConverter) Rates(ctx context.Context) (domain.RateSnapshot, error) {
	now := c.clock.Now()
	c.mu.RLock()
	snap, loadedAt := c.snap, c.loadedAt
	c.mu.RUnlock()
	if !snap.Empty() && !loadedAt.IsZero() && now.Sub(loadedAt) < c.ttl {
		return snap, nil
	}

	if c.cache != nil {
		cached, ok, err := c.cache.Get(ctx)
		if err != nil {
			c.log.Warn("rates.cache_get_failed", zap.Error(err))
		}
		if ok && !cached.Snapshot.Empty() {
			storedAt := cached.StoredAt
			if storedAt.IsZero() {
				storedAt = cached.Snapshot.FetchedAt
			}
			// The in-process memo expires when the shared entry would.
			if now.Sub(storedAt) < c.ttl {
				c.setSnapshot(cached.Snapshot, storedAt)
				return cached.Snapshot, nil
			}
		}
	}

	fresh, err := c.Refresh(ctx)
	if err == nil {
		return fresh, nil
	}

	if c.repo != nil {
		last, repoErr := c.repo.GetLatest(ctx)
		if repoErr == nil && !last.Empty() {
			c.log.Info("rates.fallback_last_snapshot", zap.Time("fetched_at", last.FetchedAt))
			c.setSnapshot(last, time.Time{})
			return last, nil
		}
	}
	// Expired in-memory rates are the last resort.
	if !snap.Empty() {
		return snap, nil
	}
	return domain.RateSnapshot{}, fmt.Errorf("%w: %w", ErrRatesUnavailable, err)
}

// Refresh fetches rates from the provider unconditionally and writes them
// through to the cache and the repository.
func (c *CurrencyConverter) Refresh(ctx context.Context) (domain.RateSnapshot, error) {
	fresh, err := c.provider.Fetch(ctx)
	if err == nil && fresh.Empty() {
		err = errors.New("provider returned empty snapshot")
	}
	if err != nil {
		c.log.Warn("rates.provider_failed", zap.Error(err))
		return domain.RateSnapshot{}, err
	}
	c.setSnapshot(fresh, c.clock.Now())
	if c.cache != nil {
		if err := c.cache.Put(ctx, fresh); err != nil {
			c.log.Warn("rates.cache_put_failed", zap.Error(err))
		}
	}
	if c.repo != nil {
		if err := c.repo.Save(ctx, fresh); err != nil {
			c.log.Warn("rates.persist_failed", zap.Error(err))
		}
	}
	return fresh, nil
}

// setSnapshot memoizes s as loaded at loadedAt. A zero loadedAt marks a
// fallback snapshot that never counts as fresh.
func (c *CurrencyConverter) setSnapshot(s domain.RateSnapshot, loadedAt time.Time) {
	c.mu.Lock()
	c.snap = s
	c.loadedAt = loadedAt
	c.mu.Unlock()
	c.readyOnce.Do(func() { close(c.ready) })
}

func (c *CurrencyConverter) Convert(ctx context.Context, amount float64, from, to domain.Currency) (float64, error) {
	if !from.Valid() || !to.Valid() {
		return 0, domain.ErrUnsupportedCurrency
	}
	if from == to {
		return c.round(amount, to), nil
	}
	snap, err := c.Rates(ctx)
	if err != nil {
		return 0, err
	}
	rFrom, ok := snap.Rate(from)
	if !ok {
		return 0, fmt.Errorf("%w: missing rate for %s", ErrRatesUnavailable, from)
	}
	rTo, ok := snap.Rate(to)
	if !ok {
		return 0, fmt.Errorf("%w: missing rate for %s", ErrRatesUnavailable, to)
	}
	return c.round(amount/rFrom*rTo, to), nil
}

func (c *CurrencyConverter) Format(amount float64, cur domain.Currency) string {
	return c.formatter.Format(amount, cur)
}

func (c *CurrencyConverter) round(v float64, cur domain.Currency) float64 {
	p := math.Pow(10, float64(c.formatter.Decimals(cur)))
	return math.Round(v*p) / p
}
