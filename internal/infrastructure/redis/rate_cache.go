package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lessonquote-service/internal/application"
	"lessonquote-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

var _ application.RateCache = (*RateCache)(nil)

// RateCache shares the latest rate snapshot between API replicas and the
// refresh worker. Entries expire after TTL.
type RateCache struct {
	Client *redis.Client
	Key    string
	TTL    time.Duration
}

func NewRateCache(client *redis.Client, key string, ttl time.Duration) *RateCache {
	return &RateCache{Client: client, Key: key, TTL: ttl}
}

type cachedSnapshot struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	FetchedAt time.Time          `json:"fetched_at"`
	Source    string             `json:"source"`
	StoredAt  time.Time          `json:"stored_at"`
}

func (c *RateCache) Get(ctx context.Context) (application.CachedRates, bool, error) {
	raw, err := c.Client.Get(ctx, c.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return application.CachedRates{}, false, nil
	}
	if err != nil {
		return application.CachedRates{}, false, fmt.Errorf("redis get %s: %w", c.Key, err)
	}
	var cs cachedSnapshot
	if err := json.Unmarshal(raw, &cs); err != nil {
		return application.CachedRates{}, false, fmt.Errorf("decode cached rates: %w", err)
	}
	snap := domain.RateSnapshot{
		Base:      domain.Currency(cs.Base),
		Rates:     make(map[domain.Currency]float64, len(cs.Rates)),
		FetchedAt: cs.FetchedAt,
		Source:    cs.Source,
	}
	for k, v := range cs.Rates {
		snap.Rates[domain.Currency(k)] = v
	}
	return application.CachedRates{Snapshot: snap, StoredAt: cs.StoredAt}, !snap.Empty(), nil
}

func (c *RateCache) Put(ctx context.Context, snap domain.RateSnapshot) error {
	cs := cachedSnapshot{
		Base:      string(snap.Base),
		Rates:     make(map[string]float64, len(snap.Rates)),
		FetchedAt: snap.FetchedAt.UTC(),
		Source:    snap.Source,
		StoredAt:  time.Now().UTC(),
	}
	for k, v := range snap.Rates {
		cs.Rates[string(k)] = v
	}
	raw, err := json.Marshal(cs)
	if err != nil {
		return fmt.Errorf("encode rates: %w", err)
	}
	if err := c.Client.Set(ctx, c.Key, raw, c.TTL).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", c.Key, err)
	}
	return nil
}
