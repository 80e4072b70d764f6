package redisstore_test

import (
	"context"
	"testing"
	"time"

	"lessonquote-service/internal/domain"
	redisstore "lessonquote-service/internal/infrastructure/redis"

	"github.com/stretchr/testify/require"
)

func TestRateCache_RoundTripAndExpiry(t *testing.T) {
	mr, client := newRedis(t)
	cache := redisstore.NewRateCache(client, "rates:latest", time.Hour)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	snap := domain.RateSnapshot{
		Base:      "EUR",
		Rates:     map[domain.Currency]float64{"EUR": 1, "USD": 1.0916},
		FetchedAt: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		Source:    "exchangeratesapi",
	}
	before := time.Now().UTC()
	require.NoError(t, cache.Put(ctx, snap))

	got, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, snap.Base, got.Snapshot.Base)
	require.Equal(t, snap.Rates, got.Snapshot.Rates)
	require.True(t, snap.FetchedAt.Equal(got.Snapshot.FetchedAt))
	require.False(t, got.StoredAt.Before(before.Truncate(time.Second)))

	mr.FastForward(61 * time.Minute)
	_, ok, err = cache.Get(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRateCache_CorruptEntry(t *testing.T) {
	mr, client := newRedis(t)
	require.NoError(t, mr.Set("rates:latest", "{not json"))
	cache := redisstore.NewRateCache(client, "rates:latest", time.Hour)

	_, ok, err := cache.Get(context.Background())
	require.Error(t, err)
	require.False(t, ok)
}
