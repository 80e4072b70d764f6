package application

import "context"

// IdempotencyStore deduplicates booking confirmations by client key.
type IdempotencyStore interface {
	// TryReserve returns false if key is already held.
	TryReserve(ctx context.Context, key string) (bool, error)
	// Release frees key after a failed attempt so the client may retry.
	Release(ctx context.Context, key string) error
}

// NoopIdempotency reserves every key; used when Redis is disabled.
type NoopIdempotency struct{}

func (NoopIdempotency) TryReserve(context.Context, string) (bool, error) { return true, nil }
func (NoopIdempotency) Release(context.Context, string) error            { return nil }
