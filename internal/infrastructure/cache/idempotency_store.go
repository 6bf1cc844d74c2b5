package cache

import (
	"context"
	"time"
)

// IdempotencyStore tracks processed payment-provider event ids so
// replayed callbacks are dropped instead of applied twice.
type IdempotencyStore interface {
	// MarkProcessed records an event id with a TTL. It returns true
	// if the id was newly recorded, false if it was already known.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether an event id is already recorded.
	IsProcessed(ctx context.Context, eventID string) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}
