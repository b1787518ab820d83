package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers client request keys so a retried mutation is
// applied once and later retries replay the first outcome.
type IdempotencyStore interface {
	// MarkProcessed claims key for ttl.
	// Returns true if the key was newly claimed, false if it was already present
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Complete stores the outcome recorded for a claimed key
	Complete(ctx context.Context, key string, result []byte, ttl time.Duration) error

	// Result returns the stored outcome. ok is false while the key is
	// unclaimed or its first request is still running.
	Result(ctx context.Context, key string) (result []byte, ok bool, err error)

	// Release forgets key so the request can be retried after a failure
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}
