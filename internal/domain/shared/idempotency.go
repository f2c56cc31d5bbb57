package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers request keys that were already handled, together
// with the response that was produced for them.
type IdempotencyStore interface {
	// Reserve claims key for ttl. It returns false when the key was already claimed.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Complete stores the response payload produced for key.
	Complete(ctx context.Context, key string, payload []byte, ttl time.Duration) error

	// Lookup returns the stored payload for key. found is false when the key is
	// unknown; a reserved key without a payload returns found=true and a nil payload.
	Lookup(ctx context.Context, key string) (payload []byte, found bool, err error)

	// Release drops a reservation so the request can be retried.
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a handled key is remembered. Default: 24 hours
	TTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
