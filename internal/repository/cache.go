package repository

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value cache used for session storage.
// Implementations include an in-memory cache for single-node deployments
// and a Redis-backed cache for shared deployments.
type Cache interface {
	// Get retrieves a value by key. Returns ErrCacheMiss if absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with a TTL. A non-positive TTL means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
