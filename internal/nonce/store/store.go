// Package store provides the authoritative registry of issued check-in
// nonces. It is the only component allowed to transition a nonce to consumed.
package store

import (
	"context"
	"time"

	"presence/internal/nonce/models"
)

// Error Contract:
// All store methods follow this error pattern:
// - Return ErrNotFound when the requested nonce does not exist
// - Return ErrExpired / ErrAlreadyUsed for terminal consume outcomes
// - Return nil for successful operations
// - Return wrapped errors with context for infrastructure failures

// Store is the nonce lifecycle registry. Implementations must make Consume
// atomic per id: of N concurrent calls for one fresh id, exactly one wins.
type Store interface {
	// Create mints a fresh nonce bound to nodeID expiring at now + ttl.
	// The ttl must already be validated against models.ClampTTL.
	Create(ctx context.Context, nodeID string, ttl time.Duration) (*models.Nonce, error)

	// Consume redeems the nonce at the given instant. Expiry is checked
	// before the used flag. On success the returned snapshot carries
	// ConsumedAt; on ErrAlreadyUsed the stored record is returned alongside
	// the error so callers can audit the original consumption.
	Consume(ctx context.Context, id string, now time.Time) (*models.Nonce, error)

	// Sweep deletes every nonce past expiry plus the retention grace and
	// returns how many were removed.
	Sweep(ctx context.Context, now time.Time) (int, error)
}
