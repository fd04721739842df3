// Package models holds the nonce domain record and its state-transition
// rules. Stores persist these records; services never mutate them directly.
package models

import (
	"fmt"
	"time"

	"presence/pkg/platform/sentinel"
)

// TTL bounds accepted at check-in. Anything shorter is trivially unusable,
// anything longer keeps a bearer credential alive far past a physical visit.
const (
	MinTTL     = 10 * time.Second
	MaxTTL     = 10 * time.Minute
	DefaultTTL = 120 * time.Second
)

// SweepGrace is how long an expired nonce is retained so a late redemption
// still gets an informative "expired" answer instead of "not found".
const SweepGrace = 5 * time.Minute

// Nonce is a single-use, time-bounded credential bound to one node. The ID
// doubles as the store key and the bearer credential returned to the client.
// NodeID and ExpiresAt are immutable after creation; ConsumedAt is set exactly
// once on first successful consumption.
type Nonce struct {
	ID         string     `json:"nonce"`
	NodeID     string     `json:"nodeId"`
	IssuedAt   time.Time  `json:"issuedAt"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	ConsumedAt *time.Time `json:"consumedAt,omitempty"`
}

// Consumed reports whether the nonce has already been redeemed.
func (n *Nonce) Consumed() bool {
	return n.ConsumedAt != nil
}

// ExpiredAt reports whether the nonce is past its expiry at the given instant.
// Expiry is inclusive: a consume attempt exactly at ExpiresAt is too late.
func (n *Nonce) ExpiredAt(now time.Time) bool {
	return !now.Before(n.ExpiresAt)
}

// SweepableAt reports whether the nonce is past expiry plus the retention
// grace and may be physically deleted.
func (n *Nonce) SweepableAt(now time.Time) bool {
	return n.ExpiresAt.Add(SweepGrace).Before(now)
}

// ValidateForConsume checks redeemability at the given instant. Expiry is
// checked before the used flag so an expired-but-unused nonce reports expiry,
// not success or reuse.
func (n *Nonce) ValidateForConsume(now time.Time) error {
	if n.ExpiredAt(now) {
		return fmt.Errorf("nonce %s: %w", n.ID, sentinel.ErrExpired)
	}
	if n.Consumed() {
		return fmt.Errorf("nonce %s: %w", n.ID, sentinel.ErrAlreadyUsed)
	}
	return nil
}

// WithConsumed returns a copy of the nonce marked consumed at the given
// instant. The original record is left untouched so concurrent readers never
// observe a half-written transition.
func (n *Nonce) WithConsumed(now time.Time) *Nonce {
	out := *n
	out.ConsumedAt = &now
	return &out
}

// Snapshot returns a copy safe to hand outside the store.
func (n *Nonce) Snapshot() *Nonce {
	out := *n
	if n.ConsumedAt != nil {
		at := *n.ConsumedAt
		out.ConsumedAt = &at
	}
	return &out
}

// ClampTTL validates a caller-supplied TTL against the accepted bounds.
func ClampTTL(ttl time.Duration) error {
	if ttl < MinTTL || ttl > MaxTTL {
		return fmt.Errorf("ttl %s outside [%s, %s]: %w", ttl, MinTTL, MaxTTL, sentinel.ErrInvalidState)
	}
	return nil
}
