package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"presence/internal/nonce/models"
	"presence/pkg/platform/sentinel"
)

// InMemoryStore keeps nonces in a mutex-guarded map. It is the default
// backend for single-instance deployments; use RedisStore when several
// instances must share nonce state.
type InMemoryStore struct {
	mu     sync.RWMutex
	nonces map[string]*models.Nonce
}

// NewInMemory constructs an empty in-memory nonce store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		nonces: make(map[string]*models.Nonce),
	}
}

func (s *InMemoryStore) Create(_ context.Context, nodeID string, ttl time.Duration) (*models.Nonce, error) {
	now := time.Now()
	record := &models.Nonce{
		ID:        uuid.NewString(),
		NodeID:    nodeID,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.nonces[record.ID]; exists {
		// UUIDv4 collision. Treated as a programming/entropy fault, not a
		// user-facing outcome.
		return nil, fmt.Errorf("nonce id collision %s: %w", record.ID, sentinel.ErrInvalidState)
	}
	s.nonces[record.ID] = record
	return record.Snapshot(), nil
}

// Consume performs the check-then-set under one critical section so two
// racing callers for the same id cannot both observe "not yet consumed".
func (s *InMemoryStore) Consume(_ context.Context, id string, now time.Time) (*models.Nonce, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.nonces[id]
	if !ok {
		return nil, fmt.Errorf("nonce %s: %w", id, sentinel.ErrNotFound)
	}

	if err := record.ValidateForConsume(now); err != nil {
		// Return the stored record alongside the error for audit trails.
		return record.Snapshot(), err
	}

	consumed := record.WithConsumed(now)
	s.nonces[id] = consumed
	return consumed.Snapshot(), nil
}

func (s *InMemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, record := range s.nonces {
		if record.SweepableAt(now) {
			delete(s.nonces, id)
			removed++
		}
	}
	return removed, nil
}

// Len reports how many records are currently retained. Backs the active
// nonce gauge; not part of the Store interface.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nonces)
}
