// Package sweeper runs the periodic removal of nonces past their
// expiry-plus-grace window so the store stays bounded.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"presence/internal/nonce/store"
)

// DefaultInterval is how often the sweep fires in the reference
// configuration.
const DefaultInterval = 60 * time.Second

// Metrics is the subset of instrumentation the sweeper reports into.
type Metrics interface {
	AddNoncesSwept(count int)
}

// Sweeper owns the recurring sweep. Start it with Run under the process
// errgroup; cancelling the context stops the ticker and returns.
type Sweeper struct {
	store    store.Store
	logger   *slog.Logger
	metrics  Metrics
	interval time.Duration
}

// New constructs a sweeper. A non-positive interval falls back to
// DefaultInterval; metrics may be nil.
func New(st store.Store, logger *slog.Logger, metrics Metrics, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sweeper{
		store:    st,
		logger:   logger,
		metrics:  metrics,
		interval: interval,
	}
}

// Run blocks, sweeping on every tick until ctx is cancelled. A failed pass is
// logged and never aborts the loop; maintenance must outlive individual
// errors.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "nonce sweeper stopping")
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	removed, err := s.store.Sweep(ctx, time.Now())
	if err != nil {
		s.logger.ErrorContext(ctx, "nonce sweep failed", "error", err)
		return
	}
	if s.metrics != nil {
		s.metrics.AddNoncesSwept(removed)
	}
	if removed > 0 {
		s.logger.InfoContext(ctx, "swept expired nonces", "removed", removed)
	}
}
