// Package checkin orchestrates nonce issuance for a physical visit: validate
// the request shape, then mint a fresh single-use token bound to the node.
package checkin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"presence/internal/nonce/models"
	"presence/internal/nonce/store"
	"presence/internal/platform/metrics"
	"presence/pkg/domain"
)

// Request is the check-in input. TTLSeconds is optional; nil means the
// default validity window.
type Request struct {
	NodeID     string `json:"nodeId"`
	TTLSeconds *int   `json:"ttlSeconds,omitempty"`
}

// Receipt is the issued credential handed back to the client.
type Receipt struct {
	Nonce     string
	NodeID    string
	ExpiresAt time.Time
}

// Service issues check-in nonces. Repeated calls for the same node each mint
// an independent token; there is no dedup.
type Service struct {
	store   store.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New constructs the check-in service.
func New(st store.Store, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{store: st, logger: logger, metrics: m}
}

// Checkin validates the request and delegates to the store. Shape violations
// come back as *domain.ValidationError, itemized per field, before the store
// is touched.
func (s *Service) Checkin(ctx context.Context, req Request) (*Receipt, error) {
	ttl, issues := validate(req)
	if len(issues) > 0 {
		return nil, domain.NewValidationError(issues...)
	}

	record, err := s.store.Create(ctx, req.NodeID, ttl)
	if err != nil {
		return nil, fmt.Errorf("create nonce: %w", err)
	}

	s.metrics.IncrementCheckinsIssued()
	s.logger.InfoContext(ctx, "check-in nonce issued",
		"node_id", record.NodeID,
		"expires_at", record.ExpiresAt,
	)

	return &Receipt{
		Nonce:     record.ID,
		NodeID:    record.NodeID,
		ExpiresAt: record.ExpiresAt,
	}, nil
}

func validate(req Request) (time.Duration, []domain.Issue) {
	var issues []domain.Issue

	if req.NodeID == "" {
		issues = append(issues, domain.Issue{Path: "nodeId", Message: "must not be empty"})
	}

	ttl := models.DefaultTTL
	if req.TTLSeconds != nil {
		candidate := time.Duration(*req.TTLSeconds) * time.Second
		if err := models.ClampTTL(candidate); err != nil {
			issues = append(issues, domain.Issue{
				Path: "ttlSeconds",
				Message: fmt.Sprintf("must be between %d and %d",
					int(models.MinTTL.Seconds()), int(models.MaxTTL.Seconds())),
			})
		} else {
			ttl = candidate
		}
	}

	return ttl, issues
}
