// Package submission orchestrates nonce redemption with captured evidence.
// The nonce is consumed before the node binding is checked, so a nonce
// replayed against a different node still burns.
package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/asaskevich/govalidator"

	"presence/internal/geo"
	"presence/internal/nonce/models"
	"presence/internal/nonce/store"
	"presence/internal/platform/metrics"
	"presence/pkg/domain"
	"presence/pkg/platform/sentinel"
)

// ErrNodeMismatch means the nonce was validly consumed but was bound to a
// different node than the one submitted. Terminal: the nonce stays burned.
var ErrNodeMismatch = errors.New("nonce bound to a different node")

// minSHA256Len is the minimum accepted length for a photo digest string.
const minSHA256Len = 16

// Location is the device-reported position accompanying the evidence.
type Location struct {
	Lat       float64  `json:"lat"`
	Lng       float64  `json:"lng"`
	AccuracyM *float64 `json:"accuracyM,omitempty"`
}

// Media carries the photo evidence identifiers. At least one of the two must
// be present.
type Media struct {
	PhotoURL    string `json:"photoUrl,omitempty"`
	PhotoSHA256 string `json:"photoSha256,omitempty"`
}

// Request is the submission input.
type Request struct {
	Nonce        string    `json:"nonce"`
	NodeID       string    `json:"nodeId"`
	CapturedAtMs int64     `json:"capturedAtMs"`
	Location     *Location `json:"location,omitempty"`
	Media        Media     `json:"media"`
}

// Receipt acknowledges an accepted submission. SubmissionID is derived
// deterministically from the consumed nonce.
type Receipt struct {
	SubmissionID string
	Status       string
	Nonce        *models.Nonce
}

// StatusReceived is the only terminal status this core assigns; downstream
// processing (on-chain issuance) happens elsewhere.
const StatusReceived = "RECEIVED"

// Service redeems nonces against submitted evidence.
type Service struct {
	store   store.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New constructs the submission service.
func New(st store.Store, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{store: st, logger: logger, metrics: m}
}

// Submit validates the request shape, consumes the nonce, and checks the node
// binding. Store failures (not found, expired, already used) and node
// mismatch are conflicts, not faults; none of them can retroactively succeed,
// so nothing is retried.
func (s *Service) Submit(ctx context.Context, req Request) (*Receipt, error) {
	if issues := validate(req); len(issues) > 0 {
		return nil, domain.NewValidationError(issues...)
	}

	record, err := s.store.Consume(ctx, req.Nonce, time.Now())
	if err != nil {
		s.metrics.IncrementSubmissionsRejected(reasonLabel(err))
		return nil, fmt.Errorf("consume nonce: %w", err)
	}

	if record.NodeID != req.NodeID {
		// The nonce is already burned at this point; report the mismatch but
		// never un-consume.
		s.metrics.IncrementSubmissionsRejected("node_mismatch")
		s.logger.WarnContext(ctx, "submission node mismatch",
			"bound_node_id", record.NodeID,
			"submitted_node_id", req.NodeID,
		)
		return nil, fmt.Errorf("nonce %s: %w", req.Nonce, ErrNodeMismatch)
	}

	s.metrics.IncrementSubmissionsAccepted()
	s.logger.InfoContext(ctx, "submission received",
		"node_id", record.NodeID,
		"captured_at_ms", req.CapturedAtMs,
		"location_geohash", locationGeohash(req.Location),
	)

	return &Receipt{
		SubmissionID: "sub_" + record.ID,
		Status:       StatusReceived,
		Nonce:        record,
	}, nil
}

func validate(req Request) []domain.Issue {
	var issues []domain.Issue

	if !govalidator.IsUUID(req.Nonce) {
		issues = append(issues, domain.Issue{Path: "nonce", Message: "must be a UUID"})
	}
	if req.NodeID == "" {
		issues = append(issues, domain.Issue{Path: "nodeId", Message: "must not be empty"})
	}
	if req.CapturedAtMs < 0 {
		issues = append(issues, domain.Issue{Path: "capturedAtMs", Message: "must be >= 0"})
	}

	if loc := req.Location; loc != nil {
		if loc.Lat < -90 || loc.Lat > 90 {
			issues = append(issues, domain.Issue{Path: "location.lat", Message: "must be between -90 and 90"})
		}
		if loc.Lng < -180 || loc.Lng > 180 {
			issues = append(issues, domain.Issue{Path: "location.lng", Message: "must be between -180 and 180"})
		}
		if loc.AccuracyM != nil && (*loc.AccuracyM < 0 || *loc.AccuracyM > 10000) {
			issues = append(issues, domain.Issue{Path: "location.accuracyM", Message: "must be between 0 and 10000"})
		}
	}

	if req.Media.PhotoURL == "" && req.Media.PhotoSHA256 == "" {
		issues = append(issues, domain.Issue{Path: "media", Message: "photoUrl or photoSha256 is required"})
	}
	if req.Media.PhotoURL != "" && !govalidator.IsURL(req.Media.PhotoURL) {
		issues = append(issues, domain.Issue{Path: "media.photoUrl", Message: "must be a valid URL"})
	}
	if req.Media.PhotoSHA256 != "" && len(req.Media.PhotoSHA256) < minSHA256Len {
		issues = append(issues, domain.Issue{
			Path:    "media.photoSha256",
			Message: fmt.Sprintf("must be at least %d characters", minSHA256Len),
		})
	}

	return issues
}

// locationGeohash coarsens the reported position for logging; raw coordinates
// never reach the log stream.
func locationGeohash(loc *Location) string {
	if loc == nil {
		return ""
	}
	return geo.EncodeGeohash(loc.Lat, loc.Lng, geo.DefaultPrecision)
}

func reasonLabel(err error) string {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return "not_found"
	case errors.Is(err, sentinel.ErrExpired):
		return "expired"
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return "already_used"
	default:
		return "error"
	}
}
