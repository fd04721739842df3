// Package httptransport is the thin HTTP layer over the check-in and
// submission services. It owns request decoding, error translation, and
// routing; business rules live in the services.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"presence/internal/checkin"
	"presence/internal/platform/metrics"
	"presence/internal/platform/middleware"
	"presence/internal/submission"
)

// CheckinService is the subset of the check-in service the transport needs.
type CheckinService interface {
	Checkin(ctx context.Context, req checkin.Request) (*checkin.Receipt, error)
}

// SubmissionService is the subset of the submission service the transport
// needs.
type SubmissionService interface {
	Submit(ctx context.Context, req submission.Request) (*submission.Receipt, error)
}

// Handler bundles the services behind the public endpoints.
type Handler struct {
	logger     *slog.Logger
	checkin    CheckinService
	submission SubmissionService
}

// NewHandler constructs the transport handler.
func NewHandler(logger *slog.Logger, ci CheckinService, sub SubmissionService) *Handler {
	return &Handler{logger: logger, checkin: ci, submission: sub}
}

// NewRouter wires all public endpoints with the standard middleware chain.
func NewRouter(h *Handler, m *metrics.Metrics, corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.CORS(corsOrigins))
	r.Use(middleware.Metrics(m))

	r.Post("/v1/checkin", h.handleCheckin)
	r.Post("/v1/submissions", h.handleSubmission)
	r.Get("/healthz", h.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
