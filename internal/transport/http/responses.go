package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"presence/internal/submission"
	"presence/pkg/domain"
	"presence/pkg/platform/sentinel"
)

// Stable machine-readable codes returned to clients.
const (
	codeBadRequest   = "BAD_REQUEST"
	codeNotFound     = "NONCE_NOT_FOUND"
	codeExpired      = "NONCE_EXPIRED"
	codeAlreadyUsed  = "NONCE_ALREADY_USED"
	codeNodeMismatch = "NONCE_NODE_MISMATCH"
	codeInternal     = "INTERNAL"
)

type errorResponse struct {
	OK     bool           `json:"ok"`
	Code   string         `json:"code"`
	Issues []domain.Issue `json:"issues,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError centralizes domain error translation to HTTP responses.
// Validation failures are 400 with itemized issues; nonce state conflicts are
// 409 with a stable reason code; anything else is an opaque 500.
func writeError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: codeBadRequest, Issues: verr.Issues})
		return
	}

	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		writeJSON(w, http.StatusConflict, errorResponse{Code: codeNotFound})
	case errors.Is(err, sentinel.ErrExpired):
		writeJSON(w, http.StatusConflict, errorResponse{Code: codeExpired})
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		writeJSON(w, http.StatusConflict, errorResponse{Code: codeAlreadyUsed})
	case errors.Is(err, submission.ErrNodeMismatch):
		writeJSON(w, http.StatusConflict, errorResponse{Code: codeNodeMismatch})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Code: codeInternal})
	}
}

func writeBodyError(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Code:   codeBadRequest,
		Issues: []domain.Issue{{Path: "body", Message: "invalid JSON"}},
	})
}
