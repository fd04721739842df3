package httptransport

import (
	"encoding/json"
	"net/http"

	"presence/internal/submission"
)

type submissionResponse struct {
	OK           bool   `json:"ok"`
	Status       string `json:"status"`
	SubmissionID string `json:"submissionId"`
}

func (h *Handler) handleSubmission(w http.ResponseWriter, r *http.Request) {
	var req submission.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBodyError(w)
		return
	}

	receipt, err := h.submission.Submit(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, submissionResponse{
		OK:           true,
		Status:       receipt.Status,
		SubmissionID: receipt.SubmissionID,
	})
}
