package httptransport

import (
	"encoding/json"
	"net/http"

	"presence/internal/checkin"
)

type checkinResponse struct {
	OK          bool   `json:"ok"`
	Nonce       string `json:"nonce"`
	NodeID      string `json:"nodeId"`
	ExpiresAtMs int64  `json:"expiresAtMs"`
}

func (h *Handler) handleCheckin(w http.ResponseWriter, r *http.Request) {
	var req checkin.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBodyError(w)
		return
	}

	receipt, err := h.checkin.Checkin(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, checkinResponse{
		OK:          true,
		Nonce:       receipt.Nonce,
		NodeID:      receipt.NodeID,
		ExpiresAtMs: receipt.ExpiresAt.UnixMilli(),
	})
}
