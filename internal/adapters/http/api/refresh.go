package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/scorecard/internal/domain/dedupe"
)

// IdempotencyKeyHeader lets clients retry POST /refresh safely.
const IdempotencyKeyHeader = "Idempotency-Key"

// RefreshDependencies defines the interface for snapshot refresh requests.
type RefreshDependencies interface {
	RequestRefresh(ctx context.Context, reason string) (string, error)
}

// RefreshHandler accepts snapshot reload requests.
type RefreshHandler struct {
	deps  RefreshDependencies
	dedup dedupe.Deduper
}

// NewRefreshHandler creates a new refresh handler. Requests carrying an
// Idempotency-Key already seen by dedup are acknowledged without queueing.
func NewRefreshHandler(deps RefreshDependencies, dedup dedupe.Deduper) *RefreshHandler {
	return &RefreshHandler{deps: deps, dedup: dedup}
}

type ackResponse struct {
	Status    string `json:"status"`
	RequestID string `json:"request_id,omitempty"`
	Duplicate bool   `json:"duplicate"`
}

// HandleRefresh handles POST /refresh requests. The reload runs in the
// background; 429 means enough reloads are already pending.
func (h *RefreshHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	reason := strings.TrimSpace(r.URL.Query().Get("reason"))
	if reason == "" {
		reason = "api"
	}
	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if key != "" && h.dedup != nil && h.dedup.SeenAndRecord(r.Context(), key) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	id, err := h.deps.RequestRefresh(r.Context(), reason)
	if err != nil {
		// Let the client retry with the same key.
		if key != "" && h.dedup != nil {
			h.dedup.Unrecord(r.Context(), key)
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", RequestID: id})
}
