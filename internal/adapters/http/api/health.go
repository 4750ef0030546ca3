package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/scorecard/internal/domain/model"
	"github.com/okian/scorecard/pkg/metrics"
)

// SnapshotProvider exposes the active snapshot.
type SnapshotProvider interface {
	Snapshot() (model.Snapshot, error)
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	snapshots SnapshotProvider
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(snapshots SnapshotProvider) *HealthHandler {
	return &HealthHandler{snapshots: snapshots}
}

type healthResponse struct {
	Status   string     `json:"status"`
	Revision string     `json:"revision,omitempty"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
}

// HandleHealth handles GET /healthz requests. It reports 503 until the first
// snapshot is loaded.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	snap, err := h.snapshots.Snapshot()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Revision: snap.Revision, LoadedAt: &snap.LoadedAt})
}

// MetricsHandler serves the Prometheus registry.
func (h *HealthHandler) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
}
