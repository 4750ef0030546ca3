package api

import (
	"context"
	"net/http"

	service "github.com/okian/scorecard/internal/app"
	"github.com/okian/scorecard/internal/domain/period"
)

// PeriodsDependencies defines the interface for trend bucket reads.
type PeriodsDependencies interface {
	Periods(ctx context.Context, q service.Query) ([]period.Period, error)
}

// PeriodsHandler lists the trend buckets of a filter.
type PeriodsHandler struct {
	deps PeriodsDependencies
}

// NewPeriodsHandler creates a new periods handler.
func NewPeriodsHandler(deps PeriodsDependencies) *PeriodsHandler {
	return &PeriodsHandler{deps: deps}
}

// HandlePeriods handles GET /periods?filter=&from=&to= requests.
func (h *PeriodsHandler) HandlePeriods(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	ps, err := h.deps.Periods(r.Context(), q)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if ps == nil {
		ps = []period.Period{}
	}
	writeJSON(w, http.StatusOK, ps)
}
