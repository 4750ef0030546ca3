package api

import (
	"context"
	"net/http"

	service "github.com/okian/scorecard/internal/app"
	"github.com/okian/scorecard/internal/domain/scoring"
)

// ScoresDependencies defines the interface for scorecard reads.
type ScoresDependencies interface {
	Scores(ctx context.Context, q service.Query) (service.Report, error)
	UserScore(ctx context.Context, username string, q service.Query) (scoring.UserScore, error)
	UserTasks(ctx context.Context, username string, q service.Query) ([]scoring.TaskRow, error)
}

// ScoresHandler serves computed scorecards.
type ScoresHandler struct {
	deps ScoresDependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps ScoresDependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

type tasksResponse struct {
	Username string            `json:"username"`
	Tasks    []scoring.TaskRow `json:"tasks"`
}

// HandleList handles GET /scores?filter=&from=&to=&limit= requests.
func (h *ScoresHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	report, err := h.deps.Scores(r.Context(), q)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleUser handles GET /scores/{username} and GET /scores/{username}/tasks.
func (h *ScoresHandler) HandleUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	parts := pathParts(r.URL.Path, "/scores/")
	q, err := parseQuery(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	switch {
	case len(parts) == 1:
		us, err := h.deps.UserScore(r.Context(), parts[0], q)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, us)
	case len(parts) == 2 && parts[1] == "tasks":
		rows, err := h.deps.UserTasks(r.Context(), parts[0], q)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if rows == nil {
			rows = []scoring.TaskRow{}
		}
		writeJSON(w, http.StatusOK, tasksResponse{Username: parts[0], Tasks: rows})
	default:
		writeError(w, http.StatusNotFound, "not_found", ErrNotFound)
	}
}
