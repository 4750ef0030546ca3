// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/scorecard/internal/app"
	"github.com/okian/scorecard/internal/domain/dedupe"
	"github.com/okian/scorecard/internal/domain/model"
	"github.com/okian/scorecard/internal/domain/period"
	"github.com/okian/scorecard/internal/domain/scoring"
	"github.com/okian/scorecard/internal/domain/types"
	"github.com/okian/scorecard/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Snapshot() (model.Snapshot, error)

	Scores(ctx context.Context, q service.Query) (service.Report, error)
	UserScore(ctx context.Context, username string, q service.Query) (scoring.UserScore, error)
	UserTasks(ctx context.Context, username string, q service.Query) ([]scoring.TaskRow, error)
	Periods(ctx context.Context, q service.Query) ([]period.Period, error)

	// RequestRefresh asks for a snapshot reload. Returns ErrBackpressure when
	// too many reloads are pending.
	RequestRefresh(ctx context.Context, reason string) (string, error)

	// Read operations expose leaderboard data.
	TopN(ctx context.Context, n int) ([]Entry, error)
	Rank(ctx context.Context, username string) (Entry, error)
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	scoresHandler      *ScoresHandler
	periodsHandler     *PeriodsHandler
	refreshHandler     *RefreshHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	logger             logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	cfg := config{maxLimit: defaultMaxLimit}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Get().Named("api")
	}
	if cfg.dedup == nil {
		cfg.dedup = dedupe.NewInMemoryDeduper()
	}
	return &Server{
		healthHandler:      NewHealthHandler(deps),
		statsHandler:       NewStatsHandler(statsProvider),
		scoresHandler:      NewScoresHandler(deps),
		periodsHandler:     NewPeriodsHandler(deps),
		refreshHandler:     NewRefreshHandler(deps, cfg.dedup),
		leaderboardHandler: NewLeaderboardHandler(deps, cfg.maxLimit),
		rankHandler:        NewRankHandler(deps),
		logger:             cfg.logger,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(path, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(path, RequestIDMiddleware(MetricsMiddleware(h, endpoint), s.logger))
	}
	route("/healthz", "healthz", s.healthHandler.HandleHealth)
	mux.Handle("/metrics", s.healthHandler.MetricsHandler())
	route("/stats", "stats", s.statsHandler.HandleStats)
	route("/scores", "scores", s.scoresHandler.HandleList)
	route("/scores/", "scores_user", s.scoresHandler.HandleUser)
	route("/periods", "periods", s.periodsHandler.HandlePeriods)
	route("/refresh", "refresh", s.refreshHandler.HandleRefresh)
	route("/leaderboard", "leaderboard", s.leaderboardHandler.HandleGetLeaderboard)
	route("/rank/", "rank", s.rankHandler.HandleGetRank)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service sentinels to a status and code.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrBadRequest), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, service.ErrNotReady):
		writeError(w, http.StatusServiceUnavailable, "not_ready", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
