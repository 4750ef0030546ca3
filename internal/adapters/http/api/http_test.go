package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/scorecard/internal/adapters/http/api"
	service "github.com/okian/scorecard/internal/app"
	"github.com/okian/scorecard/internal/domain/model"
	"github.com/okian/scorecard/internal/domain/period"
	"github.com/okian/scorecard/internal/domain/scoring"
	"github.com/okian/scorecard/internal/domain/task"
	"github.com/okian/scorecard/internal/domain/types"
	"github.com/okian/scorecard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDependencies records the last query and returns canned results.
type mockDependencies struct {
	snapErr    error
	scoresErr  error
	userErr    error
	refreshErr error
	topNErr    error
	rankErr    error

	lastQuery    service.Query
	lastUser     string
	lastReason   string
	requestCount int

	entries []types.Entry
}

func (m *mockDependencies) Snapshot() (model.Snapshot, error) {
	if m.snapErr != nil {
		return model.Snapshot{}, m.snapErr
	}
	return model.Snapshot{Revision: "rev-1", LoadedAt: time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)}, nil
}

func (m *mockDependencies) Scores(ctx context.Context, q service.Query) (service.Report, error) {
	m.lastQuery = q
	if m.scoresErr != nil {
		return service.Report{}, m.scoresErr
	}
	return service.Report{
		Revision:  "rev-1",
		Mode:      period.Month,
		Standings: []types.Entry{{Rank: 1, Username: "asha", Score: 100}},
		Scores:    []scoring.UserScore{{User: model.User{Username: "asha"}, TotalTasks: 2, CompletedTasks: 2, ScorePercentage: 100}},
	}, nil
}

func (m *mockDependencies) UserScore(ctx context.Context, username string, q service.Query) (scoring.UserScore, error) {
	m.lastUser, m.lastQuery = username, q
	if m.userErr != nil {
		return scoring.UserScore{}, m.userErr
	}
	return scoring.UserScore{User: model.User{Username: username}, TotalTasks: 3, CompletedTasks: 1, ScorePercentage: 33}, nil
}

func (m *mockDependencies) UserTasks(ctx context.Context, username string, q service.Query) ([]scoring.TaskRow, error) {
	m.lastUser, m.lastQuery = username, q
	if m.userErr != nil {
		return nil, m.userErr
	}
	left := int64(3600)
	return []scoring.TaskRow{
		{Task: task.Task{Kind: task.Delegation, SourceID: "d1", Status: "pending"}, RemainingSeconds: &left},
	}, nil
}

func (m *mockDependencies) Periods(ctx context.Context, q service.Query) ([]period.Period, error) {
	m.lastQuery = q
	if m.scoresErr != nil {
		return nil, m.scoresErr
	}
	return []period.Period{{Label: "W1"}, {Label: "W2"}}, nil
}

func (m *mockDependencies) RequestRefresh(ctx context.Context, reason string) (string, error) {
	m.lastReason = reason
	m.requestCount++
	if m.refreshErr != nil {
		return "", m.refreshErr
	}
	return fmt.Sprintf("req-%d", m.requestCount), nil
}

func (m *mockDependencies) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	if m.topNErr != nil {
		return nil, m.topNErr
	}
	if n > len(m.entries) {
		return m.entries, nil
	}
	return m.entries[:n], nil
}

func (m *mockDependencies) Rank(ctx context.Context, username string) (types.Entry, error) {
	m.lastUser = username
	if m.rankErr != nil {
		return types.Entry{}, m.rankErr
	}
	return types.Entry{Rank: 2, Username: username, Score: 75}, nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newMux(deps *mockDependencies, opts ...api.Option) *http.ServeMux {
	opts = append([]api.Option{api.WithLogger(logger.NewNop())}, opts...)
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, opts...)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func serve(mux *http.ServeMux, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
	return body
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDependencies{entries: []types.Entry{{Rank: 1, Username: "asha"}}}
		mux := newMux(deps)

		Convey("Then every route should answer", func() {
			So(serve(mux, http.MethodGet, "/healthz").Code, ShouldEqual, http.StatusOK)
			So(serve(mux, http.MethodGet, "/metrics").Code, ShouldEqual, http.StatusOK)
			So(serve(mux, http.MethodGet, "/stats").Code, ShouldEqual, http.StatusOK)
			So(serve(mux, http.MethodGet, "/scores").Code, ShouldEqual, http.StatusOK)
			So(serve(mux, http.MethodGet, "/scores/asha").Code, ShouldEqual, http.StatusOK)
			So(serve(mux, http.MethodGet, "/scores/asha/tasks").Code, ShouldEqual, http.StatusOK)
			So(serve(mux, http.MethodGet, "/periods").Code, ShouldEqual, http.StatusOK)
			So(serve(mux, http.MethodPost, "/refresh").Code, ShouldEqual, http.StatusAccepted)
			So(serve(mux, http.MethodGet, "/leaderboard?limit=1").Code, ShouldEqual, http.StatusOK)
			So(serve(mux, http.MethodGet, "/rank/asha").Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then responses should carry a request id", func() {
			w := serve(mux, http.MethodGet, "/scores")
			So(w.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)

			req := httptest.NewRequest(http.MethodGet, "/scores", nil)
			req.Header.Set(api.RequestIDHeader, "abc-123")
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			So(rec.Header().Get(api.RequestIDHeader), ShouldEqual, "abc-123")
		})

		Convey("Then wrong methods should not be routed", func() {
			So(serve(mux, http.MethodPost, "/scores").Code, ShouldEqual, http.StatusNotFound)
			So(serve(mux, http.MethodGet, "/refresh").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestScoresHandler(t *testing.T) {
	Convey("Given the scores routes", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When listing scores with a query", func() {
			w := serve(mux, http.MethodGet, "/scores?filter=custom&from=2024-01-01&to=2024-03-31&limit=5")

			Convey("Then the query should be passed through", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastQuery, ShouldResemble, service.Query{Filter: "custom", From: "2024-01-01", To: "2024-03-31", Limit: 5})

				var report map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &report), ShouldBeNil)
				So(report["revision"], ShouldEqual, "rev-1")
				So(report["filter"], ShouldEqual, "month")
				So(report["scores"], ShouldHaveLength, 1)
			})
		})

		Convey("When the limit is not a number", func() {
			w := serve(mux, http.MethodGet, "/scores?limit=ten")

			Convey("Then it should return 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When the service rejects the query", func() {
			deps.scoresErr = fmt.Errorf("%w: unknown filter", service.ErrBadRequest)
			w := serve(mux, http.MethodGet, "/scores?filter=quarter")

			Convey("Then it should return 400 with the message", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["message"], ShouldContainSubstring, "unknown filter")
			})
		})

		Convey("When no snapshot is loaded yet", func() {
			deps.scoresErr = service.ErrNotReady
			w := serve(mux, http.MethodGet, "/scores")

			Convey("Then it should return 503", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(decodeError(w)["code"], ShouldEqual, "not_ready")
			})
		})

		Convey("When computing fails unexpectedly", func() {
			deps.scoresErr = errors.New("boom")
			So(serve(mux, http.MethodGet, "/scores").Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("When reading one user", func() {
			w := serve(mux, http.MethodGet, "/scores/asha?filter=week")

			Convey("Then it should return the scorecard", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastUser, ShouldEqual, "asha")
				So(deps.lastQuery.Filter, ShouldEqual, "week")

				var us map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &us), ShouldBeNil)
				So(us["score_percentage"], ShouldEqual, 33.0)
			})
		})

		Convey("When reading one user's tasks", func() {
			w := serve(mux, http.MethodGet, "/scores/asha/tasks")

			Convey("Then it should return the rows", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"username":"asha"`)
				So(w.Body.String(), ShouldContainSubstring, `"d1"`)
			})
		})

		Convey("When the user is unknown", func() {
			deps.userErr = fmt.Errorf("%w: nobody", service.ErrUserNotFound)

			Convey("Then both user routes should return 404", func() {
				So(serve(mux, http.MethodGet, "/scores/nobody").Code, ShouldEqual, http.StatusNotFound)
				So(serve(mux, http.MethodGet, "/scores/nobody/tasks").Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the path has an unknown tail", func() {
			So(serve(mux, http.MethodGet, "/scores/asha/other").Code, ShouldEqual, http.StatusNotFound)
			So(serve(mux, http.MethodGet, "/scores/").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestPeriodsHandler(t *testing.T) {
	Convey("Given the periods route", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When listing periods", func() {
			w := serve(mux, http.MethodGet, "/periods?filter=month")

			Convey("Then it should return the buckets", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var ps []map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &ps), ShouldBeNil)
				So(ps, ShouldHaveLength, 2)
				So(ps[0]["label"], ShouldEqual, "W1")
			})
		})

		Convey("When the range is invalid", func() {
			deps.scoresErr = fmt.Errorf("%w: from after to", service.ErrBadRequest)
			So(serve(mux, http.MethodGet, "/periods?filter=custom").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestRefreshHandler(t *testing.T) {
	Convey("Given the refresh route", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When a refresh is accepted", func() {
			w := serve(mux, http.MethodPost, "/refresh?reason=sheet-edit")

			Convey("Then it should return 202 with a request id", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(w.Body.String(), ShouldContainSubstring, `"request_id":"req-1"`)
				So(deps.lastReason, ShouldEqual, "sheet-edit")
			})
		})

		Convey("When no reason is given", func() {
			serve(mux, http.MethodPost, "/refresh")
			So(deps.lastReason, ShouldEqual, "api")
		})

		Convey("When the refresh queue is full", func() {
			deps.refreshErr = service.ErrBackpressure
			w := serve(mux, http.MethodPost, "/refresh")

			Convey("Then it should return 429", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(decodeError(w)["code"], ShouldEqual, "backpressure")
			})
		})

		post := func(key string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
			req.Header.Set(api.IdempotencyKeyHeader, key)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			return w
		}

		Convey("When the same idempotency key is sent twice", func() {
			first := post("k-1")
			second := post("k-1")

			Convey("Then only the first request is queued", func() {
				So(first.Code, ShouldEqual, http.StatusAccepted)
				So(second.Code, ShouldEqual, http.StatusOK)
				So(second.Body.String(), ShouldContainSubstring, `"duplicate":true`)
				So(deps.requestCount, ShouldEqual, 1)
			})

			Convey("Then a different key is queued again", func() {
				So(post("k-2").Code, ShouldEqual, http.StatusAccepted)
				So(deps.requestCount, ShouldEqual, 2)
			})
		})

		Convey("When a keyed request is rejected", func() {
			deps.refreshErr = service.ErrBackpressure
			So(post("k-3").Code, ShouldEqual, http.StatusTooManyRequests)

			Convey("Then a retry with the same key is queued", func() {
				deps.refreshErr = nil
				So(post("k-3").Code, ShouldEqual, http.StatusAccepted)
				So(deps.requestCount, ShouldEqual, 2)
			})
		})
	})
}

func TestLeaderboardHandler_HandleGetLeaderboard(t *testing.T) {
	Convey("Given a leaderboard handler", t, func() {
		deps := &mockDependencies{entries: []types.Entry{
			{Rank: 1, Username: "asha", Score: 100},
			{Rank: 2, Username: "ravi", Score: 80},
			{Rank: 3, Username: "mei", Score: 50},
		}}
		mux := newMux(deps, api.WithMaxLimit(2))

		Convey("When requesting top N entries", func() {
			w := serve(mux, http.MethodGet, "/leaderboard?limit=2")

			Convey("Then it should return the top N entries", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var entries []types.Entry
				So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].Username, ShouldEqual, "asha")
			})
		})

		Convey("When no limit is specified", func() {
			So(serve(mux, http.MethodGet, "/leaderboard").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the limit exceeds the maximum", func() {
			w := serve(mux, http.MethodGet, "/leaderboard?limit=3")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["code"], ShouldEqual, "limit_exceeded")
		})

		Convey("When leaderboard returns an error", func() {
			deps.topNErr = errors.New("boom")
			So(serve(mux, http.MethodGet, "/leaderboard?limit=1").Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestRankHandler_HandleGetRank(t *testing.T) {
	Convey("Given a rank handler", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When requesting rank for an existing user", func() {
			w := serve(mux, http.MethodGet, "/rank/asha")

			Convey("Then it should return the rank information", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var e types.Entry
				So(json.Unmarshal(w.Body.Bytes(), &e), ShouldBeNil)
				So(e.Rank, ShouldEqual, 2)
				So(e.Username, ShouldEqual, "asha")
			})
		})

		Convey("When requesting rank for an unknown user", func() {
			deps.rankErr = fmt.Errorf("%w: nobody", service.ErrUserNotFound)
			So(serve(mux, http.MethodGet, "/rank/nobody").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the path is malformed", func() {
			So(serve(mux, http.MethodGet, "/rank/").Code, ShouldEqual, http.StatusBadRequest)
			So(serve(mux, http.MethodGet, "/rank/a/b").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestHealthHandler_HandleHealth(t *testing.T) {
	Convey("Given a health handler", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When a snapshot is loaded", func() {
			w := serve(mux, http.MethodGet, "/healthz")

			Convey("Then it should report ok with the revision", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
				So(w.Body.String(), ShouldContainSubstring, `"revision":"rev-1"`)
			})
		})

		Convey("When no snapshot is loaded", func() {
			deps.snapErr = service.ErrNotReady
			w := serve(mux, http.MethodGet, "/healthz")

			Convey("Then it should report unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(w.Body.String(), ShouldContainSubstring, `"status":"unavailable"`)
			})
		})

		Convey("When scraping metrics", func() {
			serve(mux, http.MethodGet, "/scores")
			w := serve(mux, http.MethodGet, "/metrics")

			Convey("Then HTTP counters should be exposed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.Contains(w.Body.String(), "requests_total"), ShouldBeTrue)
			})
		})
	})
}

func TestStatsHandler_HandleStats(t *testing.T) {
	Convey("Given a stats handler", t, func() {
		h := api.NewStatsHandler(&mockStatsProvider{stats: map[string]interface{}{"reloads": 3}})

		Convey("When handling stats request", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			w := httptest.NewRecorder()
			h.HandleStats(w, req)

			Convey("Then it should return stats", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"reloads":3`)
			})
		})
	})
}
