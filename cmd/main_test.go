package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/scorecard/internal/adapters/repository"
	app "github.com/okian/scorecard/internal/app"
	"github.com/okian/scorecard/internal/config"
	"github.com/okian/scorecard/internal/fixtures"
	"github.com/okian/scorecard/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given a generated snapshot on disk", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		snap, err := fixtures.Generate(ctx, fixtures.Config{Seed: 1, Users: 4, Orders: 5})
		convey.So(err, convey.ShouldBeNil)
		path := filepath.Join(t.TempDir(), "snapshot.yaml")
		convey.So(repository.Save(path, snap), convey.ShouldBeNil)

		cfg := config.New()
		cfg.SnapshotPath = path
		cfg.RefreshInterval = 0
		log := logger.NewNop()

		convey.Convey("When wiring the service and routes", func() {
			src, closeSource, err := openSource(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			defer closeSource()

			svc, err := newService(cfg, src, log)
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			mux := newMux(ctx, cfg, svc, log)

			convey.Convey("Then the API should serve scorecards from the snapshot", func() {
				for _, target := range []string{"/healthz", "/scores", "/periods?filter=week", "/api-docs", "/openapi.yaml"} {
					w := httptest.NewRecorder()
					mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, http.NoBody))
					convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				}

				r, err := svc.Scores(ctx, app.Query{Filter: "tillDate"})
				convey.So(err, convey.ShouldBeNil)
				convey.So(r.Revision, convey.ShouldEqual, snap.Revision)
				convey.So(r.Scores, convey.ShouldHaveLength, 4)
			})
		})
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	convey.Convey("Given an invalid configuration", t, func() {
		cfg := config.New()
		src := repository.NewFileSource(filepath.Join(t.TempDir(), "missing.json"))

		convey.Convey("When the default filter is unknown", func() {
			cfg.DefaultFilter = "quarter"
			_, err := newService(cfg, src, logger.NewNop())

			convey.Convey("Then wiring should fail with an invalid config error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the timezone is unknown", func() {
			cfg.Timezone = "Mars/Olympus"
			_, err := newService(cfg, src, logger.NewNop())
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the snapshot file is missing", func() {
			svc, err := newService(cfg, src, logger.NewNop())
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the service should refuse to start", func() {
				err := svc.Start(context.Background())
				convey.So(errors.Is(err, repository.ErrSourceUnavailable), convey.ShouldBeTrue)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When running the system metrics updater until cancelled", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			convey.Convey("Then it should return without panicking", func() {
				convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When updating system metrics", func() {
			convey.Convey("Then it should not panic", func() {
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			})
		})
	})
}
