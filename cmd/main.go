package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/okian/scorecard/internal/adapters/http/api"
	"github.com/okian/scorecard/internal/adapters/http/swagger"
	"github.com/okian/scorecard/internal/adapters/repository"
	app "github.com/okian/scorecard/internal/app"
	"github.com/okian/scorecard/internal/config"
	"github.com/okian/scorecard/internal/domain/dedupe"
	"github.com/okian/scorecard/internal/domain/period"
	"github.com/okian/scorecard/internal/domain/scoring"
	"github.com/okian/scorecard/pkg/logger"
	"github.com/okian/scorecard/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use fmt for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWith(os.Stdout, logger.Format(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "scorecard server failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	src, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	svc, err := newService(cfg, src, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, cfg, svc, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// openSource builds the configured snapshot source and its cleanup.
func openSource(ctx context.Context, cfg *config.Config) (repository.Source, func(), error) {
	switch strings.ToLower(cfg.Source) {
	case config.SourcePostgres:
		pg, err := repository.NewPostgresSource(ctx, cfg.DatabaseURL, repository.WithSchema(cfg.DatabaseSchema))
		if err != nil {
			return nil, nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = pg.Close()
			return nil, nil, err
		}
		return pg, func() { _ = pg.Close() }, nil
	default:
		return repository.NewFileSource(cfg.SnapshotPath), func() {}, nil
	}
}

// newService wires the scoring engine and service from cfg.
func newService(cfg *config.Config, src repository.Source, log logger.Logger) (*app.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	mode, err := period.ParseMode(cfg.DefaultFilter)
	if err != nil {
		return nil, fmt.Errorf("%w: default_filter: %w", config.ErrInvalidConfig, err)
	}
	engine := scoring.NewEngine(
		scoring.WithLocation(loc),
		scoring.WithMonthlyThresholdDays(cfg.MonthlyThresholdDays),
	)
	return app.New(
		app.WithLogger(log.Named("service")),
		app.WithSource(src),
		app.WithEngine(engine),
		app.WithSteps(cfg.StepConfigs()),
		app.WithLocation(loc),
		app.WithRefreshInterval(cfg.RefreshInterval),
		app.WithRefreshSchedule(cfg.RefreshSchedule),
		app.WithRefreshQueueSize(cfg.RefreshQueueSize),
		app.WithWatch(cfg.WatchSnapshot),
		app.WithDefaultMode(mode),
		app.WithMaxLimit(cfg.MaxScoresLimit),
	), nil
}

// newMux registers the API docs and business routes.
func newMux(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux, swagger.WithRedocBundle(cfg.RedocBundle), swagger.WithLogger(log.Named("swagger")))
	api.NewServer(svc, svc,
		api.WithLogger(log.Named("api")),
		api.WithMaxLimit(cfg.MaxScoresLimit),
		api.WithDeduper(dedupe.NewInMemoryDeduper(dedupe.WithTTL(cfg.RefreshKeyTTL))),
	).Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
