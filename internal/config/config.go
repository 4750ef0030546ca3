// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Loading functions accept context.Context as the first parameter.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/scorecard/internal/domain/model"
)

// Source kinds.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// Step maps one pipeline step to its responsible user.
type Step struct {
	Step     int    `koanf:"step"`
	StepName string `koanf:"step_name"`
	DoerName string `koanf:"doer_name"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Timezone is the IANA location used to interpret dates without an offset.
	Timezone string `koanf:"timezone"`

	// Source selects where snapshots are read from: file or postgres.
	Source string `koanf:"source"`

	// SnapshotPath is the JSON or YAML snapshot used by the file source.
	SnapshotPath string `koanf:"snapshot_path"`

	// WatchSnapshot reloads the file snapshot when it changes on disk.
	WatchSnapshot bool `koanf:"watch_snapshot"`

	// DatabaseURL and DatabaseSchema configure the postgres source.
	DatabaseURL    string `koanf:"database_url"`
	DatabaseSchema string `koanf:"database_schema"`

	// RefreshInterval is how often the snapshot is reloaded in the background.
	RefreshInterval time.Duration `koanf:"refresh_interval"`

	// RefreshSchedule is an optional five-field cron expression, evaluated in
	// Timezone, at which the snapshot is also reloaded.
	RefreshSchedule string `koanf:"refresh_schedule"`

	// RefreshQueueSize bounds pending on-demand refresh requests.
	RefreshQueueSize int `koanf:"refresh_queue_size"`

	// RefreshKeyTTL is how long a POST /refresh Idempotency-Key is remembered.
	RefreshKeyTTL time.Duration `koanf:"refresh_key_ttl"`

	// MonthlyThresholdDays is the span above which custom ranges bucket by month.
	MonthlyThresholdDays int `koanf:"monthly_threshold_days"`

	// DefaultFilter is used when a request does not name a filter mode.
	DefaultFilter string `koanf:"default_filter"`

	// MaxScoresLimit caps GET /scores?limit.
	MaxScoresLimit int `koanf:"max_scores_limit"`

	// RedocBundle is a local copy of redoc.standalone.js served with the API
	// docs page. Empty loads ReDoc from its CDN.
	RedocBundle string `koanf:"redoc_bundle"`

	// Steps overrides the step configuration carried by the snapshot when non-empty.
	Steps []Step `koanf:"steps"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		Timezone:             "UTC",
		Source:               SourceFile,
		SnapshotPath:         "snapshot.json",
		DatabaseSchema:       "public",
		RefreshInterval:      5 * time.Minute,
		RefreshQueueSize:     8,
		RefreshKeyTTL:        time.Minute,
		MonthlyThresholdDays: 45,
		DefaultFilter:        "month",
		MaxScoresLimit:       500,
	}
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// StepConfigs converts Steps to the domain form.
func (c *Config) StepConfigs() []model.StepConfig {
	if len(c.Steps) == 0 {
		return nil
	}
	out := make([]model.StepConfig, len(c.Steps))
	for i, s := range c.Steps {
		out[i] = model.StepConfig{Step: s.Step, StepName: s.StepName, DoerName: s.DoerName}
	}
	return out
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MonthlyThresholdDays <= 0:
		return fmt.Errorf("%w: monthly_threshold_days must be positive", ErrInvalidConfig)
	case c.MaxScoresLimit <= 0:
		return fmt.Errorf("%w: max_scores_limit must be positive", ErrInvalidConfig)
	case c.RefreshKeyTTL < 0:
		return fmt.Errorf("%w: refresh_key_ttl must not be negative", ErrInvalidConfig)
	}

	switch strings.ToLower(c.Source) {
	case SourceFile:
		if strings.TrimSpace(c.SnapshotPath) == "" {
			return fmt.Errorf("%w: snapshot_path is required for the file source", ErrInvalidConfig)
		}
	case SourcePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("%w: database_url is required for the postgres source", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidConfig, c.Source)
	}

	seen := make(map[int]bool, len(c.Steps))
	for _, s := range c.Steps {
		if s.Step <= 0 {
			return fmt.Errorf("%w: step numbers start at 1, got %d", ErrInvalidConfig, s.Step)
		}
		if seen[s.Step] {
			return fmt.Errorf("%w: step %d configured twice", ErrInvalidConfig, s.Step)
		}
		seen[s.Step] = true
	}

	if strings.TrimSpace(c.RefreshSchedule) != "" {
		if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
			return fmt.Errorf("%w: refresh_schedule %q: %v", ErrInvalidConfig, c.RefreshSchedule, err)
		}
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
