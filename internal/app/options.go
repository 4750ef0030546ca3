package service

import (
	"strings"
	"time"

	"github.com/okian/scorecard/internal/adapters/repository"
	"github.com/okian/scorecard/internal/domain/model"
	"github.com/okian/scorecard/internal/domain/period"
	"github.com/okian/scorecard/internal/domain/scoring"
	"github.com/okian/scorecard/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSource sets where snapshots are loaded from.
func WithSource(src repository.Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithEngine sets the scoring engine.
func WithEngine(e *scoring.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithSteps overrides the step configuration carried by loaded snapshots.
func WithSteps(steps []model.StepConfig) Option {
	return func(s *Service) {
		s.steps = steps
	}
}

// WithLocation sets the location used to read query dates and to decide
// what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithRefreshInterval sets how often the snapshot is reloaded. Zero disables
// periodic reloads.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.refreshInterval = d
		}
	}
}

// WithRefreshSchedule reloads at the activations of a standard five-field
// cron expression, such as "0 7 * * 1-5". It runs alongside the interval.
func WithRefreshSchedule(spec string) Option {
	return func(s *Service) {
		s.schedule = strings.TrimSpace(spec)
	}
}

// WithRefreshQueueSize bounds pending refresh requests.
func WithRefreshQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWatch reloads whenever a watchable source reports a change.
func WithWatch(enabled bool) Option {
	return func(s *Service) {
		s.watch = enabled
	}
}

// WithDefaultMode sets the filter mode used when a query names none.
func WithDefaultMode(m period.Mode) Option {
	return func(s *Service) {
		if m != "" {
			s.defaultMode = m
		}
	}
}

// WithMaxLimit caps the number of rows a query may ask for.
func WithMaxLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
