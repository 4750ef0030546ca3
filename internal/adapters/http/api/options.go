package api

import (
	"github.com/okian/scorecard/internal/domain/dedupe"
	"github.com/okian/scorecard/pkg/logger"
)

const defaultMaxLimit = 500

type config struct {
	maxLimit int
	logger   logger.Logger
	dedup    dedupe.Deduper
}

// Option configures a Server.
type Option func(*config)

// WithMaxLimit caps the leaderboard limit parameter.
func WithMaxLimit(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxLimit = n
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDeduper sets the idempotency key tracker used by POST /refresh.
func WithDeduper(d dedupe.Deduper) Option {
	return func(c *config) {
		if d != nil {
			c.dedup = d
		}
	}
}
