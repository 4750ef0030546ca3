package worker

import (
	"github.com/okian/scorecard/pkg/logger"
)

// Option applies a configuration option to the Refresher.
type Option func(*Refresher)

// WithName sets the refresher name for identification and logging.
func WithName(name string) Option {
	return func(w *Refresher) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the refresher.
func WithLogger(l logger.Logger) Option {
	return func(w *Refresher) {
		if l != nil {
			w.logger = l
		}
	}
}
