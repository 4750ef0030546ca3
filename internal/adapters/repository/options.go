package repository

import "time"

// FileOption applies a configuration option to the FileSource.
type FileOption func(*FileSource)

// WithDebounce sets how long the watcher waits for writes to settle before
// signalling a change.
func WithDebounce(d time.Duration) FileOption {
	return func(s *FileSource) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// PostgresOption applies a configuration option to the PostgresSource.
type PostgresOption func(*PostgresSource)

// WithSchema sets the schema holding the scorecard tables.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresSource) {
		if schema != "" {
			s.schema = schema
		}
	}
}

// WithQueryTimeout bounds each Load.
func WithQueryTimeout(d time.Duration) PostgresOption {
	return func(s *PostgresSource) {
		if d > 0 {
			s.timeout = d
		}
	}
}
