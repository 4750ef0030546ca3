// Package repository loads scorecard snapshots from files or Postgres.
package repository

import (
	"context"

	"github.com/okian/scorecard/internal/domain/model"
)

// Source provides read access to the raw scorecard collections.
type Source interface {
	// Load returns a fresh snapshot of every collection.
	Load(ctx context.Context) (model.Snapshot, error)
}

// Watcher is implemented by sources that can signal changes. The returned
// channel receives a value after each settled change and is closed when ctx
// is done.
type Watcher interface {
	Watch(ctx context.Context) (<-chan struct{}, error)
}
