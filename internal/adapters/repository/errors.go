package repository

import "errors"

// Sentinel kinds for snapshot source errors.
var (
	ErrSourceUnavailable = errors.New("snapshot source unavailable")
	ErrSnapshotDecode    = errors.New("snapshot decode failed")
	ErrInvalidSchema     = errors.New("invalid database schema name")
)
