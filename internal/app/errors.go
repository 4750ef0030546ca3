package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("refresh queue full")
	ErrNoSource     = errors.New("no snapshot source configured")
	ErrNotReady     = errors.New("no snapshot loaded")
	ErrBadSchedule  = errors.New("invalid refresh schedule")
)
