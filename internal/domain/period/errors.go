package period

import "errors"

// Sentinel kinds for period errors.
var (
	ErrUnknownMode  = errors.New("unknown filter mode")
	ErrInvalidRange = errors.New("invalid date range")
)
