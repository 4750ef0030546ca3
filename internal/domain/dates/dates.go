// Package dates answers the two temporal questions the scorecard asks of
// every task: does it belong to a window, and was it finished on time.
//
// Absent and unparsable dates are the same thing here: the zero time.Time.
// Nothing in this package returns an error for bad input.
package dates

import (
	"time"
)

// endOfDayNanos is 23:59:59.999; comparisons are inclusive to the millisecond.
const endOfDayNanos = 999 * int(time.Millisecond)

// Range is an inclusive date window.
type Range struct {
	From time.Time
	To   time.Time
}

// NewRange builds a normalized range.
func NewRange(from, to time.Time) Range {
	return Range{From: from, To: to}.Normalize()
}

// Normalize moves From to the start of its day and To to the end of its day.
func (r Range) Normalize() Range {
	return Range{From: StartOfDay(r.From), To: EndOfDay(r.To)}
}

// Valid reports whether both bounds are set and From is not after To.
func (r Range) Valid() bool {
	return !r.From.IsZero() && !r.To.IsZero() && !r.From.After(r.To)
}

// Contains reports whether t falls within the normalized range.
func (r Range) Contains(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	n := r.Normalize()
	return !t.Before(n.From) && !t.After(n.To)
}

// StartOfDay returns 00:00:00.000 of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 of t's day in t's location.
func EndOfDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, endOfDayNanos, t.Location())
}

// InRange reports whether either a or b lies within r. A task may be placed
// in a window by its deadline or by its last-touched time.
func InRange(a, b time.Time, r Range) bool {
	return r.Contains(a) || r.Contains(b)
}

// IsOnTime reports whether completed is no later than the end of due's day.
// Both must be present.
func IsOnTime(due, completed time.Time) bool {
	if due.IsZero() || completed.IsZero() {
		return false
	}
	return !completed.After(EndOfDay(due))
}

// Remaining is the time left until the end of due's day as seen at now.
// Negative values mean overdue. ok is false when due is absent.
func Remaining(due, now time.Time) (d time.Duration, ok bool) {
	if due.IsZero() {
		return 0, false
	}
	return EndOfDay(due).Sub(now), true
}
