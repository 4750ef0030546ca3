package period

import (
	"fmt"
	"time"

	"github.com/okian/scorecard/internal/domain/dates"
)

// Resolve turns a filter mode into a concrete range as seen at now.
//
//   - week: the seven days ending today
//   - month: the current calendar month
//   - custom: from and to, both required
//   - tillDate: from (required) up to today
//
// from and to are ignored by week and month.
func Resolve(mode Mode, now, from, to time.Time) (dates.Range, error) {
	today := dates.StartOfDay(now)
	var r dates.Range
	switch mode {
	case Week:
		r = dates.Range{From: today.AddDate(0, 0, -(daysPerBucket - 1)), To: today}
	case Month:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		r = dates.Range{From: first, To: first.AddDate(0, 1, -1)}
	case Custom:
		if from.IsZero() || to.IsZero() {
			return dates.Range{}, fmt.Errorf("%w: custom ranges need both from and to", ErrInvalidRange)
		}
		r = dates.Range{From: from, To: to}
	case TillDate:
		if from.IsZero() {
			return dates.Range{}, fmt.Errorf("%w: till-date ranges need a start", ErrInvalidRange)
		}
		r = dates.Range{From: from, To: today}
	default:
		return dates.Range{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	if !r.Valid() {
		return dates.Range{}, fmt.Errorf("%w: %s is after %s", ErrInvalidRange,
			r.From.Format(time.DateOnly), r.To.Format(time.DateOnly))
	}
	return r.Normalize(), nil
}
