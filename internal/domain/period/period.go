// Package period plans the trend-chart buckets for a filter mode and range.
//
// Buckets only slice the range for charts. Task inclusion in the headline
// numbers always uses the full range.
package period

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/scorecard/internal/domain/dates"
)

// Mode is a dashboard filter mode.
type Mode string

// Supported filter modes.
const (
	Week     Mode = "week"
	Month    Mode = "month"
	Custom   Mode = "custom"
	TillDate Mode = "tillDate"
)

// DefaultMonthlyThresholdDays is the span above which arbitrary ranges are
// bucketed by calendar month instead of by week. The span is measured on the
// normalized range, so a range ending exactly 45 days after its start is
// already past it.
const DefaultMonthlyThresholdDays = 45

const daysPerBucket = 7

// Period is one trend bucket.
type Period struct {
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
	Label string    `json:"label"`
}

// Range returns the bucket as a date range.
func (p Period) Range() dates.Range {
	return dates.Range{From: p.From, To: p.To}
}

// ParseMode parses a filter mode case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "week":
		return Week, nil
	case "month":
		return Month, nil
	case "custom":
		return Custom, nil
	case "tilldate", "till_date", "till-date":
		return TillDate, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Planner derives buckets. The zero value uses DefaultMonthlyThresholdDays.
type Planner struct {
	MonthlyThresholdDays int
}

// Plan returns the ordered buckets for mode over rng. An inverted or unset
// range yields no buckets.
func (p Planner) Plan(mode Mode, rng dates.Range) []Period {
	if !rng.Valid() {
		return nil
	}
	rng = rng.Normalize()

	switch mode {
	case Week:
		return daily(rng.From, daysPerBucket)
	case Month:
		return chunks(rng, func(i int, _ time.Time) string { return fmt.Sprintf("W%d", i+1) })
	default:
		if rng.To.Sub(rng.From) > time.Duration(p.threshold())*24*time.Hour {
			return months(rng)
		}
		return chunks(rng, func(_ int, start time.Time) string { return start.Format("2/1") })
	}
}

// Plan is Planner{}.Plan.
func Plan(mode Mode, rng dates.Range) []Period {
	return Planner{}.Plan(mode, rng)
}

func (p Planner) threshold() int {
	if p.MonthlyThresholdDays > 0 {
		return p.MonthlyThresholdDays
	}
	return DefaultMonthlyThresholdDays
}

// daily returns n one-day buckets labelled by weekday, regardless of the
// range end.
func daily(from time.Time, n int) []Period {
	out := make([]Period, 0, n)
	for i := 0; i < n; i++ {
		d := from.AddDate(0, 0, i)
		out = append(out, Period{
			From:  dates.StartOfDay(d),
			To:    dates.EndOfDay(d),
			Label: d.Format("Mon"),
		})
	}
	return out
}

// chunks walks rng in 7-day steps, clipping the last bucket to rng.To.
func chunks(rng dates.Range, label func(i int, start time.Time) string) []Period {
	var out []Period
	for start, i := rng.From, 0; !start.After(rng.To); i++ {
		end := dates.EndOfDay(start.AddDate(0, 0, daysPerBucket-1))
		if end.After(rng.To) {
			end = rng.To
		}
		out = append(out, Period{From: start, To: end, Label: label(i, start)})
		start = dates.StartOfDay(start.AddDate(0, 0, daysPerBucket))
	}
	return out
}

// months returns calendar-month buckets intersected with rng.
func months(rng dates.Range) []Period {
	var out []Period
	for start := rng.From; !start.After(rng.To); {
		first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location())
		end := dates.EndOfDay(first.AddDate(0, 1, -1))
		if end.After(rng.To) {
			end = rng.To
		}
		out = append(out, Period{From: start, To: end, Label: start.Format("Jan")})
		start = first.AddDate(0, 1, 0)
	}
	return out
}
