package period_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/scorecard/internal/domain/dates"
	"github.com/okian/scorecard/internal/domain/period"
	. "github.com/smartystreets/goconvey/convey"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func labels(ps []period.Period) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Label
	}
	return out
}

// assertCovers checks the buckets tile rng with no gaps or overlaps.
func assertCovers(ps []period.Period, rng dates.Range) {
	n := rng.Normalize()
	So(ps, ShouldNotBeEmpty)
	So(ps[0].From, ShouldEqual, n.From)
	So(ps[len(ps)-1].To, ShouldEqual, n.To)
	for i, p := range ps {
		So(p.From.After(p.To), ShouldBeFalse)
		if i == 0 {
			continue
		}
		prev := ps[i-1]
		So(p.From.After(prev.To), ShouldBeTrue)
		So(p.From, ShouldEqual, dates.StartOfDay(prev.To.AddDate(0, 0, 1)))
	}
}

func TestParseMode(t *testing.T) {
	Convey("Given filter mode strings", t, func() {
		cases := map[string]period.Mode{
			"week":      period.Week,
			"MONTH":     period.Month,
			" custom ":  period.Custom,
			"tillDate":  period.TillDate,
			"till_date": period.TillDate,
		}
		for raw, want := range cases {
			got, err := period.ParseMode(raw)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, want)
		}

		_, err := period.ParseMode("quarter")
		So(errors.Is(err, period.ErrUnknownMode), ShouldBeTrue)
	})
}

func TestPlanWeek(t *testing.T) {
	Convey("Given the week mode", t, func() {
		rng := dates.Range{From: day(2024, time.March, 4), To: day(2024, time.March, 10)}
		ps := period.Plan(period.Week, rng)

		Convey("Then it should yield seven daily buckets labelled by weekday", func() {
			So(labels(ps), ShouldResemble, []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"})
			assertCovers(ps, rng)
		})

		Convey("And the bucket count should not depend on the range span", func() {
			short := dates.Range{From: day(2024, time.March, 4), To: day(2024, time.March, 5)}
			So(period.Plan(period.Week, short), ShouldHaveLength, 7)
		})
	})
}

func TestPlanMonth(t *testing.T) {
	Convey("Given the month mode over March 2024", t, func() {
		rng := dates.Range{From: day(2024, time.March, 1), To: day(2024, time.March, 31)}
		ps := period.Plan(period.Month, rng)

		Convey("Then it should yield 7-day buckets with a clipped tail", func() {
			So(labels(ps), ShouldResemble, []string{"W1", "W2", "W3", "W4", "W5"})
			So(ps[4].From, ShouldEqual, day(2024, time.March, 29))
			So(ps[4].To, ShouldEqual, dates.EndOfDay(day(2024, time.March, 31)))
			assertCovers(ps, rng)
		})
	})
}

func TestPlanCustom(t *testing.T) {
	Convey("Given a custom range spanning 60 days", t, func() {
		rng := dates.Range{From: day(2024, time.March, 15), To: day(2024, time.May, 14)}
		ps := period.Plan(period.Custom, rng)

		Convey("Then it should bucket by calendar month", func() {
			So(labels(ps), ShouldResemble, []string{"Mar", "Apr", "May"})
			So(ps[0].From, ShouldEqual, day(2024, time.March, 15))
			So(ps[0].To, ShouldEqual, dates.EndOfDay(day(2024, time.March, 31)))
			So(ps[1].From, ShouldEqual, day(2024, time.April, 1))
			So(ps[2].To, ShouldEqual, dates.EndOfDay(day(2024, time.May, 14)))
			assertCovers(ps, rng)
		})
	})

	Convey("Given a custom range ending 44 days after it starts", t, func() {
		rng := dates.Range{From: day(2024, time.March, 1), To: day(2024, time.April, 14)}
		ps := period.Plan(period.Custom, rng)

		Convey("Then it should still bucket by week, labelled D/M", func() {
			So(ps[0].Label, ShouldEqual, "1/3")
			So(ps[1].Label, ShouldEqual, "8/3")
			So(ps, ShouldHaveLength, 7)
			assertCovers(ps, rng)
		})
	})

	Convey("Given a custom range ending 45 days after it starts", t, func() {
		rng := dates.Range{From: day(2024, time.March, 1), To: day(2024, time.April, 15)}

		Convey("Then the end of its last day puts it past 45 days and it buckets by month", func() {
			ps := period.Plan(period.Custom, rng)
			So(labels(ps), ShouldResemble, []string{"Mar", "Apr"})
			So(ps[1].To, ShouldEqual, dates.EndOfDay(day(2024, time.April, 15)))
			assertCovers(ps, rng)
		})
	})

	Convey("Given a till-date range of 46 days", t, func() {
		rng := dates.Range{From: day(2024, time.March, 1), To: day(2024, time.April, 16)}

		Convey("Then it should switch to monthly buckets", func() {
			So(labels(period.Plan(period.TillDate, rng)), ShouldResemble, []string{"Mar", "Apr"})
		})

		Convey("And a larger threshold keeps weekly buckets", func() {
			ps := period.Planner{MonthlyThresholdDays: 60}.Plan(period.TillDate, rng)
			So(ps[0].Label, ShouldEqual, "1/3")
		})
	})

	Convey("Given a range that crosses a year boundary", t, func() {
		rng := dates.Range{From: day(2023, time.November, 20), To: day(2024, time.February, 10)}
		ps := period.Plan(period.Custom, rng)

		Convey("Then months should roll over correctly", func() {
			So(labels(ps), ShouldResemble, []string{"Nov", "Dec", "Jan", "Feb"})
			assertCovers(ps, rng)
		})
	})

	Convey("Given a single-day custom range", t, func() {
		rng := dates.Range{From: day(2024, time.March, 1), To: day(2024, time.March, 1)}
		ps := period.Plan(period.Custom, rng)

		Convey("Then it should yield one bucket", func() {
			So(ps, ShouldHaveLength, 1)
			assertCovers(ps, rng)
		})
	})
}

func TestPlanInvalid(t *testing.T) {
	Convey("Given an inverted range", t, func() {
		rng := dates.Range{From: day(2024, time.March, 10), To: day(2024, time.March, 1)}

		Convey("Then no buckets are planned", func() {
			So(period.Plan(period.Month, rng), ShouldBeEmpty)
			So(period.Plan(period.Week, dates.Range{}), ShouldBeEmpty)
		})
	})
}

func TestPlanDeterministic(t *testing.T) {
	Convey("Given the same inputs twice", t, func() {
		rng := dates.Range{From: day(2024, time.January, 1), To: day(2024, time.June, 30)}
		a := period.Plan(period.Custom, rng)
		b := period.Plan(period.Custom, rng)

		Convey("Then the plans should be identical", func() {
			So(cmp.Diff(a, b), ShouldBeEmpty)
		})
	})
}

func TestResolve(t *testing.T) {
	Convey("Given an evaluation instant of 2024-03-20 15:00", t, func() {
		now := time.Date(2024, time.March, 20, 15, 0, 0, 0, time.UTC)

		Convey("When resolving week", func() {
			r, err := period.Resolve(period.Week, now, time.Time{}, time.Time{})
			So(err, ShouldBeNil)
			So(r.From, ShouldEqual, day(2024, time.March, 14))
			So(r.To, ShouldEqual, dates.EndOfDay(now))
		})

		Convey("When resolving month", func() {
			r, err := period.Resolve(period.Month, now, time.Time{}, time.Time{})
			So(err, ShouldBeNil)
			So(r.From, ShouldEqual, day(2024, time.March, 1))
			So(r.To, ShouldEqual, dates.EndOfDay(day(2024, time.March, 31)))
		})

		Convey("When resolving custom", func() {
			r, err := period.Resolve(period.Custom, now, day(2024, time.January, 1), day(2024, time.January, 31))
			So(err, ShouldBeNil)
			So(r.From, ShouldEqual, day(2024, time.January, 1))

			_, err = period.Resolve(period.Custom, now, day(2024, time.January, 1), time.Time{})
			So(errors.Is(err, period.ErrInvalidRange), ShouldBeTrue)

			_, err = period.Resolve(period.Custom, now, day(2024, time.February, 1), day(2024, time.January, 1))
			So(errors.Is(err, period.ErrInvalidRange), ShouldBeTrue)
		})

		Convey("When resolving till date", func() {
			r, err := period.Resolve(period.TillDate, now, day(2023, time.October, 1), time.Time{})
			So(err, ShouldBeNil)
			So(r.From, ShouldEqual, day(2023, time.October, 1))
			So(r.To, ShouldEqual, dates.EndOfDay(now))

			_, err = period.Resolve(period.TillDate, now, time.Time{}, time.Time{})
			So(errors.Is(err, period.ErrInvalidRange), ShouldBeTrue)
		})

		Convey("When resolving an unknown mode", func() {
			_, err := period.Resolve(period.Mode("quarter"), now, time.Time{}, time.Time{})
			So(errors.Is(err, period.ErrUnknownMode), ShouldBeTrue)
		})
	})
}
