package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/scorecard/internal/domain/dates"
	"github.com/okian/scorecard/internal/domain/period"
)

func periodsCmd(g *globals) *cobra.Command {
	var filter, from, to, now string
	var threshold int
	cmd := &cobra.Command{
		Use:   "periods",
		Short: "List the trend buckets of a filter",
		Example: `  scorecard periods --filter week
  scorecard periods --filter custom --from 2024-01-01 --to 2024-03-31`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := g.location()
			if err != nil {
				return err
			}
			mode, err := period.ParseMode(filter)
			if err != nil {
				return err
			}
			clock, err := fixedClock(now, loc)
			if err != nil {
				return err
			}
			a, err := optionalDate(loc, "from", from)
			if err != nil {
				return err
			}
			b, err := optionalDate(loc, "to", to)
			if err != nil {
				return err
			}
			rng, err := period.Resolve(mode, clock().In(loc), a, b)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LABEL\tFROM\tTO")
			for _, p := range (period.Planner{MonthlyThresholdDays: threshold}).Plan(mode, rng) {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Label, p.From.Format(time.DateOnly), p.To.Format(time.DateOnly))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "month", "Filter mode: week, month, custom, tillDate")
	cmd.Flags().StringVar(&from, "from", "", "Range start for custom and tillDate")
	cmd.Flags().StringVar(&to, "to", "", "Range end for custom")
	cmd.Flags().StringVar(&now, "now", "", "Evaluate as of this date instead of today")
	cmd.Flags().IntVar(&threshold, "monthly-threshold", period.DefaultMonthlyThresholdDays, "Span in days above which custom ranges bucket by month")
	return cmd
}

// optionalDate parses raw when set; blank yields the zero time.
func optionalDate(loc *time.Location, name, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, ok := dates.ParseDateString(loc)(raw)
	if !ok {
		return time.Time{}, fmt.Errorf("--%s %q is not a date", name, raw)
	}
	return t, nil
}
