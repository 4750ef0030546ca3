package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/scorecard/internal/adapters/repository"
	app "github.com/okian/scorecard/internal/app"
	"github.com/okian/scorecard/internal/domain/dates"
	"github.com/okian/scorecard/internal/domain/scoring"
	"github.com/okian/scorecard/pkg/logger"
)

type reportFlags struct {
	snapshot  string
	filter    string
	from      string
	to        string
	limit     int
	now       string
	threshold int
	asJSON    bool
	user      string
}

func reportCmd(g *globals) *cobra.Command {
	f := &reportFlags{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Compute scorecards from a snapshot file",
		Example: `  scorecard report --snapshot snapshot.yaml
  scorecard report --snapshot snapshot.json --filter custom --from 2024-01-01 --to 2024-03-31 --json
  scorecard report --snapshot snapshot.json --user asha`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, g, f)
		},
	}
	cmd.Flags().StringVarP(&f.snapshot, "snapshot", "s", "", "Snapshot file (JSON or YAML)")
	cmd.Flags().StringVar(&f.filter, "filter", "month", "Filter mode: week, month, custom, tillDate")
	cmd.Flags().StringVar(&f.from, "from", "", "Range start for custom and tillDate")
	cmd.Flags().StringVar(&f.to, "to", "", "Range end for custom")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Maximum rows (0 for all)")
	cmd.Flags().StringVar(&f.now, "now", "", "Evaluate as of this date instead of today")
	cmd.Flags().IntVar(&f.threshold, "monthly-threshold", 45, "Span in days above which custom ranges bucket by month")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "Print JSON instead of a table")
	cmd.Flags().StringVar(&f.user, "user", "", "Show one user's tasks instead of the ranking")
	_ = cmd.MarkFlagRequired("snapshot")
	return cmd
}

func runReport(cmd *cobra.Command, g *globals, f *reportFlags) error {
	ctx := cmd.Context()
	loc, err := g.location()
	if err != nil {
		return err
	}
	clock, err := fixedClock(f.now, loc)
	if err != nil {
		return err
	}

	svc := app.New(
		app.WithLogger(logger.Get().Named("report")),
		app.WithSource(repository.NewFileSource(f.snapshot)),
		app.WithEngine(scoring.NewEngine(scoring.WithLocation(loc), scoring.WithMonthlyThresholdDays(f.threshold))),
		app.WithLocation(loc),
		app.WithClock(clock),
		app.WithRefreshInterval(0),
	)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	q := app.Query{Filter: f.filter, From: f.from, To: f.to, Limit: f.limit}
	out := cmd.OutOrStdout()

	if f.user != "" {
		rows, err := svc.UserTasks(ctx, f.user, q)
		if err != nil {
			return err
		}
		if f.asJSON {
			return writeJSON(out, rows)
		}
		return printTasks(out, rows)
	}

	report, err := svc.Scores(ctx, q)
	if err != nil {
		return err
	}
	if f.asJSON {
		return writeJSON(out, report)
	}
	return printReport(out, report)
}

// fixedClock pins the clock to raw when set.
func fixedClock(raw string, loc *time.Location) (func() time.Time, error) {
	if raw == "" {
		return time.Now, nil
	}
	t, ok := dates.ParseDateString(loc)(raw)
	if !ok {
		return nil, fmt.Errorf("--now %q is not a date", raw)
	}
	return func() time.Time { return t }, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printReport(w io.Writer, r app.Report) error {
	fmt.Fprintf(w, "%s %s .. %s (revision %s)\n\n", r.Mode,
		r.From.Format(time.DateOnly), r.To.Format(time.DateOnly), r.Revision)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tUSER\tSCORE\tON TIME\tDONE\tTOTAL\tTREND")
	for i, e := range r.Standings {
		trend := ""
		for _, p := range r.Scores[i].Trend {
			trend += fmt.Sprintf("%s:%d ", p.Label, p.Score)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d%%\t%d%%\t%d\t%d\t%s\n",
			e.Rank, e.Username, e.Score, e.OnTime, e.Completed, e.Total, trend)
	}
	return tw.Flush()
}

func printTasks(w io.Writer, rows []scoring.TaskRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tID\tSTEP\tPLANNED\tACTUAL\tSTATUS\tON TIME")
	for _, r := range rows {
		step := ""
		if r.Step > 0 {
			step = fmt.Sprintf("%d %s", r.Step, r.StepName)
		}
		status := r.Status
		if r.Overdue {
			status += " (overdue)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
			r.Kind, r.SourceID, step, day(r.Planned), day(r.Actual), status, r.OnTime)
	}
	return tw.Flush()
}

func day(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateOnly)
}
