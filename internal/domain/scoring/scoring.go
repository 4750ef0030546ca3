// Package scoring computes ranked per-user scorecards from raw task
// collections.
//
// The Engine is a pure function of its Input: it keeps no state between
// calls, performs no I/O and never reads the wall clock. It is safe for
// concurrent use.
package scoring

import (
	"time"

	"github.com/okian/scorecard/internal/domain/dates"
	"github.com/okian/scorecard/internal/domain/model"
	"github.com/okian/scorecard/internal/domain/period"
	"github.com/okian/scorecard/internal/domain/task"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithParser sets the date parser used for every raw date cell.
func WithParser(p dates.Parser) Option {
	return func(e *Engine) {
		if p != nil {
			e.parse = p
		}
	}
}

// WithLocation sets the location used by the default parser.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.parse = dates.ParseSheetDate(loc)
		}
	}
}

// WithMonthlyThresholdDays sets the span above which custom and till-date
// trends switch to monthly buckets.
func WithMonthlyThresholdDays(days int) Option {
	return func(e *Engine) {
		if days > 0 {
			e.planner.MonthlyThresholdDays = days
		}
	}
}

// Input is everything one computation needs.
type Input struct {
	Users       []model.User
	Delegations []model.Delegation
	Checklists  []model.ChecklistItem
	Orders      []model.Order
	Steps       []model.StepConfig
	Range       dates.Range
	Mode        period.Mode
}

// InputFromSnapshot builds an Input over s for rng and mode.
func InputFromSnapshot(s model.Snapshot, rng dates.Range, mode period.Mode) Input {
	return Input{
		Users:       s.Users,
		Delegations: s.Delegations,
		Checklists:  s.Checklists,
		Orders:      s.Orders,
		Steps:       s.Steps,
		Range:       rng,
		Mode:        mode,
	}
}

func (in Input) sources() task.Sources {
	return task.Sources{Delegations: in.Delegations, Checklists: in.Checklists, Orders: in.Orders}
}

// TrendPoint is one bucket of a user's trend series.
type TrendPoint struct {
	Label  string `json:"label"`
	Score  int    `json:"score"`
	OnTime int    `json:"on_time"`
}

// UserScore is one user's scorecard.
type UserScore struct {
	User             model.User   `json:"user"`
	TotalTasks       int          `json:"total_tasks"`
	CompletedTasks   int          `json:"completed_tasks"`
	OnTimeTasks      int          `json:"on_time_tasks"`
	ScorePercentage  int          `json:"score_percentage"`
	OnTimePercentage int          `json:"on_time_percentage"`
	PerSource        SourceStats  `json:"per_source"`
	Trend            []TrendPoint `json:"trend"`
}

// Engine computes scorecards.
type Engine struct {
	parse   dates.Parser
	planner period.Planner
}

// NewEngine creates an engine. Dates are parsed in UTC unless an option says
// otherwise.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{parse: dates.ParseSheetDate(time.UTC)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Periods returns the trend buckets for in.Mode over in.Range.
func (e *Engine) Periods(in Input) []period.Period {
	return e.planner.Plan(in.Mode, in.Range)
}

// ComputeScores scores every user in in.Users and returns them ranked by
// score, highest first. Ties keep input order.
func (e *Engine) ComputeScores(in Input) []UserScore {
	n := task.NewNormalizer(e.parse, in.Steps)
	src := in.sources()
	periods := e.Periods(in)

	out := make([]UserScore, 0, len(in.Users))
	for _, u := range in.Users {
		out = append(out, e.score(n, u, src, in.Range, periods))
	}
	Rank(out)
	return out
}

// ComputeUser scores a single user. ok is false when username is not one of
// in.Users.
func (e *Engine) ComputeUser(in Input, username string) (UserScore, bool) {
	u, ok := findUser(in.Users, username)
	if !ok {
		return UserScore{}, false
	}
	n := task.NewNormalizer(e.parse, in.Steps)
	return e.score(n, u, in.sources(), in.Range, e.Periods(in)), true
}

// Audit counts the records in in that cannot be scored, by reason.
func (e *Engine) Audit(in Input) task.SkipCounts {
	return task.NewNormalizer(e.parse, in.Steps).Audit(in.sources())
}

func (e *Engine) score(n *task.Normalizer, u model.User, src task.Sources, rng dates.Range, periods []period.Period) UserScore {
	b := Aggregate(n.All(u.Username, src, rng))
	us := UserScore{
		User:             u,
		TotalTasks:       b.Overall.Total,
		CompletedTasks:   b.Overall.Completed,
		OnTimeTasks:      b.Overall.OnTime,
		ScorePercentage:  b.Overall.ScorePercentage,
		OnTimePercentage: b.Overall.OnTimePercentage,
		PerSource:        b.PerSource,
		Trend:            make([]TrendPoint, 0, len(periods)),
	}
	for _, p := range periods {
		pb := Aggregate(n.All(u.Username, src, p.Range()))
		us.Trend = append(us.Trend, TrendPoint{
			Label:  p.Label,
			Score:  pb.Overall.ScorePercentage,
			OnTime: pb.Overall.OnTimePercentage,
		})
	}
	return us
}

func findUser(users []model.User, username string) (model.User, bool) {
	for _, u := range users {
		if task.SameUser(u.Username, username) {
			return u, true
		}
	}
	return model.User{}, false
}
