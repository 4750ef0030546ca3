package task

import (
	"sort"
	"strconv"
	"time"

	"github.com/okian/scorecard/internal/domain/dates"
	"github.com/okian/scorecard/internal/domain/model"
)

// Sources bundles the raw collections a Normalizer reads.
type Sources struct {
	Delegations []model.Delegation
	Checklists  []model.ChecklistItem
	Orders      []model.Order
}

// Normalizer converts raw records into Tasks for one user and one range.
// It is immutable after construction and safe for concurrent use.
type Normalizer struct {
	parse dates.Parser
	steps map[int]model.StepConfig
	order []int // configured step numbers, ascending
}

// NewNormalizer indexes the step configuration. Non-positive step numbers
// are ignored; when a step is configured twice the first entry wins.
func NewNormalizer(parse dates.Parser, steps []model.StepConfig) *Normalizer {
	if parse == nil {
		parse = dates.ParseSheetDate(time.UTC)
	}
	n := &Normalizer{parse: parse, steps: make(map[int]model.StepConfig, len(steps))}
	for _, s := range steps {
		if s.Step <= 0 {
			continue
		}
		if _, dup := n.steps[s.Step]; dup {
			continue
		}
		n.steps[s.Step] = s
		n.order = append(n.order, s.Step)
	}
	sort.Ints(n.order)
	return n
}

// Parse exposes the configured date parser.
func (n *Normalizer) Parse(raw string) (time.Time, bool) {
	return n.parse(raw)
}

// All normalizes every source for user within rng.
func (n *Normalizer) All(user string, src Sources, rng dates.Range) Partition {
	return Partition{
		Delegations: n.Delegations(user, src.Delegations, rng),
		Checklists:  n.Checklists(user, src.Checklists, rng),
		Pipeline:    n.PipelineSteps(user, src.Orders, rng),
	}
}

// Delegations returns the user's delegations that fall within rng.
func (n *Normalizer) Delegations(user string, ds []model.Delegation, rng dates.Range) []Task {
	var out []Task
	for _, d := range ds {
		if !SameUser(d.Owner(), user) {
			continue
		}
		if t, ok := n.simple(Delegation, d.ID, d.Owner(), d.Description, d.Status, d.DueDate, d.UpdatedAt, rng); ok {
			out = append(out, t)
		}
	}
	return out
}

// Checklists returns the user's checklist items that fall within rng.
func (n *Normalizer) Checklists(user string, cs []model.ChecklistItem, rng dates.Range) []Task {
	var out []Task
	for _, c := range cs {
		if !SameUser(c.Owner(), user) {
			continue
		}
		if t, ok := n.simple(Checklist, c.ID, c.Owner(), c.Description, c.Status, c.DueDate, c.UpdatedAt, rng); ok {
			out = append(out, t)
		}
	}
	return out
}

func (n *Normalizer) simple(kind Kind, id, owner, title, status, due, updated string, rng dates.Range) (Task, bool) {
	planned, _ := n.parse(due)
	actual, _ := n.parse(updated)
	if !dates.InRange(planned, actual, rng) {
		return Task{}, false
	}
	done := isCompleted(status)
	return Task{
		Kind:      kind,
		Owner:     owner,
		SourceID:  id,
		Title:     title,
		Planned:   planned,
		Actual:    actual,
		Completed: done,
		OnTime:    done && dates.IsOnTime(planned, actual),
		Status:    status,
	}, true
}

// PipelineSteps expands every order item into one Task per configured step
// the user is responsible for. Step instances without any parsable date,
// steps without configuration, and empty items are skipped.
func (n *Normalizer) PipelineSteps(user string, orders []model.Order, rng dates.Range) []Task {
	mine := n.stepsFor(user)
	if len(mine) == 0 {
		return nil
	}

	var out []Task
	for _, o := range orders {
		for i, item := range o.Items {
			if len(item) == 0 {
				continue
			}
			idx := IndexKeys(item)
			for _, cfg := range mine {
				t, ok := n.step(idx, cfg, rng)
				if !ok {
					continue
				}
				t.Owner = cfg.DoerName
				t.SourceID = itemID(o.ID, idx, i)
				t.Title = o.PartyName
				out = append(out, t)
			}
		}
	}
	return out
}

func (n *Normalizer) step(idx KeyIndex, cfg model.StepConfig, rng dates.Range) (Task, bool) {
	planned, hasPlanned := n.parse(idx.Planned(cfg.Step))
	actual, hasActual := n.parse(idx.Actual(cfg.Step))
	if !hasPlanned && !hasActual {
		return Task{}, false
	}
	if !dates.InRange(planned, actual, rng) {
		return Task{}, false
	}

	t := Task{
		Kind:     PipelineStep,
		Step:     cfg.Step,
		StepName: cfg.StepName,
		Planned:  planned,
		Actual:   actual,
	}
	switch {
	case !hasActual:
		t.Status = StatusPending
	case !hasPlanned:
		// Nothing to be late against.
		t.Status = StatusOnTime
	case dates.IsOnTime(planned, actual):
		t.Status = StatusOnTime
	default:
		t.Status = StatusDelayed
	}
	t.Completed = hasActual
	t.OnTime = t.Status == StatusOnTime
	return t, true
}

// stepsFor returns the configured steps owned by user, ascending.
func (n *Normalizer) stepsFor(user string) []model.StepConfig {
	var out []model.StepConfig
	for _, s := range n.order {
		cfg := n.steps[s]
		if SameUser(cfg.DoerName, user) {
			out = append(out, cfg)
		}
	}
	return out
}

func itemID(orderID string, idx KeyIndex, pos int) string {
	for _, k := range []string{"id", "item_id", "sku"} {
		if v := idx.String(k); v != "" {
			return orderID + "/" + v
		}
	}
	return orderID + "#" + strconv.Itoa(pos+1)
}
