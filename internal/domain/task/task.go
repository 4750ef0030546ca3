// Package task folds the three raw task sources into one Task shape bound
// to a user.
package task

import (
	"strings"
	"time"
)

// Kind discriminates where a Task came from.
type Kind int

// Task kinds.
const (
	Delegation Kind = iota
	Checklist
	PipelineStep
)

// Kinds lists every kind in reporting order.
var Kinds = []Kind{Delegation, Checklist, PipelineStep}

func (k Kind) String() string {
	switch k {
	case Delegation:
		return "delegation"
	case Checklist:
		return "checklist"
	case PipelineStep:
		return "pipeline"
	}
	return "unknown"
}

// MarshalText renders the kind name in JSON.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Pipeline step statuses.
const (
	StatusPending = "Pending"
	StatusOnTime  = "On Time"
	StatusDelayed = "Delayed"
)

const statusCompleted = "completed"

// Task is the normalized unit every score is computed from. Planned and
// Actual are zero when absent.
type Task struct {
	Kind      Kind      `json:"kind"`
	Owner     string    `json:"owner"`
	SourceID  string    `json:"source_id"`
	Title     string    `json:"title,omitempty"`
	Step      int       `json:"step,omitempty"`
	StepName  string    `json:"step_name,omitempty"`
	Planned   time.Time `json:"planned,omitempty"`
	Actual    time.Time `json:"actual,omitempty"`
	Completed bool      `json:"completed"`
	OnTime    bool      `json:"on_time"`
	Status    string    `json:"status"`
}

// Partition holds one user's tasks split by source.
type Partition struct {
	Delegations []Task
	Checklists  []Task
	Pipeline    []Task
}

// Of returns the tasks of one kind.
func (p Partition) Of(k Kind) []Task {
	switch k {
	case Delegation:
		return p.Delegations
	case Checklist:
		return p.Checklists
	case PipelineStep:
		return p.Pipeline
	}
	return nil
}

// Len is the total number of tasks.
func (p Partition) Len() int {
	return len(p.Delegations) + len(p.Checklists) + len(p.Pipeline)
}

// Flatten returns every task, delegations first.
func (p Partition) Flatten() []Task {
	out := make([]Task, 0, p.Len())
	out = append(out, p.Delegations...)
	out = append(out, p.Checklists...)
	return append(out, p.Pipeline...)
}

// SameUser compares user names ignoring case and surrounding space. Blank
// names never match.
func SameUser(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

// isCompleted reports whether a raw status means done.
func isCompleted(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), statusCompleted)
}
