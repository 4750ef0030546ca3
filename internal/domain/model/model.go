// Package model contains the raw domain records passed between layers.
//
// All records are read-only snapshots owned by the caller; the scoring
// engine never mutates them.
package model

import (
	"strings"
	"time"
)

// User is a person that can own tasks.
type User struct {
	Username string `json:"username" yaml:"username"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Role     string `json:"role,omitempty" yaml:"role,omitempty"`
}

// Delegation is a one-off task delegated to a user.
type Delegation struct {
	ID           string `json:"id" yaml:"id"`
	AssigneeName string `json:"assignee_name" yaml:"assignee_name"`
	DoerName     string `json:"doer_name,omitempty" yaml:"doer_name,omitempty"`
	Status       string `json:"status" yaml:"status"`
	DueDate      string `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Owner returns the doer when present and the assignee otherwise.
func (d Delegation) Owner() string {
	return owner(d.DoerName, d.AssigneeName)
}

// ChecklistItem is a scheduled or recurring task. It has the same scoring
// shape as a Delegation.
type ChecklistItem struct {
	ID           string `json:"id" yaml:"id"`
	AssigneeName string `json:"assignee_name" yaml:"assignee_name"`
	DoerName     string `json:"doer_name,omitempty" yaml:"doer_name,omitempty"`
	Status       string `json:"status" yaml:"status"`
	DueDate      string `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
	Frequency    string `json:"frequency,omitempty" yaml:"frequency,omitempty"`
}

// Owner returns the doer when present and the assignee otherwise.
func (c ChecklistItem) Owner() string {
	return owner(c.DoerName, c.AssigneeName)
}

// Order is a multi-step fulfilment order with its line items.
type Order struct {
	ID        string      `json:"id" yaml:"id"`
	PartyName string      `json:"party_name" yaml:"party_name"`
	Items     []OrderItem `json:"items" yaml:"items"`
}

// OrderItem is a flat record keyed by column name. Pipeline columns are
// planned_<n> and actual_<n>; key casing is not guaranteed.
type OrderItem map[string]any

// StepConfig maps a pipeline step to the user responsible for it.
type StepConfig struct {
	Step     int    `json:"step" yaml:"step"`
	StepName string `json:"step_name" yaml:"step_name"`
	DoerName string `json:"doer_name" yaml:"doer_name"`
}

// Snapshot is one immutable view of every input collection.
type Snapshot struct {
	Revision    string          `json:"revision,omitempty" yaml:"revision,omitempty"`
	LoadedAt    time.Time       `json:"loaded_at,omitempty" yaml:"loaded_at,omitempty"`
	Users       []User          `json:"users" yaml:"users"`
	Delegations []Delegation    `json:"delegations" yaml:"delegations"`
	Checklists  []ChecklistItem `json:"checklists" yaml:"checklists"`
	Orders      []Order         `json:"orders" yaml:"orders"`
	Steps       []StepConfig    `json:"steps" yaml:"steps"`
}

// Counts returns record counts per collection, keyed by collection name.
func (s Snapshot) Counts() map[string]int {
	items := 0
	for _, o := range s.Orders {
		items += len(o.Items)
	}
	return map[string]int{
		"users":       len(s.Users),
		"delegations": len(s.Delegations),
		"checklists":  len(s.Checklists),
		"orders":      len(s.Orders),
		"order_items": items,
		"steps":       len(s.Steps),
	}
}

func owner(doer, assignee string) string {
	if strings.TrimSpace(doer) != "" {
		return doer
	}
	return assignee
}
