package repository

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/scorecard/internal/domain/model"
)

// unreadable replaces cells holding an object or a list. No date parser
// accepts it, so such a date is reported as malformed instead of absent.
const unreadable = "#unreadable"

// cell is a sheet value read as text. Numbers and booleans keep their
// literal form and null reads as empty.
type cell string

func (c *cell) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch v := v.(type) {
	case nil:
		*c = ""
	case string:
		*c = cell(v)
	case json.Number:
		*c = cell(v.String())
	case bool:
		*c = cell(strconv.FormatBool(v))
	default:
		*c = unreadable
	}
	return nil
}

func (c *cell) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	switch {
	case n.Kind != yaml.ScalarNode:
		*c = unreadable
	case n.ShortTag() == "!!null":
		*c = ""
	default:
		*c = cell(n.Value)
	}
	return nil
}

func (c cell) String() string { return string(c) }

// item is an order item. Anything but an object decodes to a nil item,
// which the normalizer skips and the audit counts as empty.
type item struct {
	model.OrderItem
}

func (i *item) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		m = nil
	}
	i.OrderItem = m
	return nil
}

func (i *item) UnmarshalYAML(n *yaml.Node) error {
	i.OrderItem = nil
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind != yaml.MappingNode {
		return nil
	}
	var m map[string]any
	if err := n.Decode(&m); err == nil {
		i.OrderItem = m
	}
	return nil
}

// decodeItem reads one jsonb order item.
func decodeItem(raw []byte) model.OrderItem {
	var it item
	if err := json.Unmarshal(raw, &it); err != nil {
		return nil
	}
	return it.OrderItem
}

// wireSnapshot is the on-disk snapshot shape, read leniently: one bad row
// must not fail the whole load.
type wireSnapshot struct {
	Revision    cell       `json:"revision" yaml:"revision"`
	LoadedAt    time.Time  `json:"loaded_at" yaml:"loaded_at"`
	Users       []wireUser `json:"users" yaml:"users"`
	Delegations []wireTask `json:"delegations" yaml:"delegations"`
	Checklists  []wireTask `json:"checklists" yaml:"checklists"`
	Orders      []wireOrd  `json:"orders" yaml:"orders"`
	Steps       []wireStep `json:"steps" yaml:"steps"`
}

type wireUser struct {
	Username cell `json:"username" yaml:"username"`
	Name     cell `json:"name" yaml:"name"`
	Role     cell `json:"role" yaml:"role"`
}

// wireTask covers both delegations and checklist items.
type wireTask struct {
	ID           cell `json:"id" yaml:"id"`
	AssigneeName cell `json:"assignee_name" yaml:"assignee_name"`
	DoerName     cell `json:"doer_name" yaml:"doer_name"`
	Status       cell `json:"status" yaml:"status"`
	DueDate      cell `json:"due_date" yaml:"due_date"`
	UpdatedAt    cell `json:"updated_at" yaml:"updated_at"`
	Description  cell `json:"description" yaml:"description"`
	Frequency    cell `json:"frequency" yaml:"frequency"`
}

type wireOrd struct {
	ID        cell   `json:"id" yaml:"id"`
	PartyName cell   `json:"party_name" yaml:"party_name"`
	Items     []item `json:"items" yaml:"items"`
}

// wireStep keeps the step number as text so "2" reads like 2. An unusable
// number becomes 0, which no pipeline column refers to.
type wireStep struct {
	Step     cell `json:"step" yaml:"step"`
	StepName cell `json:"step_name" yaml:"step_name"`
	DoerName cell `json:"doer_name" yaml:"doer_name"`
}

func (w wireSnapshot) snapshot() model.Snapshot {
	snap := model.Snapshot{
		Revision: w.Revision.String(),
		LoadedAt: w.LoadedAt,
	}
	for _, u := range w.Users {
		snap.Users = append(snap.Users, model.User{Username: u.Username.String(), Name: u.Name.String(), Role: u.Role.String()})
	}
	for _, d := range w.Delegations {
		snap.Delegations = append(snap.Delegations, model.Delegation{
			ID:           d.ID.String(),
			AssigneeName: d.AssigneeName.String(),
			DoerName:     d.DoerName.String(),
			Status:       d.Status.String(),
			DueDate:      d.DueDate.String(),
			UpdatedAt:    d.UpdatedAt.String(),
			Description:  d.Description.String(),
		})
	}
	for _, c := range w.Checklists {
		snap.Checklists = append(snap.Checklists, model.ChecklistItem{
			ID:           c.ID.String(),
			AssigneeName: c.AssigneeName.String(),
			DoerName:     c.DoerName.String(),
			Status:       c.Status.String(),
			DueDate:      c.DueDate.String(),
			UpdatedAt:    c.UpdatedAt.String(),
			Description:  c.Description.String(),
			Frequency:    c.Frequency.String(),
		})
	}
	for _, o := range w.Orders {
		order := model.Order{ID: o.ID.String(), PartyName: o.PartyName.String()}
		for _, it := range o.Items {
			order.Items = append(order.Items, it.OrderItem)
		}
		snap.Orders = append(snap.Orders, order)
	}
	for _, s := range w.Steps {
		n, err := strconv.Atoi(strings.TrimSpace(s.Step.String()))
		if err != nil {
			n = 0
		}
		snap.Steps = append(snap.Steps, model.StepConfig{Step: n, StepName: s.StepName.String(), DoerName: s.DoerName.String()})
	}
	return snap
}
