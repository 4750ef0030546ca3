// Package fixtures builds deterministic synthetic snapshots for demos, load
// checks and tests.
package fixtures

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/scorecard/internal/domain/model"
	"github.com/okian/scorecard/pkg/logger"
)

// Default generator sizes.
const (
	DefaultUsers         = 12
	DefaultDays          = 60
	DefaultDelegations   = 8
	DefaultChecklists    = 10
	DefaultOrders        = 40
	DefaultItemsPerOrder = 3
	DefaultSteps         = 4
)

// Config sizes a generated snapshot. Zero values take the defaults above.
type Config struct {
	Seed          uint64
	End           time.Time // last day covered; defaults to today
	Days          int       // span of generated dates ending at End
	Users         int
	Delegations   int // per user
	Checklists    int // per user
	Orders        int
	ItemsPerOrder int
	Steps         int
	Location      *time.Location
}

// profile is a performer type: how often tasks get done and how often done
// tasks are late.
type profile struct {
	role string
	done float64
	late float64
}

var profiles = []profile{
	{role: "elite", done: 0.95, late: 0.05},
	{role: "high", done: 0.85, late: 0.15},
	{role: "average", done: 0.70, late: 0.30},
	{role: "average", done: 0.65, late: 0.35},
	{role: "low", done: 0.45, late: 0.50},
}

var (
	firstNames = []string{"Asha", "Ravi", "Mei", "Omar", "Lena", "Kofi", "Ines", "Tariq", "Yuki", "Nora", "Diego", "Priya"}
	parties    = []string{"Acme Traders", "Blue Fern", "Northwind", "Sunrise Foods", "Kestrel Works", "Orchid Textiles"}
	stepNames  = []string{"Order Entry", "Procurement", "Production", "Quality Check", "Dispatch", "Invoicing"}
	frequency  = []string{"daily", "weekly", "monthly"}
)

// Generate builds a snapshot. The same Config always yields the same
// snapshot.
func Generate(ctx context.Context, cfg Config) (model.Snapshot, error) {
	cfg = cfg.withDefaults()
	log := logger.Get().Named("fixtures")
	log.Debug(ctx, "generating snapshot",
		logger.Int("users", cfg.Users),
		logger.Int("days", cfg.Days),
		logger.Int("orders", cfg.Orders),
	)

	g := &generator{
		cfg:   cfg,
		rng:   rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		ns:    uuid.NewSHA1(uuid.NameSpaceOID, []byte("scorecard-fixtures/"+strconv.FormatUint(cfg.Seed, 10))),
		start: cfg.End.AddDate(0, 0, -(cfg.Days - 1)),
	}

	snap := model.Snapshot{Revision: g.id("revision", 0).String()}
	snap.Users = g.users()
	for i, u := range snap.Users {
		if err := ctx.Err(); err != nil {
			return model.Snapshot{}, fmt.Errorf("generate snapshot: %w", err)
		}
		p := profiles[i%len(profiles)]
		snap.Delegations = append(snap.Delegations, g.delegations(u, p)...)
		snap.Checklists = append(snap.Checklists, g.checklists(u, p)...)
	}
	snap.Steps = g.steps(snap.Users)
	snap.Orders = g.orders(snap.Steps)

	log.Info(ctx, "snapshot generated",
		logger.String("revision", snap.Revision),
		logger.Int("delegations", len(snap.Delegations)),
		logger.Int("checklists", len(snap.Checklists)),
		logger.Int("orders", len(snap.Orders)),
	)
	return snap, nil
}

func (c Config) withDefaults() Config {
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.End.IsZero() {
		c.End = time.Now()
	}
	y, m, d := c.End.In(c.Location).Date()
	c.End = time.Date(y, m, d, 0, 0, 0, 0, c.Location)
	def := func(v *int, n int) {
		if *v <= 0 {
			*v = n
		}
	}
	def(&c.Days, DefaultDays)
	def(&c.Users, DefaultUsers)
	def(&c.Delegations, DefaultDelegations)
	def(&c.Checklists, DefaultChecklists)
	def(&c.Orders, DefaultOrders)
	def(&c.ItemsPerOrder, DefaultItemsPerOrder)
	def(&c.Steps, DefaultSteps)
	if c.Steps > len(stepNames) {
		c.Steps = len(stepNames)
	}
	return c
}

type generator struct {
	cfg   Config
	rng   *rand.Rand
	ns    uuid.UUID
	start time.Time
}

// id derives a stable uuid for the n-th record of kind.
func (g *generator) id(kind string, n int) uuid.UUID {
	return uuid.NewSHA1(g.ns, []byte(kind+"/"+strconv.Itoa(n)))
}

func (g *generator) users() []model.User {
	out := make([]model.User, g.cfg.Users)
	for i := range out {
		name := firstNames[i%len(firstNames)]
		if i >= len(firstNames) {
			name += " " + strconv.Itoa(i/len(firstNames)+1)
		}
		out[i] = model.User{
			Username: fmt.Sprintf("user%02d", i+1),
			Name:     name,
			Role:     profiles[i%len(profiles)].role,
		}
	}
	return out
}

func (g *generator) delegations(u model.User, p profile) []model.Delegation {
	out := make([]model.Delegation, 0, g.cfg.Delegations)
	for i := 0; i < g.cfg.Delegations; i++ {
		due, status, updated := g.outcome(p)
		d := model.Delegation{
			ID:           g.id("delegation/"+u.Username, i).String(),
			AssigneeName: u.Username,
			Status:       status,
			DueDate:      g.format(due),
			UpdatedAt:    g.format(updated),
			Description:  fmt.Sprintf("Follow up #%d", i+1),
		}
		// Doer cells are sometimes typed with different casing.
		if g.rng.IntN(5) == 0 {
			d.DoerName = strings.ToUpper(u.Username)
		}
		out = append(out, d)
	}
	return out
}

func (g *generator) checklists(u model.User, p profile) []model.ChecklistItem {
	out := make([]model.ChecklistItem, 0, g.cfg.Checklists)
	for i := 0; i < g.cfg.Checklists; i++ {
		due, status, updated := g.outcome(p)
		out = append(out, model.ChecklistItem{
			ID:           g.id("checklist/"+u.Username, i).String(),
			AssigneeName: u.Username,
			Status:       status,
			DueDate:      g.format(due),
			UpdatedAt:    g.format(updated),
			Description:  fmt.Sprintf("Routine check #%d", i+1),
			Frequency:    frequency[i%len(frequency)],
		})
	}
	return out
}

// outcome picks a due date and, following p, whether and when the task got
// done. Open tasks have no completion time.
func (g *generator) outcome(p profile) (due time.Time, status string, updated time.Time) {
	due = g.day().Add(time.Duration(9+g.rng.IntN(9)) * time.Hour)
	if g.rng.Float64() >= p.done {
		return due, "pending", time.Time{}
	}
	return due, "completed", g.finish(due, p)
}

// finish returns a completion time for a task due at due.
func (g *generator) finish(due time.Time, p profile) time.Time {
	if g.rng.Float64() < p.late {
		return due.AddDate(0, 0, 1+g.rng.IntN(5))
	}
	return due.Add(-time.Duration(g.rng.IntN(72)) * time.Hour)
}

func (g *generator) steps(users []model.User) []model.StepConfig {
	out := make([]model.StepConfig, g.cfg.Steps)
	for i := range out {
		out[i] = model.StepConfig{
			Step:     i + 1,
			StepName: stepNames[i],
			DoerName: users[i%len(users)].Username,
		}
	}
	return out
}

func (g *generator) orders(steps []model.StepConfig) []model.Order {
	out := make([]model.Order, g.cfg.Orders)
	for i := range out {
		o := model.Order{
			ID:        fmt.Sprintf("SO-%04d", i+1),
			PartyName: parties[g.rng.IntN(len(parties))],
		}
		for j := 0; j < g.cfg.ItemsPerOrder; j++ {
			o.Items = append(o.Items, g.item(i, j, steps))
		}
		out[i] = o
	}
	return out
}

// item walks the pipeline: each step is planned a day or two after the
// previous one finished and the walk stops at the first unfinished step.
func (g *generator) item(order, pos int, steps []model.StepConfig) model.OrderItem {
	item := model.OrderItem{
		"item_id": g.id(fmt.Sprintf("item/%d", order), pos).String(),
		"qty":     1 + g.rng.IntN(20),
	}
	p := profiles[g.rng.IntN(len(profiles))]
	at := g.day()
	for _, s := range steps {
		planned := at.AddDate(0, 0, 1+g.rng.IntN(2))
		if planned.After(g.cfg.End) {
			break
		}
		// Sheet headers are not consistently cased.
		key := "planned_" + strconv.Itoa(s.Step)
		if g.rng.IntN(4) == 0 {
			key = "Planned_" + strconv.Itoa(s.Step)
		}
		item[key] = g.format(planned)
		if g.rng.Float64() >= p.done {
			break
		}
		actual := g.finish(planned, p)
		item["actual_"+strconv.Itoa(s.Step)] = g.format(actual)
		at = actual
	}
	return item
}

func (g *generator) day() time.Time {
	return g.start.AddDate(0, 0, g.rng.IntN(g.cfg.Days))
}

// format renders t in one of the shapes spreadsheets export.
func (g *generator) format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	switch g.rng.IntN(3) {
	case 0:
		return t.Format(time.DateOnly)
	case 1:
		return t.Format(time.DateTime)
	default:
		return fmt.Sprintf("Date(%d,%d,%d,%d,%d,%d)", t.Year(), int(t.Month())-1, t.Day(), t.Hour(), t.Minute(), t.Second())
	}
}
