package task

import (
	"sort"
	"strings"

	"github.com/okian/scorecard/internal/domain/dates"
)

// Skip reasons reported by Audit.
const (
	SkipMalformedDate     = "malformed_date"
	SkipNoDates           = "no_dates"
	SkipMissingAssignment = "missing_assignment"
	SkipEmptyItem         = "empty_item"
	SkipUnowned           = "unowned"
)

// SkipCounts tallies records the normalizer will silently leave out, by
// reason. Counting never changes what gets scored.
type SkipCounts map[string]int

// Add merges o into c.
func (c SkipCounts) Add(o SkipCounts) {
	for k, v := range o {
		c[k] += v
	}
}

// Total is the number of skipped records across reasons.
func (c SkipCounts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Reasons returns the reasons present, sorted.
func (c SkipCounts) Reasons() []string {
	out := make([]string, 0, len(c))
	for k := range c {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Audit scans every source once, independent of users and ranges, and counts
// the data-quality problems that make records unscorable.
func (n *Normalizer) Audit(src Sources) SkipCounts {
	c := make(SkipCounts)
	for _, d := range src.Delegations {
		n.auditSimple(c, d.Owner(), d.DueDate, d.UpdatedAt)
	}
	for _, cl := range src.Checklists {
		n.auditSimple(c, cl.Owner(), cl.DueDate, cl.UpdatedAt)
	}
	for _, o := range src.Orders {
		for _, item := range o.Items {
			if len(item) == 0 {
				c[SkipEmptyItem]++
				continue
			}
			idx := IndexKeys(item)
			for _, s := range idx.Steps() {
				if _, ok := n.steps[s]; !ok {
					c[SkipMissingAssignment]++
					continue
				}
				if n.malformed(idx.Planned(s)) || n.malformed(idx.Actual(s)) {
					c[SkipMalformedDate]++
				}
			}
		}
	}
	return c
}

func (n *Normalizer) auditSimple(c SkipCounts, owner, due, updated string) {
	if strings.TrimSpace(owner) == "" {
		c[SkipUnowned]++
		return
	}
	_, hasDue := n.parse(due)
	_, hasUpdated := n.parse(updated)
	switch {
	case n.malformed(due) || n.malformed(updated):
		c[SkipMalformedDate]++
	case !hasDue && !hasUpdated:
		c[SkipNoDates]++
	}
}

// malformed reports a cell that holds something but does not parse.
func (n *Normalizer) malformed(raw string) bool {
	if dates.IsBlank(raw) {
		return false
	}
	_, ok := n.parse(raw)
	return !ok
}
