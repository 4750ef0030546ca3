package scoring

import (
	"math"

	"github.com/okian/scorecard/internal/domain/task"
)

// Stats are the counts and percentages for one slice of tasks.
type Stats struct {
	Total            int `json:"total"`
	Completed        int `json:"completed"`
	OnTime           int `json:"on_time"`
	ScorePercentage  int `json:"score_percentage"`
	OnTimePercentage int `json:"on_time_percentage"`
}

// SourceStats splits Stats by task source.
type SourceStats struct {
	Delegation Stats `json:"delegation"`
	Checklist  Stats `json:"checklist"`
	Pipeline   Stats `json:"pipeline"`
}

// Breakdown is the result of aggregating one user's tasks.
type Breakdown struct {
	Overall   Stats
	PerSource SourceStats
}

// Percent returns round(num/den*100), or 0 when den is 0.
func Percent(num, den int) int {
	if den <= 0 {
		return 0
	}
	return int(math.Round(float64(num) / float64(den) * 100))
}

// Count folds tasks into Stats. A task is on time only when it is also
// completed.
func Count(tasks []task.Task) Stats {
	var s Stats
	for _, t := range tasks {
		s.Total++
		if !t.Completed {
			continue
		}
		s.Completed++
		if t.OnTime {
			s.OnTime++
		}
	}
	return s.withPercentages()
}

// Aggregate computes per-source and overall stats for a partition.
func Aggregate(p task.Partition) Breakdown {
	b := Breakdown{PerSource: SourceStats{
		Delegation: Count(p.Delegations),
		Checklist:  Count(p.Checklists),
		Pipeline:   Count(p.Pipeline),
	}}
	for _, s := range []Stats{b.PerSource.Delegation, b.PerSource.Checklist, b.PerSource.Pipeline} {
		b.Overall.Total += s.Total
		b.Overall.Completed += s.Completed
		b.Overall.OnTime += s.OnTime
	}
	b.Overall = b.Overall.withPercentages()
	return b
}

func (s Stats) withPercentages() Stats {
	s.ScorePercentage = Percent(s.Completed, s.Total)
	s.OnTimePercentage = Percent(s.OnTime, s.Completed)
	return s
}
