package scoring

import (
	"time"

	"github.com/okian/scorecard/internal/domain/dates"
	"github.com/okian/scorecard/internal/domain/task"
)

// TaskRow is one normalized task as shown in a user's detail view.
type TaskRow struct {
	task.Task
	// RemainingSeconds is the time left until the end of the planned day,
	// negative when overdue. Only set for open tasks with a deadline.
	RemainingSeconds *int64 `json:"remaining_seconds,omitempty"`
	Overdue          bool   `json:"overdue"`
}

// UserTasks returns the tasks behind username's scorecard over in.Range.
// now is only used for the remaining-time column. ok is false when username
// is not one of in.Users.
func (e *Engine) UserTasks(in Input, username string, now time.Time) ([]TaskRow, bool) {
	u, ok := findUser(in.Users, username)
	if !ok {
		return nil, false
	}
	n := task.NewNormalizer(e.parse, in.Steps)
	tasks := n.All(u.Username, in.sources(), in.Range).Flatten()

	rows := make([]TaskRow, 0, len(tasks))
	for _, t := range tasks {
		row := TaskRow{Task: t}
		if !t.Completed {
			if left, ok := dates.Remaining(t.Planned, now); ok {
				secs := int64(left / time.Second)
				row.RemainingSeconds = &secs
				row.Overdue = left < 0
			}
		}
		rows = append(rows, row)
	}
	return rows, true
}
