package scoring

import (
	"sort"

	"github.com/okian/scorecard/internal/domain/types"
)

// Rank sorts scores by ScorePercentage, highest first. The sort is stable, so
// equal scores keep their input order.
func Rank(scores []UserScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].ScorePercentage > scores[j].ScorePercentage
	})
}

// Standings turns ranked scores into leaderboard entries. Equal scores share
// a rank and the next rank skips accordingly (1, 1, 3).
func Standings(ranked []UserScore) []types.Entry {
	out := make([]types.Entry, 0, len(ranked))
	for i, s := range ranked {
		rank := i + 1
		if i > 0 && s.ScorePercentage == ranked[i-1].ScorePercentage {
			rank = out[i-1].Rank
		}
		out = append(out, types.Entry{
			Rank:      rank,
			Username:  s.User.Username,
			Name:      s.User.Name,
			Score:     s.ScorePercentage,
			OnTime:    s.OnTimePercentage,
			Total:     s.TotalTasks,
			Completed: s.CompletedTasks,
		})
	}
	return out
}
