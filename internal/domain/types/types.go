// Package types contains common types used across the application
package types

// Entry represents a leaderboard entry
type Entry struct {
	Rank      int    `json:"rank"`
	Username  string `json:"username"`
	Name      string `json:"name,omitempty"`
	Score     int    `json:"score"`
	OnTime    int    `json:"on_time"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
}
