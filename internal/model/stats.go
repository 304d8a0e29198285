package model

import "math"

// Stats holds the per-annotator counts returned by /stats
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Corrected int `json:"corrected"`
	Approved  int `json:"approved"`
	Discarded int `json:"discarded"`
}

// Completed returns the number of tasks with an annotator decision
func (s Stats) Completed() int {
	return s.Corrected + s.Approved + s.Discarded
}

// ProgressPercent returns completed/total rounded to a whole percent
func (s Stats) ProgressPercent() int {
	if s.Total <= 0 {
		return 0
	}
	return int(math.Round(float64(s.Completed()) / float64(s.Total) * 100))
}

// NavState describes where the cursor sits within history
type NavState struct {
	HistoryIndex  int
	HistoryLength int
	CanGoPrev     bool
	CanGoNext     bool
}

// InHistory reports whether a history entry is displayed
func (n NavState) InHistory() bool {
	return n.HistoryIndex >= 0
}

// User is the authenticated account
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

const (
	RoleAnnotator = "annotator"
	RoleAdmin     = "admin"
)
