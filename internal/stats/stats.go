package stats

// TodayProgress is the UI-facing readout for the in-progress day.
type TodayProgress struct {
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// StreakInfo wraps the current streak for the API surface.
type StreakInfo struct {
	CurrentStreak int `json:"current_streak"`
	MinForStreak  int `json:"min_for_streak"`
}
