package entities

type ActivityEvent struct {
	Id           string `json:"id"`
	UserId       string `json:"user_id"`
	Activity     string `json:"activity"`
	PerfectScore bool   `json:"perfect_score"`
	StreakDays   int    `json:"streak_days"`
	Timestamp    int64  `json:"timestamp"`
}

type ActivityRequest struct {
	Activity     string `json:"activity" validate:"required"`
	PerfectScore bool   `json:"perfect_score"`
	StreakDays   int    `json:"streak_days" validate:"gte=0"`
}

// XpAward is the outcome of applying one activity event.
type XpAward struct {
	UserId    string         `json:"user_id"`
	Gained    int            `json:"gained"`
	Breakdown map[string]int `json:"breakdown"`
	TotalXp   int            `json:"total_xp"`
	Level     int            `json:"level"`
	LeveledUp bool           `json:"leveled_up"`
	Duplicate bool           `json:"duplicate,omitempty"`
}
