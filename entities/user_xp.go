package entities

// UserXp is the stored XP record. Level and progress are derived from TotalXp on read.
type UserXp struct {
	UserId      string         `json:"user_id"`
	TotalXp     int            `json:"total_xp"`
	XpBreakdown map[string]int `json:"xp_breakdown"`
	XpToday     int            `json:"xp_today"`
	LastUpdated int64          `json:"last_updated"`
}

type XpProgress struct {
	Current    int `json:"current"`
	Needed     int `json:"needed"`
	Percentage int `json:"percentage"`
}

type UserProgress struct {
	UserXp
	CurrentLevel   int        `json:"current_level"`
	XpForNextLevel int        `json:"xp_for_next_level"`
	XpProgress     XpProgress `json:"xp_progress"`
}

type LevelRankingEntry struct {
	UserId   string `json:"user_id"`
	Nickname string `json:"nickname"`
	TotalXp  int    `json:"total_xp"`
	Level    int    `json:"level"`
	Progress int    `json:"progress"`
	Position int    `json:"position"`
}
