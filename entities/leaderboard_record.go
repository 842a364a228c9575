package entities

const (
	BoardPractice  = "practice"
	BoardChallenge = "challenge"
)

type LeaderboardRecord struct {
	Board     string `json:"board" db:"board"`
	Language  string `json:"language" db:"language"`
	Id        string `json:"id" db:"id"`
	UserId    string `json:"user_id" db:"user_id"`
	Name      string `json:"name" db:"name"`
	Score     int    `json:"score" db:"score"`
	Correct   int    `json:"correct" db:"correct"`
	Total     int    `json:"total" db:"total"`
	Timestamp int64  `json:"timestamp" db:"created_at"`
}

// AttemptScore is a finished quiz run that may or may not be worth saving.
type AttemptScore struct {
	Correct int `json:"correct" validate:"gte=0,ltefield=Total"`
	Total   int `json:"total" validate:"gte=0"`
}

type CheckRecordRequest struct {
	AttemptScore
	Language string `json:"language" validate:"required"`
}

type SaveRecordRequest struct {
	AttemptScore
	UserId   string `json:"user_id"`
	Name     string `json:"name" validate:"required"`
	Language string `json:"language" validate:"required"`
}
