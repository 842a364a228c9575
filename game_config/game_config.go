package game_config

import (
	_ "embed"
	"github.com/goccy/go-json"
	"sort"
)

const (
	BonusPerfectScore = "perfect_score"
	BonusStreak       = "streak"
)

type Milestone struct {
	Invites int `json:"invites"`
	Bonus   int `json:"bonus"`
}

type ReferralConfig struct {
	SkipPhrasesPerInvite int         `json:"skip_phrases_per_invite"`
	WelcomeBonus         int         `json:"welcome_bonus"`
	Milestones           []Milestone `json:"milestones"`
}

type LeaderboardConfig struct {
	Size          int `json:"size"`
	MinPercentage int `json:"min_percentage"`
	MinAttempts   int `json:"min_attempts"`
	MaxNameLength int `json:"max_name_length"`
}

type GameConfig struct {
	ActionsScoreMap   map[string]int    `json:"actions_score_map"`
	PerfectScoreBonus int               `json:"perfect_score_bonus"`
	StreakBonus       int               `json:"streak_bonus"`
	Referral          ReferralConfig    `json:"referral"`
	Leaderboard       LeaderboardConfig `json:"leaderboard"`
}

//go:embed game_config.json
var gameConfigBytes []byte

func NewGameConfig() *GameConfig {
	gameConfig, err := Parse(gameConfigBytes)
	if err != nil {
		panic(err)
	}
	return gameConfig
}

// Parse decodes a game config and orders its milestones by invite count.
func Parse(b []byte) (*GameConfig, error) {
	gameConfig := &GameConfig{}
	if err := json.Unmarshal(b, gameConfig); err != nil {
		return nil, err
	}
	sort.Slice(gameConfig.Referral.Milestones, func(i, j int) bool {
		return gameConfig.Referral.Milestones[i].Invites < gameConfig.Referral.Milestones[j].Invites
	})
	return gameConfig, nil
}
