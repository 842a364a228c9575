package progression

import (
	"github.com/skif48/speakup-progress/entities"
	"math"
	"sort"
)

// RecordRules decide which quiz runs may enter a leaderboard.
type RecordRules struct {
	Size          int
	MinPercentage int
	MinAttempts   int
	MaxNameLength int
}

var DefaultRecordRules = RecordRules{
	Size:          10,
	MinPercentage: 80,
	MinAttempts:   10,
	MaxNameLength: 30,
}

func ScorePercentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

func (r RecordRules) Qualifies(score entities.AttemptScore) bool {
	return score.Total >= r.MinAttempts && ScorePercentage(score.Correct, score.Total) >= r.MinPercentage
}

// CheckIfNewRecord reports whether score would enter a board whose entries are sorted by score descending.
func (r RecordRules) CheckIfNewRecord(score entities.AttemptScore, board []*entities.LeaderboardRecord) bool {
	if score.Total < r.MinAttempts {
		return false
	}
	if len(board) < r.Size {
		return true
	}
	lowest := board[len(board)-1].Score
	if len(board) > r.Size {
		lowest = board[r.Size-1].Score
	}
	return ScorePercentage(score.Correct, score.Total) > lowest
}

func CheckIfNewRecord(score entities.AttemptScore, board []*entities.LeaderboardRecord) bool {
	return DefaultRecordRules.CheckIfNewRecord(score, board)
}

func (r RecordRules) TruncateName(name string) string {
	runes := []rune(name)
	if len(runes) > r.MaxNameLength {
		return string(runes[:r.MaxNameLength])
	}
	return name
}

// SortByScore orders records by score descending, earlier submissions first on ties.
func SortByScore(records []*entities.LeaderboardRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Score != records[j].Score {
			return records[i].Score > records[j].Score
		}
		return records[i].Timestamp < records[j].Timestamp
	})
}

// SortLevelRanking orders by level, then XP, then progress within the level, all descending.
func SortLevelRanking(entries []*entities.LevelRankingEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Level != b.Level {
			return a.Level > b.Level
		}
		if a.TotalXp != b.TotalXp {
			return a.TotalXp > b.TotalXp
		}
		return a.Progress > b.Progress
	})
	for i, e := range entries {
		e.Position = i + 1
	}
}
