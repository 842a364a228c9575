package progression

import (
	"github.com/skif48/speakup-progress/entities"
	"math"
)

const XpPerLevel = 100

// CalculateLevel expects totalXp >= 0.
func CalculateLevel(totalXp int) int {
	return totalXp/XpPerLevel + 1
}

func CalculateXpForNextLevel(totalXp int) int {
	return CalculateLevel(totalXp) * XpPerLevel
}

func CalculateXpProgress(totalXp int) entities.XpProgress {
	current := totalXp - (CalculateLevel(totalXp)-1)*XpPerLevel
	return entities.XpProgress{
		Current:    current,
		Needed:     XpPerLevel,
		Percentage: int(math.Round(float64(current) / XpPerLevel * 100)),
	}
}

func NewUserProgress(xp *entities.UserXp) *entities.UserProgress {
	return &entities.UserProgress{
		UserXp:         *xp,
		CurrentLevel:   CalculateLevel(xp.TotalXp),
		XpForNextLevel: CalculateXpForNextLevel(xp.TotalXp),
		XpProgress:     CalculateXpProgress(xp.TotalXp),
	}
}
