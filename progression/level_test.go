package progression

import (
	"github.com/skif48/speakup-progress/entities"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestCalculateLevel_Boundaries(t *testing.T) {
	assert.Equal(t, 1, CalculateLevel(0))
	assert.Equal(t, 1, CalculateLevel(99))
	assert.Equal(t, 2, CalculateLevel(100))
	assert.Equal(t, 11, CalculateLevel(1050))
}

func TestCalculateXpForNextLevel_IsLevelTimesHundred(t *testing.T) {
	for xp := 0; xp <= 2500; xp += 7 {
		assert.Equal(t, CalculateLevel(xp)*100, CalculateXpForNextLevel(xp), "xp=%d", xp)
	}
}

func TestCalculateXpProgress_CurrentStaysBelowNeeded(t *testing.T) {
	for xp := 0; xp <= 2500; xp++ {
		p := CalculateXpProgress(xp)
		assert.Less(t, p.Current, 100, "xp=%d", xp)
		assert.GreaterOrEqual(t, p.Current, 0, "xp=%d", xp)
		assert.Equal(t, 100, p.Needed)
	}
}

func TestCalculateXpProgress_Values(t *testing.T) {
	assert.Equal(t, entities.XpProgress{Current: 0, Needed: 100, Percentage: 0}, CalculateXpProgress(0))
	assert.Equal(t, entities.XpProgress{Current: 45, Needed: 100, Percentage: 45}, CalculateXpProgress(345))
	assert.Equal(t, entities.XpProgress{Current: 99, Needed: 100, Percentage: 99}, CalculateXpProgress(199))
}

func TestNewUserProgress_DerivesFromTotal(t *testing.T) {
	p := NewUserProgress(&entities.UserXp{UserId: "u1", TotalXp: 230})
	assert.Equal(t, "u1", p.UserId)
	assert.Equal(t, 3, p.CurrentLevel)
	assert.Equal(t, 300, p.XpForNextLevel)
	assert.Equal(t, 30, p.XpProgress.Current)
}
