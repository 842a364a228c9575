package progression

import (
	"github.com/skif48/speakup-progress/entities"
	"github.com/skif48/speakup-progress/game_config"
)

// ReferralRules turns invite counts into skip phrase rewards.
// Milestones must be sorted by ascending invite count.
type ReferralRules struct {
	PerInvite  int
	Milestones []game_config.Milestone
}

var DefaultReferralRules = ReferralRules{
	PerInvite: 5,
	Milestones: []game_config.Milestone{
		{Invites: 5, Bonus: 10},
		{Invites: 10, Bonus: 25},
		{Invites: 25, Bonus: 100},
	},
}

func NewReferralRules(gc *game_config.GameConfig) ReferralRules {
	return ReferralRules{
		PerInvite:  gc.Referral.SkipPhrasesPerInvite,
		Milestones: gc.Referral.Milestones,
	}
}

func CalculateRewards(totalInvites int) entities.RewardSummary {
	return DefaultReferralRules.CalculateRewards(totalInvites)
}

func (r ReferralRules) CalculateRewards(totalInvites int) entities.RewardSummary {
	summary := entities.RewardSummary{
		SkipPhrases:      totalInvites * r.PerInvite,
		MilestoneRewards: make(map[int]int, len(r.Milestones)),
	}
	for _, m := range r.Milestones {
		summary.MilestoneRewards[m.Invites] = m.Bonus
		if totalInvites >= m.Invites {
			summary.SkipPhrases += m.Bonus
			continue
		}
		if summary.NextMilestone == nil {
			summary.NextMilestone = &entities.NextMilestone{
				Invites:   m.Invites,
				Bonus:     m.Bonus,
				Remaining: m.Invites - totalInvites,
			}
		}
	}
	return summary
}

// InviteReward is what the referrer earns for the invite that takes them to totalInvites.
func (r ReferralRules) InviteReward(totalInvites int) int {
	if totalInvites <= 0 {
		return 0
	}
	return r.CalculateRewards(totalInvites).SkipPhrases - r.CalculateRewards(totalInvites-1).SkipPhrases
}
