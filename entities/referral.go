package entities

type ReferralRewards struct {
	SkipPhrases int `json:"skip_phrases"`
	TotalEarned int `json:"total_earned"`
}

type Referral struct {
	UserId                  string          `json:"user_id"`
	Code                    string          `json:"code"`
	ReferredBy              string          `json:"referred_by,omitempty"`
	TotalInvites            int             `json:"total_invites"`
	Pending                 []string        `json:"pending"`
	SuccessfulInvites       []string        `json:"successful_invites"`
	Rewards                 ReferralRewards `json:"rewards"`
	HasReceivedWelcomeBonus bool            `json:"has_received_welcome_bonus"`
}

type NextMilestone struct {
	Invites   int `json:"invites"`
	Bonus     int `json:"bonus"`
	Remaining int `json:"remaining"`
}

type RewardSummary struct {
	SkipPhrases      int            `json:"skip_phrases"`
	NextMilestone    *NextMilestone `json:"next_milestone"`
	MilestoneRewards map[int]int    `json:"milestone_rewards"`
}

type ReferralStats struct {
	Referral
	Summary RewardSummary `json:"summary"`
}
