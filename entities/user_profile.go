package entities

type UserProfile struct {
	Id           string `json:"id" db:"id"`
	Nickname     string `json:"nickname" db:"nickname"`
	ReferralCode string `json:"referral_code" db:"referral_code"`
	CreatedAt    int64  `json:"createdAt" db:"created_at"`
}

type SignUpRequest struct {
	Nickname string `json:"nickname" validate:"required,max=64"`
	Ref      string `json:"ref"`
}

type CreateUserProfileDto struct {
	Id           string
	Nickname     string
	ReferralCode string
}
