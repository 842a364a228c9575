package entities

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnknownActivity     = errors.New("unknown activity")
	ErrCooldown            = errors.New("activity submitted too soon")
	ErrNotQualified        = errors.New("score does not qualify for the leaderboard")
	ErrNoSkipPhrases       = errors.New("no skip phrases left")
	ErrInvalidReferralCode = errors.New("invalid referral code")
	ErrCodeTaken           = errors.New("referral code already taken")
	ErrDuplicateEvent      = errors.New("activity event already applied")
)
