package services

import (
	"context"
	"errors"
	"fmt"
	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"
	"github.com/skif48/speakup-progress/entities"
	"github.com/skif48/speakup-progress/game_config"
	"github.com/skif48/speakup-progress/progression"
	"github.com/skif48/speakup-progress/repositories"
	"log/slog"
)

const maxCodeAttempts = 4

type ReferralService struct {
	rr           repositories.ReferralRepository
	upr          repositories.UserProfileRepository
	rules        progression.ReferralRules
	welcomeBonus int
	newId        func() string
}

func NewReferralService(gc *game_config.GameConfig, rr repositories.ReferralRepository, upr repositories.UserProfileRepository) *ReferralService {
	return &ReferralService{
		rr:           rr,
		upr:          upr,
		rules:        progression.NewReferralRules(gc),
		welcomeBonus: gc.Referral.WelcomeBonus,
		newId:        uuid.NewString,
	}
}

// SignUp creates the profile and referral record of a new user. An unusable ref code
// does not block the sign-up.
func (s *ReferralService) SignUp(ctx context.Context, req *entities.SignUpRequest) (*entities.UserProfile, error) {
	userId := s.newId()

	referrerId := ""
	if req.Ref != "" {
		id, err := s.ResolveCode(ctx, req.Ref)
		switch {
		case err == nil:
			referrerId = id
		case errors.Is(err, entities.ErrInvalidReferralCode):
			slog.Warn("Ignoring unusable referral code", "ref", req.Ref, "err", err)
		default:
			return nil, err
		}
	}

	code, err := s.claimCode(ctx, req.Nickname, userId)
	if err != nil {
		return nil, err
	}

	// profile goes last; the welcome bonus is only granted once the referrer tracks the invite
	referral := &entities.Referral{
		UserId:            userId,
		Code:              code,
		Pending:           []string{},
		SuccessfulInvites: []string{},
	}
	if referrerId != "" {
		if err := s.rr.AddPending(ctx, referrerId, userId); err != nil {
			return nil, fmt.Errorf("track invite of %s: %w", referrerId, err)
		}
		referral.ReferredBy = referrerId
		referral.HasReceivedWelcomeBonus = true
		referral.Rewards = entities.ReferralRewards{
			SkipPhrases: s.welcomeBonus,
			TotalEarned: s.welcomeBonus,
		}
	}
	if err := s.rr.Create(ctx, referral); err != nil {
		return nil, err
	}
	profile, err := s.upr.SignUp(ctx, &entities.CreateUserProfileDto{
		Id:           userId,
		Nickname:     req.Nickname,
		ReferralCode: code,
	})
	if err != nil {
		return nil, err
	}
	if referrerId != "" {
		metrics.GetOrCreateCounter(`referral_signups_total`).Inc()
	}
	return profile, nil
}

func (s *ReferralService) claimCode(ctx context.Context, nickname string, userId string) (string, error) {
	seed := userId
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := progression.GenerateReferralCode(nickname, seed)
		claimed, err := s.rr.ClaimCode(ctx, code, userId)
		if err != nil {
			return "", err
		}
		if claimed {
			return code, nil
		}
		seed = s.newId()
	}
	return "", fmt.Errorf("user %s: %w", userId, entities.ErrCodeTaken)
}

// ResolveCode returns the owner of a referral code as it arrives from a ?ref= link.
func (s *ReferralService) ResolveCode(ctx context.Context, code string) (string, error) {
	code = progression.NormalizeReferralCode(code)
	if !progression.IsValidReferralCode(code) {
		return "", fmt.Errorf("%q: %w", code, entities.ErrInvalidReferralCode)
	}
	userId, err := s.rr.ResolveCode(ctx, code)
	if errors.Is(err, entities.ErrNotFound) {
		return "", fmt.Errorf("%q is not assigned: %w", code, entities.ErrInvalidReferralCode)
	}
	return userId, err
}

// ConfirmReferral credits the invitee's referrer. Repeated calls credit at most once.
func (s *ReferralService) ConfirmReferral(ctx context.Context, inviteeId string) (bool, error) {
	referral, err := s.rr.Get(ctx, inviteeId)
	if errors.Is(err, entities.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if referral.ReferredBy == "" {
		return false, nil
	}
	confirmed, err := s.rr.ConfirmInvite(ctx, referral.ReferredBy, inviteeId, s.rules.InviteReward)
	if err != nil {
		return false, err
	}
	if confirmed {
		metrics.GetOrCreateCounter(`referral_confirmations_total`).Inc()
	}
	return confirmed, nil
}

func (s *ReferralService) GetReferralStats(ctx context.Context, userId string) (*entities.ReferralStats, error) {
	referral, err := s.rr.Get(ctx, userId)
	if err != nil {
		return nil, err
	}
	return &entities.ReferralStats{
		Referral: *referral,
		Summary:  s.rules.CalculateRewards(referral.TotalInvites),
	}, nil
}

func (s *ReferralService) UseSkipPhrase(ctx context.Context, userId string) (int, error) {
	return s.rr.ConsumeSkipPhrase(ctx, userId)
}
