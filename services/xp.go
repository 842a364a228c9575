package services

import (
	"context"
	"errors"
	"fmt"
	"github.com/VictoriaMetrics/metrics"
	"github.com/coocood/freecache"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/skif48/speakup-progress/app_config"
	"github.com/skif48/speakup-progress/entities"
	"github.com/skif48/speakup-progress/game_config"
	"github.com/skif48/speakup-progress/progression"
	"github.com/skif48/speakup-progress/repositories"
	"log/slog"
	"time"
)

type ActivityPublisher interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type ReferralConfirmer interface {
	ConfirmReferral(ctx context.Context, inviteeId string) (bool, error)
}

type XpService struct {
	kw        ActivityPublisher
	xr        repositories.UserXpRepository
	cr        repositories.CooldownRepository
	referrals ReferralConfirmer
	gc        *game_config.GameConfig
	cooldown  time.Duration
	settled   *freecache.Cache
	now       func() time.Time
}

// settledReferralTtlS bounds how long a user whose referral needs no confirmation is remembered.
const settledReferralTtlS = 24 * 60 * 60

func NewXpService(ac *app_config.AppConfig, gc *game_config.GameConfig, kw ActivityPublisher, xr repositories.UserXpRepository, cr repositories.CooldownRepository, referrals ReferralConfirmer) *XpService {
	return &XpService{
		kw:        kw,
		xr:        xr,
		cr:        cr,
		referrals: referrals,
		gc:        gc,
		cooldown:  ac.ActivityCooldown,
		settled:   freecache.NewCache(ac.ReferralSettledCacheBytes),
		now:       time.Now,
	}
}

func (x *XpService) day() string {
	return x.now().UTC().Format(time.DateOnly)
}

// SubmitActivity checks the event and the user's cooldown, then queues the event for scoring.
func (x *XpService) SubmitActivity(ctx context.Context, userId string, req *entities.ActivityRequest) (*entities.ActivityEvent, error) {
	if _, ok := x.gc.ActionsScoreMap[req.Activity]; !ok {
		return nil, fmt.Errorf("%q: %w", req.Activity, entities.ErrUnknownActivity)
	}
	admitted, err := x.cr.TryAcquire(ctx, userId, x.cooldown)
	if err != nil {
		return nil, err
	}
	if !admitted {
		metrics.GetOrCreateCounter(`xp_activities_rejected_total{reason="cooldown"}`).Inc()
		return nil, entities.ErrCooldown
	}
	event := &entities.ActivityEvent{
		Id:           uuid.NewString(),
		UserId:       userId,
		Activity:     req.Activity,
		PerfectScore: req.PerfectScore,
		StreakDays:   req.StreakDays,
		Timestamp:    x.now().UnixMilli(),
	}
	if err := x.ProduceActivity(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (x *XpService) ProduceActivity(ctx context.Context, event *entities.ActivityEvent) error {
	bytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return x.kw.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.UserId),
		Value: bytes,
	})
}

// Breakdown splits an event into the XP components it earns.
func (x *XpService) Breakdown(event *entities.ActivityEvent) (map[string]int, error) {
	base, ok := x.gc.ActionsScoreMap[event.Activity]
	if !ok {
		return nil, fmt.Errorf("%q: %w", event.Activity, entities.ErrUnknownActivity)
	}
	parts := map[string]int{event.Activity: base}
	if event.PerfectScore && x.gc.PerfectScoreBonus > 0 {
		parts[game_config.BonusPerfectScore] = x.gc.PerfectScoreBonus
	}
	if event.StreakDays > 1 && x.gc.StreakBonus > 0 {
		parts[game_config.BonusStreak] = x.gc.StreakBonus
	}
	return parts, nil
}

// HandleActivity awards the XP of one event. A replayed event awards nothing. Until the user's
// referral is settled every event retries its confirmation.
func (x *XpService) HandleActivity(ctx context.Context, event *entities.ActivityEvent) (*entities.XpAward, error) {
	parts, err := x.Breakdown(event)
	if err != nil {
		return nil, err
	}
	gained := 0
	for _, v := range parts {
		gained += v
	}
	total, err := x.xr.Award(ctx, event.UserId, event.Id, parts, x.day(), x.now())
	duplicate := errors.Is(err, entities.ErrDuplicateEvent)
	if err != nil && !duplicate {
		return nil, fmt.Errorf("award xp to %s: %w", event.UserId, err)
	}

	var award *entities.XpAward
	if duplicate {
		slog.Debug("Skipping replayed activity", "event_id", event.Id, "user_id", event.UserId)
		metrics.GetOrCreateCounter(`xp_activities_duplicate_total`).Inc()
		award = &entities.XpAward{
			UserId:    event.UserId,
			TotalXp:   total,
			Level:     progression.CalculateLevel(total),
			Duplicate: true,
		}
	} else {
		metrics.GetOrCreateCounter(fmt.Sprintf(`xp_awarded_total{activity=%q}`, event.Activity)).Add(gained)
		before := total - gained
		award = &entities.XpAward{
			UserId:    event.UserId,
			Gained:    gained,
			Breakdown: parts,
			TotalXp:   total,
			Level:     progression.CalculateLevel(total),
			LeveledUp: progression.CalculateLevel(total) > progression.CalculateLevel(before),
		}
		if award.LeveledUp {
			slog.Info("User leveled up", "user_id", event.UserId, "level", award.Level, "total_xp", total)
		}
	}

	if err := x.settleReferral(ctx, event.UserId); err != nil {
		return award, err
	}
	return award, nil
}

func (x *XpService) settleReferral(ctx context.Context, userId string) error {
	if x.referrals == nil {
		return nil
	}
	if _, err := x.settled.Get([]byte(userId)); err == nil {
		return nil
	}
	confirmed, err := x.referrals.ConfirmReferral(ctx, userId)
	if err != nil {
		return fmt.Errorf("confirm referral of %s: %w", userId, err)
	}
	if confirmed {
		slog.Info("Referral confirmed", "invitee_id", userId)
	}
	if err := x.settled.Set([]byte(userId), []byte{1}, settledReferralTtlS); err != nil {
		slog.Debug("Settled referral not cached", "user_id", userId, "err", err)
	}
	return nil
}

func (x *XpService) GetProgress(ctx context.Context, userId string) (*entities.UserProgress, error) {
	xp, err := x.xr.GetXp(ctx, userId, x.day())
	if err != nil {
		return nil, err
	}
	return progression.NewUserProgress(xp), nil
}
