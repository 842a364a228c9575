// Package repotest provides in-memory repositories for tests.
package repotest

import (
	"context"
	"fmt"
	"github.com/segmentio/kafka-go"
	"github.com/skif48/speakup-progress/entities"
	"github.com/skif48/speakup-progress/repositories"
	"slices"
	"sort"
	"sync"
	"time"
)

type UserXp struct {
	mu        sync.Mutex
	totals    map[string]int
	breakdown map[string]map[string]int
	today     map[string]int
	updated   map[string]int64
	applied   map[string]bool
	Err       error
}

func NewUserXp() *UserXp {
	return &UserXp{
		totals:    map[string]int{},
		breakdown: map[string]map[string]int{},
		today:     map[string]int{},
		updated:   map[string]int64{},
		applied:   map[string]bool{},
	}
}

var _ repositories.UserXpRepository = (*UserXp)(nil)

func (u *UserXp) Award(_ context.Context, userId string, eventId string, parts map[string]int, day string, at time.Time) (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return 0, u.Err
	}
	if eventId != "" {
		if u.applied[userId+"|"+eventId] {
			return u.totals[userId], fmt.Errorf("event %s: %w", eventId, entities.ErrDuplicateEvent)
		}
		u.applied[userId+"|"+eventId] = true
	}
	if u.breakdown[userId] == nil {
		u.breakdown[userId] = map[string]int{}
	}
	for k, v := range parts {
		u.totals[userId] += v
		u.breakdown[userId][k] += v
		u.today[userId+"|"+day] += v
	}
	u.updated[userId] = at.UnixMilli()
	return u.totals[userId], nil
}

func (u *UserXp) GetXp(_ context.Context, userId string, day string) (*entities.UserXp, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	breakdown := map[string]int{}
	for k, v := range u.breakdown[userId] {
		breakdown[k] = v
	}
	return &entities.UserXp{
		UserId:      userId,
		TotalXp:     u.totals[userId],
		XpBreakdown: breakdown,
		XpToday:     u.today[userId+"|"+day],
		LastUpdated: u.updated[userId],
	}, nil
}

func (u *UserXp) TopXp(_ context.Context, n int) ([]repositories.XpScore, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	scores := make([]repositories.XpScore, 0, len(u.totals))
	for id, xp := range u.totals {
		scores = append(scores, repositories.XpScore{UserId: id, TotalXp: xp})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].TotalXp != scores[j].TotalXp {
			return scores[i].TotalXp > scores[j].TotalXp
		}
		return scores[i].UserId > scores[j].UserId
	})
	if len(scores) > n {
		scores = scores[:n]
	}
	return scores, nil
}

func (u *UserXp) Purge(context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.totals = map[string]int{}
	u.breakdown = map[string]map[string]int{}
	u.today = map[string]int{}
	u.updated = map[string]int64{}
	u.applied = map[string]bool{}
	return nil
}

// Cooldown admits a user again only after Release or a fresh instance.
type Cooldown struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewCooldown() *Cooldown {
	return &Cooldown{held: map[string]bool{}}
}

func (c *Cooldown) TryAcquire(_ context.Context, userId string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.held[userId] {
		return false, nil
	}
	c.held[userId] = true
	return true, nil
}

func (c *Cooldown) Release(userId string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.held, userId)
}

type UserProfiles struct {
	mu       sync.Mutex
	profiles map[string]*entities.UserProfile
}

func NewUserProfiles() *UserProfiles {
	return &UserProfiles{profiles: map[string]*entities.UserProfile{}}
}

func (p *UserProfiles) SignUp(_ context.Context, r *entities.CreateUserProfileDto) (*entities.UserProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	profile := &entities.UserProfile{
		Id:           r.Id,
		Nickname:     r.Nickname,
		ReferralCode: r.ReferralCode,
		CreatedAt:    time.Now().UnixMilli(),
	}
	p.profiles[r.Id] = profile
	return profile, nil
}

func (p *UserProfiles) GetManyUserProfiles(_ context.Context, userIds []string) ([]*entities.UserProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*entities.UserProfile
	for _, id := range userIds {
		if profile, ok := p.profiles[id]; ok {
			out = append(out, profile)
		}
	}
	return out, nil
}

func (p *UserProfiles) GetUserProfile(_ context.Context, userId string) (*entities.UserProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profiles[userId], nil
}

func (p *UserProfiles) Purge(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profiles = map[string]*entities.UserProfile{}
	return nil
}

// Referrals mirrors the conditional-update semantics of the Scylla repository under one lock.
// AddPendingErr makes AddPending fail.
type Referrals struct {
	mu    sync.Mutex
	codes map[string]string
	rows  map[string]*entities.Referral

	AddPendingErr error
}

func NewReferrals() *Referrals {
	return &Referrals{codes: map[string]string{}, rows: map[string]*entities.Referral{}}
}

func (r *Referrals) ClaimCode(_ context.Context, code string, userId string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.codes[code]; taken {
		return false, nil
	}
	r.codes[code] = userId
	return true, nil
}

func (r *Referrals) ResolveCode(_ context.Context, code string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	userId, ok := r.codes[code]
	if !ok {
		return "", entities.ErrNotFound
	}
	return userId, nil
}

func (r *Referrals) Create(_ context.Context, ref *entities.Referral) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *ref
	cp.Pending = slices.Clone(ref.Pending)
	cp.SuccessfulInvites = slices.Clone(ref.SuccessfulInvites)
	r.rows[ref.UserId] = &cp
	return nil
}

func (r *Referrals) Get(_ context.Context, userId string) (*entities.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[userId]
	if !ok {
		return nil, entities.ErrNotFound
	}
	cp := *row
	cp.Pending = slices.Clone(row.Pending)
	cp.SuccessfulInvites = slices.Clone(row.SuccessfulInvites)
	return &cp, nil
}

func (r *Referrals) AddPending(_ context.Context, referrerId string, inviteeId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.AddPendingErr != nil {
		return r.AddPendingErr
	}
	row, ok := r.rows[referrerId]
	if !ok {
		return fmt.Errorf("referrer %s: %w", referrerId, entities.ErrNotFound)
	}
	if !slices.Contains(row.Pending, inviteeId) {
		row.Pending = append(row.Pending, inviteeId)
	}
	return nil
}

func (r *Referrals) ConfirmInvite(_ context.Context, referrerId string, inviteeId string, reward func(totalInvites int) int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[referrerId]
	if !ok {
		return false, entities.ErrNotFound
	}
	i := slices.Index(row.Pending, inviteeId)
	if i < 0 || slices.Contains(row.SuccessfulInvites, inviteeId) {
		return false, nil
	}
	row.Pending = slices.Delete(row.Pending, i, i+1)
	row.SuccessfulInvites = append(row.SuccessfulInvites, inviteeId)
	row.TotalInvites++
	credit := reward(row.TotalInvites)
	row.Rewards.SkipPhrases += credit
	row.Rewards.TotalEarned += credit
	return true, nil
}

func (r *Referrals) ConsumeSkipPhrase(_ context.Context, userId string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[userId]
	if !ok {
		return 0, entities.ErrNotFound
	}
	if row.Rewards.SkipPhrases <= 0 {
		return 0, entities.ErrNoSkipPhrases
	}
	row.Rewards.SkipPhrases--
	return row.Rewards.SkipPhrases, nil
}

func (r *Referrals) Purge(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = map[string]string{}
	r.rows = map[string]*entities.Referral{}
	return nil
}

// Leaderboard keeps records in insertion order. IndexErr makes GetLeaderboard fail.
type Leaderboard struct {
	mu       sync.Mutex
	records  []*entities.LeaderboardRecord
	IndexErr error
	Reads    int
}

func NewLeaderboard() *Leaderboard {
	return &Leaderboard{}
}

func (l *Leaderboard) AddRecord(_ context.Context, record *entities.LeaderboardRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := *record
	l.records = append(l.records, &cp)
	return nil
}

func (l *Leaderboard) GetLeaderboard(_ context.Context, board string, language string, limit int) ([]*entities.LeaderboardRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Reads++
	if l.IndexErr != nil {
		return nil, l.IndexErr
	}
	var out []*entities.LeaderboardRecord
	for _, r := range l.records {
		if r.Board == board && r.Language == language {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (l *Leaderboard) ScanAll(context.Context) ([]*entities.LeaderboardRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*entities.LeaderboardRecord, 0, len(l.records))
	for _, r := range l.records {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (l *Leaderboard) Purge(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
	return nil
}

// Publisher records published kafka messages.
type Publisher struct {
	mu       sync.Mutex
	Messages []kafka.Message
	Err      error
}

func (p *Publisher) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Messages = append(p.Messages, msgs...)
	return nil
}

var (
	_ repositories.CooldownRepository    = (*Cooldown)(nil)
	_ repositories.UserProfileRepository = (*UserProfiles)(nil)
	_ repositories.ReferralRepository    = (*Referrals)(nil)
	_ repositories.LeaderboardRepo       = (*Leaderboard)(nil)
)
