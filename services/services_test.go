package services

import (
	"github.com/skif48/speakup-progress/app_config"
	"github.com/skif48/speakup-progress/game_config"
	"github.com/skif48/speakup-progress/repositories/repotest"
	"time"
)

type fixture struct {
	ac          *app_config.AppConfig
	gc          *game_config.GameConfig
	xpRepo      *repotest.UserXp
	cooldown    *repotest.Cooldown
	profiles    *repotest.UserProfiles
	referralDb  *repotest.Referrals
	records     *repotest.Leaderboard
	publisher   *repotest.Publisher
	xp          *XpService
	referrals   *ReferralService
	leaderboard *LeaderboardService
}

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newFixture() *fixture {
	f := &fixture{
		ac: &app_config.AppConfig{
			ActivityCooldown:      2 * time.Second,
			LeaderboardCacheBytes: 512 * 1024,
			LeaderboardCacheTtl:   time.Minute,
		},
		gc:         game_config.NewGameConfig(),
		xpRepo:     repotest.NewUserXp(),
		cooldown:   repotest.NewCooldown(),
		profiles:   repotest.NewUserProfiles(),
		referralDb: repotest.NewReferrals(),
		records:    repotest.NewLeaderboard(),
		publisher:  &repotest.Publisher{},
	}
	f.referrals = NewReferralService(f.gc, f.referralDb, f.profiles)
	f.xp = NewXpService(f.ac, f.gc, f.publisher, f.xpRepo, f.cooldown, f.referrals)
	f.xp.now = func() time.Time { return fixedNow }
	f.leaderboard = NewLeaderboardService(f.ac, f.gc, f.records, f.profiles, f.xpRepo)
	f.leaderboard.now = func() time.Time { return fixedNow }
	return f
}
