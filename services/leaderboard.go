package services

import (
	"context"
	"fmt"
	"github.com/VictoriaMetrics/metrics"
	"github.com/coocood/freecache"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/skif48/speakup-progress/app_config"
	"github.com/skif48/speakup-progress/entities"
	"github.com/skif48/speakup-progress/game_config"
	"github.com/skif48/speakup-progress/progression"
	"github.com/skif48/speakup-progress/repositories"
	"log/slog"
	"math"
	"strings"
	"time"
)

const MaxLeaderboardLimit = 100

var boardCollections = map[string]string{
	"leaderboard":           entities.BoardPractice,
	"challenge_leaderboard": entities.BoardChallenge,
}

// ResolveBoard accepts a board name or the name of its record collection.
func ResolveBoard(board string) (string, bool) {
	board = strings.ToLower(strings.TrimSpace(board))
	if board == entities.BoardPractice || board == entities.BoardChallenge {
		return board, true
	}
	resolved, ok := boardCollections[board]
	return resolved, ok
}

func resolveBoard(board string) (string, error) {
	resolved, ok := ResolveBoard(board)
	if !ok {
		return "", fmt.Errorf("board %q: %w", board, entities.ErrNotFound)
	}
	return resolved, nil
}

// cacheTtlSeconds rounds up to whole seconds; freecache reads 0 as no expiry.
func cacheTtlSeconds(ttl time.Duration) int {
	return max(1, int(math.Ceil(ttl.Seconds())))
}

type LeaderboardService struct {
	leaderboardRepo repositories.LeaderboardRepo
	userProfileRepo repositories.UserProfileRepository
	userXpRepo      repositories.UserXpRepository
	rules           progression.RecordRules
	cache           *freecache.Cache
	cacheTtl        time.Duration
	now             func() time.Time
}

func NewLeaderboardService(ac *app_config.AppConfig, gc *game_config.GameConfig, leaderboardRepo repositories.LeaderboardRepo, userProfileRepo repositories.UserProfileRepository, userXpRepo repositories.UserXpRepository) *LeaderboardService {
	return &LeaderboardService{
		leaderboardRepo: leaderboardRepo,
		userProfileRepo: userProfileRepo,
		userXpRepo:      userXpRepo,
		rules: progression.RecordRules{
			Size:          gc.Leaderboard.Size,
			MinPercentage: gc.Leaderboard.MinPercentage,
			MinAttempts:   gc.Leaderboard.MinAttempts,
			MaxNameLength: gc.Leaderboard.MaxNameLength,
		},
		cache:    freecache.NewCache(ac.LeaderboardCacheBytes),
		cacheTtl: ac.LeaderboardCacheTtl,
		now:      time.Now,
	}
}

func cacheKey(board, language string) []byte {
	return []byte(board + "|" + language)
}

func normalizeLanguage(language string) string {
	return strings.ToLower(strings.TrimSpace(language))
}

// Top returns at most limit records of a board, best first.
func (l *LeaderboardService) Top(ctx context.Context, board string, language string, limit int) ([]*entities.LeaderboardRecord, error) {
	board, err := resolveBoard(board)
	if err != nil {
		return nil, err
	}
	language = normalizeLanguage(language)
	if limit <= 0 || limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}
	records, err := l.cached(board, language)
	if err != nil {
		records, err = l.load(ctx, board, language)
		if err != nil {
			return nil, err
		}
		l.store(board, language, records)
	}
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (l *LeaderboardService) load(ctx context.Context, board string, language string) ([]*entities.LeaderboardRecord, error) {
	records, err := l.leaderboardRepo.GetLeaderboard(ctx, board, language, MaxLeaderboardLimit)
	if err != nil {
		slog.Warn("Indexed leaderboard query failed, scanning all records", "board", board, "language", language, "err", err)
		metrics.GetOrCreateCounter(`leaderboard_scan_fallbacks_total`).Inc()
		all, scanErr := l.leaderboardRepo.ScanAll(ctx)
		if scanErr != nil {
			return nil, fmt.Errorf("leaderboard %s/%s: %w", board, language, scanErr)
		}
		records = make([]*entities.LeaderboardRecord, 0, len(all))
		for _, r := range all {
			if r.Board == board && r.Language == language {
				records = append(records, r)
			}
		}
	}
	if records == nil {
		records = []*entities.LeaderboardRecord{}
	}
	progression.SortByScore(records)
	if len(records) > MaxLeaderboardLimit {
		records = records[:MaxLeaderboardLimit]
	}
	return records, nil
}

func (l *LeaderboardService) cached(board, language string) ([]*entities.LeaderboardRecord, error) {
	b, err := l.cache.Get(cacheKey(board, language))
	if err != nil {
		return nil, err
	}
	var records []*entities.LeaderboardRecord
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (l *LeaderboardService) store(board, language string, records []*entities.LeaderboardRecord) {
	b, err := json.Marshal(records)
	if err != nil {
		return
	}
	if err := l.cache.Set(cacheKey(board, language), b, cacheTtlSeconds(l.cacheTtl)); err != nil {
		slog.Debug("Leaderboard not cached", "board", board, "language", language, "err", err)
	}
}

func (l *LeaderboardService) CheckNewRecord(ctx context.Context, board string, language string, score entities.AttemptScore) (bool, error) {
	top, err := l.Top(ctx, board, language, l.rules.Size)
	if err != nil {
		return false, err
	}
	return l.rules.CheckIfNewRecord(score, top), nil
}

func (l *LeaderboardService) SaveRecord(ctx context.Context, board string, req *entities.SaveRecordRequest) (*entities.LeaderboardRecord, error) {
	board, err := resolveBoard(board)
	if err != nil {
		return nil, err
	}
	if !l.rules.Qualifies(req.AttemptScore) {
		return nil, entities.ErrNotQualified
	}
	record := &entities.LeaderboardRecord{
		Board:     board,
		Language:  normalizeLanguage(req.Language),
		Id:        uuid.NewString(),
		UserId:    req.UserId,
		Name:      l.rules.TruncateName(strings.TrimSpace(req.Name)),
		Score:     progression.ScorePercentage(req.Correct, req.Total),
		Correct:   req.Correct,
		Total:     req.Total,
		Timestamp: l.now().UnixMilli(),
	}
	if err := l.leaderboardRepo.AddRecord(ctx, record); err != nil {
		return nil, err
	}
	l.cache.Del(cacheKey(record.Board, record.Language))
	metrics.GetOrCreateCounter(fmt.Sprintf(`leaderboard_records_total{board=%q}`, board)).Inc()
	return record, nil
}

// LevelRanking lists the top XP holders by level, XP and progress.
func (l *LeaderboardService) LevelRanking(ctx context.Context, limit int) ([]*entities.LevelRankingEntry, error) {
	if limit <= 0 || limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}
	scores, err := l.userXpRepo.TopXp(ctx, limit)
	if err != nil {
		return nil, err
	}
	userIds := make([]string, 0, len(scores))
	for _, score := range scores {
		userIds = append(userIds, score.UserId)
	}
	userProfiles, err := l.userProfileRepo.GetManyUserProfiles(ctx, userIds)
	if err != nil {
		return nil, err
	}
	userIdToProfile := make(map[string]*entities.UserProfile, len(userProfiles))
	for _, profile := range userProfiles {
		userIdToProfile[profile.Id] = profile
	}

	entries := make([]*entities.LevelRankingEntry, 0, len(scores))
	for _, score := range scores {
		profile, exists := userIdToProfile[score.UserId]
		if !exists {
			continue
		}
		entries = append(entries, &entities.LevelRankingEntry{
			UserId:   score.UserId,
			Nickname: profile.Nickname,
			TotalXp:  score.TotalXp,
			Level:    progression.CalculateLevel(score.TotalXp),
			Progress: progression.CalculateXpProgress(score.TotalXp).Percentage,
		})
	}
	progression.SortLevelRanking(entries)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Purge wipes every store; meant for test environments.
func (l *LeaderboardService) Purge(ctx context.Context) error {
	if err := l.leaderboardRepo.Purge(ctx); err != nil {
		return err
	}
	l.cache.Clear()
	return l.userXpRepo.Purge(ctx)
}
