package repositories

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/redis/rueidis"
	"github.com/skif48/speakup-progress/entities"
	"strconv"
	"strings"
	"time"
)

const (
	levelRankingKey  = "ranking:levels"
	breakdownPrefix  = "b:"
	fieldTotal       = "total"
	fieldLastUpdated = "last_updated"
	todayCounterTtlS = 48 * 60 * 60
	eventMarkerTtlS  = 7 * 24 * 60 * 60
)

type XpScore struct {
	UserId  string
	TotalXp int
}

type UserXpRepository interface {
	// Award adds every part to the breakdown and their sum to the total and today's counter.
	// An event id already applied leaves the record untouched and returns ErrDuplicateEvent with the
	// current total. An empty event id is never deduplicated.
	Award(ctx context.Context, userId string, eventId string, parts map[string]int, day string, at time.Time) (int, error)
	GetXp(ctx context.Context, userId string, day string) (*entities.UserXp, error)
	TopXp(ctx context.Context, n int) ([]XpScore, error)
	Purge(ctx context.Context) error
}

type userXpRepositoryRedis struct {
	c rueidis.Client
}

func NewUserXpRepository(c rueidis.Client) UserXpRepository {
	return &userXpRepositoryRedis{c: c}
}

func (u *userXpRepositoryRedis) key(userId string) string {
	return fmt.Sprintf("user:{%s}:xp", userId)
}

func (u *userXpRepositoryRedis) eventKey(userId, eventId string) string {
	return fmt.Sprintf("user:{%s}:xp:evt:%s", userId, eventId)
}

func (u *userXpRepositoryRedis) todayKey(userId, day string) string {
	return fmt.Sprintf("user:{%s}:xp:today:%s", userId, day)
}

// awardScript applies an event once. KEYS: xp hash, today counter, event marker.
// ARGV: marker ttl, last updated, today ttl, gained, then field/increment pairs.
var awardScript = rueidis.NewLuaScript(`
if not redis.call('SET', KEYS[3], '1', 'NX', 'EX', ARGV[1]) then
	return {0, tonumber(redis.call('HGET', KEYS[1], 'total') or '0')}
end
local total = redis.call('HINCRBY', KEYS[1], 'total', ARGV[4])
for i = 5, #ARGV, 2 do
	redis.call('HINCRBY', KEYS[1], ARGV[i], ARGV[i + 1])
end
redis.call('HSET', KEYS[1], 'last_updated', ARGV[2])
redis.call('INCRBY', KEYS[2], ARGV[4])
redis.call('EXPIRE', KEYS[2], ARGV[3])
return {1, total}
`)

func (u *userXpRepositoryRedis) Award(ctx context.Context, userId string, eventId string, parts map[string]int, day string, at time.Time) (int, error) {
	gained := 0
	for _, v := range parts {
		gained += v
	}
	if eventId == "" {
		eventId = uuid.NewString()
	}
	keys := []string{u.key(userId), u.todayKey(userId, day), u.eventKey(userId, eventId)}
	args := make([]string, 0, 4+2*len(parts))
	args = append(args,
		strconv.Itoa(eventMarkerTtlS),
		strconv.FormatInt(at.UnixMilli(), 10),
		strconv.Itoa(todayCounterTtlS),
		strconv.Itoa(gained),
	)
	for activity, v := range parts {
		args = append(args, breakdownPrefix+activity, strconv.Itoa(v))
	}
	res, err := awardScript.Exec(ctx, u.c, keys, args).ToArray()
	if err != nil {
		return 0, err
	}
	if len(res) != 2 {
		return 0, fmt.Errorf("unexpected number of results from award script")
	}
	applied, err := res[0].AsInt64()
	if err != nil {
		return 0, err
	}
	total, err := res[1].AsInt64()
	if err != nil {
		return 0, err
	}
	if applied == 0 {
		return int(total), fmt.Errorf("event %s of user %s: %w", eventId, userId, entities.ErrDuplicateEvent)
	}

	// ranking lives in its own slot, so it is written with the authoritative total after the script
	err = u.c.Do(ctx, u.c.B().Zadd().Key(levelRankingKey).ScoreMember().ScoreMember(float64(total), userId).Build()).Error()
	return int(total), err
}

func (u *userXpRepositoryRedis) GetXp(ctx context.Context, userId string, day string) (*entities.UserXp, error) {
	fields, err := u.c.Do(ctx, u.c.B().Hgetall().Key(u.key(userId)).Build()).AsStrMap()
	if err != nil {
		return nil, err
	}
	xp := &entities.UserXp{
		UserId:      userId,
		XpBreakdown: make(map[string]int),
	}
	for field, value := range fields {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt xp field %s for user %s: %w", field, userId, err)
		}
		switch {
		case field == fieldTotal:
			xp.TotalXp = int(n)
		case field == fieldLastUpdated:
			xp.LastUpdated = n
		case strings.HasPrefix(field, breakdownPrefix):
			xp.XpBreakdown[strings.TrimPrefix(field, breakdownPrefix)] = int(n)
		}
	}
	today, err := u.c.Do(ctx, u.c.B().Get().Key(u.todayKey(userId, day)).Build()).AsInt64()
	if err != nil && !rueidis.IsRedisNil(err) {
		return nil, err
	}
	xp.XpToday = int(today)
	return xp, nil
}

func (u *userXpRepositoryRedis) TopXp(ctx context.Context, n int) ([]XpScore, error) {
	if n <= 0 {
		return nil, nil
	}
	scores, err := u.c.Do(ctx, u.c.B().Zrange().Key(levelRankingKey).Min("0").Max(strconv.Itoa(n-1)).Rev().Withscores().Build()).AsZScores()
	if err != nil {
		return nil, err
	}
	top := make([]XpScore, 0, len(scores))
	for _, s := range scores {
		top = append(top, XpScore{UserId: s.Member, TotalXp: int(s.Score)})
	}
	return top, nil
}

func (u *userXpRepositoryRedis) Purge(ctx context.Context) error {
	var cursor uint64
	for {
		entry, err := u.c.Do(ctx, u.c.B().Scan().Cursor(cursor).Match("user:{*}:xp*").Count(1000).Build()).AsScanEntry()
		if err != nil {
			return err
		}
		if len(entry.Elements) > 0 {
			if err := u.c.Do(ctx, u.c.B().Unlink().Key(entry.Elements...).Build()).Error(); err != nil {
				return err
			}
		}
		if entry.Cursor == 0 {
			break
		}
		cursor = entry.Cursor
	}
	return u.c.Do(ctx, u.c.B().Unlink().Key(levelRankingKey).Build()).Error()
}
