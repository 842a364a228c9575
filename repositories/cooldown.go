package repositories

import (
	"context"
	"fmt"
	"github.com/redis/rueidis"
	"time"
)

type CooldownRepository interface {
	// TryAcquire returns false while a previous acquisition for the user is still live.
	TryAcquire(ctx context.Context, userId string, d time.Duration) (bool, error)
}

type cooldownRepositoryRedis struct {
	c rueidis.Client
}

func NewCooldownRepository(c rueidis.Client) CooldownRepository {
	return &cooldownRepositoryRedis{c: c}
}

func (r *cooldownRepositoryRedis) key(userId string) string {
	return fmt.Sprintf("user:{%s}:xp:cooldown", userId)
}

func (r *cooldownRepositoryRedis) TryAcquire(ctx context.Context, userId string, d time.Duration) (bool, error) {
	err := r.c.Do(ctx, r.c.B().Set().Key(r.key(userId)).Value("1").Nx().PxMilliseconds(d.Milliseconds()).Build()).Error()
	if rueidis.IsRedisNil(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
