package app_config

import (
	"context"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"log/slog"
	"os"
	"time"
)

type AppConfig struct {
	FiberPort int `env:"FIBER_PORT, default=3000"`

	LogLevel string `env:"LOG_LEVEL, default=info"`

	KafkaBrokers                     []string `env:"KAFKA_BROKERS, default=localhost:9092"`
	KafkaConsumerGroupId             string   `env:"KAFKA_CONSUMER_GROUP_ID, default=speakup-progress"`
	KafkaTopic                       string   `env:"KAFKA_TOPIC, default=practice-activities"`
	KafkaActivityConsumerConcurrency int      `env:"KAFKA_ACTIVITY_CONSUMER_CONCURRENCY, default=32"`

	ScyllaUrl      string `env:"SCYLLA_URL, default=127.0.0.1:9042"`
	ScyllaKeyspace string `env:"SCYLLA_KEYSPACE, default=speakup"`

	RedisUrl string `env:"REDIS_URL, default=127.0.0.1:6379"`

	ActivityCooldown          time.Duration `env:"ACTIVITY_COOLDOWN, default=2s"`
	ReferralSettledCacheBytes int           `env:"REFERRAL_SETTLED_CACHE_BYTES, default=4194304"`

	LeaderboardCacheBytes int           `env:"LEADERBOARD_CACHE_BYTES, default=8388608"`
	LeaderboardCacheTtl   time.Duration `env:"LEADERBOARD_CACHE_TTL, default=15s"`

	ShutdownDrainTime time.Duration `env:"SHUTDOWN_DRAIN_TIME, default=10s"`
}

func NewAppConfig() *AppConfig {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.With("err", err).Warn("Failed to read .env file")
	}
	ac, err := Load(context.Background(), envconfig.OsLookuper())
	if err != nil {
		slog.With("err", err).Error(
			"Failed to load environment variables",
		)
		os.Exit(1)
	}
	return ac
}

func Load(ctx context.Context, lookuper envconfig.Lookuper) (*AppConfig, error) {
	ac := &AppConfig{}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   ac,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	return ac, nil
}
