package main

import (
	"context"
	"github.com/segmentio/kafka-go"
	"github.com/skif48/speakup-progress/app_config"
	"github.com/skif48/speakup-progress/game_config"
	"github.com/skif48/speakup-progress/graceful_shutdown"
	"github.com/skif48/speakup-progress/inits"
	"github.com/skif48/speakup-progress/logger"
	"github.com/skif48/speakup-progress/repositories"
	"github.com/skif48/speakup-progress/servers"
	"github.com/skif48/speakup-progress/servers/consumers"
	"github.com/skif48/speakup-progress/services"
	"go.uber.org/fx"
	"log/slog"
	"time"
)

func main() {
	var gs *graceful_shutdown.Coordinator
	app := fx.New(
		fx.Provide(
			app_config.NewAppConfig,
			logger.InitLogger,
			game_config.NewGameConfig,
			graceful_shutdown.NewCoordinator,

			inits.NewRedisClient,
			inits.NewScyllaSession,
			inits.NewKafkaWriter,
			func(kw *kafka.Writer) services.ActivityPublisher { return kw },

			repositories.NewUserXpRepository,
			repositories.NewCooldownRepository,
			repositories.NewUserProfileRepository,
			repositories.NewReferralRepository,
			repositories.NewLeaderboardRepo,

			services.NewReferralService,
			func(rs *services.ReferralService) services.ReferralConfirmer { return rs },
			services.NewXpService,
			func(xs *services.XpService) consumers.ActivityHandler { return xs },
			services.NewLeaderboardService,

			consumers.NewActivityDispatcher,
			servers.NewHttpHandler,
		),
		fx.WithLogger(logger.FxLogger),
		fx.Invoke(servers.RunKafkaConsumer),
		fx.Invoke(servers.RunHttpServer),
		fx.Populate(&gs),
	)

	if err := app.Err(); err != nil {
		panic(err)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		panic(err)
	}

	gs.WaitForSignals()

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil {
		slog.Error("Failed to stop cleanly", "err", err)
	}
}
