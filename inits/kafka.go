package inits

import (
	"context"
	"github.com/segmentio/kafka-go"
	"github.com/skif48/speakup-progress/app_config"
	"go.uber.org/fx"
	"log/slog"
)

func NewKafkaWriter(lc fx.Lifecycle, ac *app_config.AppConfig) *kafka.Writer {
	kw := &kafka.Writer{
		Addr:                   kafka.TCP(ac.KafkaBrokers...),
		Topic:                  ac.KafkaTopic,
		Balancer:               &kafka.Murmur2Balancer{Consistent: true},
		AllowAutoTopicCreation: true,
	}
	lc.Append(fx.StopHook(func(context.Context) {
		if err := kw.Close(); err != nil {
			slog.Error("Failed to close kafka writer", "err", err)
		}
	}))
	return kw
}
