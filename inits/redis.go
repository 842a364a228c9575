package inits

import (
	"context"
	"github.com/redis/rueidis"
	"github.com/skif48/speakup-progress/app_config"
	"go.uber.org/fx"
)

func NewRedisClient(lc fx.Lifecycle, ac *app_config.AppConfig) rueidis.Client {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{ac.RedisUrl},
		ShuffleInit: true,
	})
	if err != nil {
		panic(err)
	}
	lc.Append(fx.StopHook(func(context.Context) {
		client.Close()
	}))
	return client
}
