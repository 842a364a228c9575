package servers

import (
	"context"
	"errors"
	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"github.com/skif48/speakup-progress/app_config"
	"github.com/skif48/speakup-progress/entities"
	"github.com/skif48/speakup-progress/graceful_shutdown"
	"github.com/skif48/speakup-progress/servers/consumers"
	"io"
	"log/slog"
	"time"
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

const (
	minReadBackoff = 100 * time.Millisecond
	maxReadBackoff = 5 * time.Second
)

type KafkaConsumer struct {
	r MessageReader
	d *consumers.ActivityDispatcher

	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewKafkaConsumer(r MessageReader, d *consumers.ActivityDispatcher) *KafkaConsumer {
	return &KafkaConsumer{r: r, d: d, minBackoff: minReadBackoff, maxBackoff: maxReadBackoff}
}

func RunKafkaConsumer(ac *app_config.AppConfig, d *consumers.ActivityDispatcher, gs *graceful_shutdown.Coordinator) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        ac.KafkaBrokers,
		GroupID:        ac.KafkaConsumerGroupId,
		Topic:          ac.KafkaTopic,
		CommitInterval: time.Second,
	})

	kc := NewKafkaConsumer(r, d)
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		kc.Listen(ctx)
	}()

	gs.AddInputShutdownFunc(func() {
		if err := r.Close(); err != nil {
			slog.Error("Failed to close kafka reader", "err", err)
		}
		<-done
	})
	gs.AddOutputShutdownFunc(func() {
		d.Stop()
		cancel()
	})
}

// Listen forwards events until the reader is closed or ctx ends. Other read errors are
// retried with exponential backoff.
func (kc *KafkaConsumer) Listen(ctx context.Context) {
	backoff := kc.minBackoff
	for {
		m, err := kc.r.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return
			}
			slog.Error("Failed to read activity message", "err", err, "retry_in", backoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff = min(2*backoff, kc.maxBackoff)
			continue
		}
		backoff = kc.minBackoff
		event := &entities.ActivityEvent{}
		if err := json.Unmarshal(m.Value, event); err != nil {
			slog.Error("Dropping malformed activity message", "err", err, "offset", m.Offset, "partition", m.Partition)
			continue
		}
		if err := kc.d.Dispatch(ctx, event); err != nil {
			return
		}
	}
}
