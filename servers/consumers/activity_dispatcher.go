package consumers

import (
	"context"
	"github.com/skif48/speakup-progress/app_config"
	"github.com/skif48/speakup-progress/entities"
	"hash/fnv"
	"log/slog"
	"sync"
)

type ActivityHandler interface {
	HandleActivity(ctx context.Context, event *entities.ActivityEvent) (*entities.XpAward, error)
}

// ActivityDispatcher fans events out to a fixed set of workers. Events of one user
// always land on the same worker, so they are applied in arrival order.
type ActivityDispatcher struct {
	ch []chan *entities.ActivityEvent
	wg sync.WaitGroup

	handler ActivityHandler
}

func NewActivityDispatcher(ac *app_config.AppConfig, handler ActivityHandler) *ActivityDispatcher {
	concurrency := ac.KafkaActivityConsumerConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	d := &ActivityDispatcher{
		ch: make([]chan *entities.ActivityEvent, concurrency),

		handler: handler,
	}
	for i := range d.ch {
		d.ch[i] = make(chan *entities.ActivityEvent, 64)
	}
	return d
}

func (d *ActivityDispatcher) Start(ctx context.Context) {
	for i := 0; i < len(d.ch); i++ {
		d.wg.Add(1)
		go func(i int) {
			defer d.wg.Done()
			for event := range d.ch[i] {
				if _, err := d.handler.HandleActivity(ctx, event); err != nil {
					slog.Error("Failed to handle activity", "err", err, "event_id", event.Id, "user_id", event.UserId)
				}
			}
		}(i)
	}
}

func (d *ActivityDispatcher) shard(userId string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userId))
	return int(h.Sum32() % uint32(len(d.ch)))
}

// Dispatch blocks while the user's worker queue is full.
func (d *ActivityDispatcher) Dispatch(ctx context.Context, event *entities.ActivityEvent) error {
	select {
	case d.ch[d.shard(event.UserId)] <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop closes the queues and waits for queued events to be handled. No Dispatch may follow.
func (d *ActivityDispatcher) Stop() {
	for _, ch := range d.ch {
		close(ch)
	}
	d.wg.Wait()
}
