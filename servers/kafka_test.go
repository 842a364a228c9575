package servers

import (
	"context"
	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"github.com/skif48/speakup-progress/app_config"
	"github.com/skif48/speakup-progress/entities"
	"github.com/skif48/speakup-progress/servers/consumers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"sync"
	"testing"
	"time"
)

// fakeReader fails with each of errs before serving msgs, then reports a closed reader.
type fakeReader struct {
	errs  []error
	msgs  []kafka.Message
	reads int
}

func (f *fakeReader) ReadMessage(context.Context) (kafka.Message, error) {
	f.reads++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return kafka.Message{}, err
	}
	if len(f.msgs) == 0 {
		return kafka.Message{}, io.EOF
	}
	m := f.msgs[0]
	f.msgs = f.msgs[1:]
	return m, nil
}

func (f *fakeReader) Close() error { return nil }

type collectingHandler struct {
	mu     sync.Mutex
	events []*entities.ActivityEvent
}

func (c *collectingHandler) HandleActivity(_ context.Context, event *entities.ActivityEvent) (*entities.XpAward, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return &entities.XpAward{UserId: event.UserId}, nil
}

func activityMessage(t *testing.T, event *entities.ActivityEvent) kafka.Message {
	b, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Key: []byte(event.UserId), Value: b}
}

func TestKafkaConsumer_DispatchesEventsAndSkipsMalformed(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{
		activityMessage(t, &entities.ActivityEvent{Id: "e1", UserId: "u1", Activity: "phrases"}),
		{Key: []byte("u2"), Value: []byte("{not json")},
		activityMessage(t, &entities.ActivityEvent{Id: "e2", UserId: "u1", Activity: "video", PerfectScore: true}),
	}}
	h := &collectingHandler{}
	d := consumers.NewActivityDispatcher(&app_config.AppConfig{KafkaActivityConsumerConcurrency: 2}, h)
	d.Start(context.Background())

	NewKafkaConsumer(r, d).Listen(context.Background())
	d.Stop()

	require.Len(t, h.events, 2)
	assert.Equal(t, "e1", h.events[0].Id)
	assert.Equal(t, "e2", h.events[1].Id)
	assert.True(t, h.events[1].PerfectScore)
}

func TestKafkaConsumer_RetriesTransientReadErrors(t *testing.T) {
	r := &fakeReader{
		errs: []error{kafka.LeaderNotAvailable, kafka.RequestTimedOut},
		msgs: []kafka.Message{activityMessage(t, &entities.ActivityEvent{Id: "e1", UserId: "u1", Activity: "chat"})},
	}
	h := &collectingHandler{}
	d := consumers.NewActivityDispatcher(&app_config.AppConfig{KafkaActivityConsumerConcurrency: 1}, h)
	d.Start(context.Background())

	kc := NewKafkaConsumer(r, d)
	kc.minBackoff = time.Millisecond
	kc.maxBackoff = 2 * time.Millisecond
	kc.Listen(context.Background())
	d.Stop()

	assert.Equal(t, 4, r.reads)
	require.Len(t, h.events, 1)
	assert.Equal(t, "e1", h.events[0].Id)
}

func TestKafkaConsumer_StopsOnCancelledContext(t *testing.T) {
	r := &fakeReader{errs: []error{context.Canceled}}
	d := consumers.NewActivityDispatcher(&app_config.AppConfig{KafkaActivityConsumerConcurrency: 1}, &collectingHandler{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	NewKafkaConsumer(r, d).Listen(ctx)
	assert.Equal(t, 1, r.reads)
}
