package realtime_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"smartcampus/backend/internal/models"
	"smartcampus/backend/internal/realtime"
)

type fakeSubscriber struct {
	id     string
	topic  string
	ch     chan models.ChangeEvent
	mu     sync.Mutex
	closed bool
}

func newFakeSubscriber(id, topic string, buffer int) *fakeSubscriber {
	return &fakeSubscriber{id: id, topic: topic, ch: make(chan models.ChangeEvent, buffer)}
}

func (f *fakeSubscriber) ID() string                      { return f.id }
func (f *fakeSubscriber) Topic() string                   { return f.topic }
func (f *fakeSubscriber) Send() chan<- models.ChangeEvent { return f.ch }
func (f *fakeSubscriber) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSubscriber) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func startHub(t *testing.T) (*realtime.Hub, *realtime.LocalBroker, func()) {
	t.Helper()
	broker := realtime.NewLocalBroker()
	hub := realtime.NewHub(broker, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- hub.Run(ctx) }()

	return hub, broker, func() {
		cancel()
		select {
		case err := <-errCh:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("hub did not stop")
		}
	}
}

func receive(t *testing.T, ch <-chan models.ChangeEvent) models.ChangeEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return models.ChangeEvent{}
	}
}

func TestHub_FanOutByTopic(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub, broker, stop := startHub(t)

	feed := newFakeSubscriber("feed", models.TopicComplaints, 4)
	doc := newFakeSubscriber("doc", models.ComplaintTopic("c1"), 4)
	other := newFakeSubscriber("other", models.ComplaintTopic("c2"), 4)
	for _, s := range []*fakeSubscriber{feed, doc, other} {
		require.NoError(t, hub.Register(s))
	}

	ev := models.ChangeEvent{Topic: models.ComplaintTopic("c1"), Kind: models.ChangeUpdated, ComplaintID: "c1"}
	require.NoError(t, broker.Publish(context.Background(), ev))

	assert.Equal(t, "c1", receive(t, feed.ch).ComplaintID)
	assert.Equal(t, "c1", receive(t, doc.ch).ComplaintID)

	stop()
	assert.Empty(t, other.ch)
	assert.True(t, other.isClosed())
}

func TestHub_UnregisterClosesSubscriber(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub, broker, stop := startHub(t)

	s := newFakeSubscriber("s1", models.TopicUsers, 4)
	require.NoError(t, hub.Register(s))
	hub.Unregister(s)
	// A second unregister of the same subscriber is ignored.
	hub.Unregister(s)

	require.NoError(t, broker.Publish(context.Background(), models.ChangeEvent{Topic: models.TopicUsers}))
	stop()

	assert.True(t, s.isClosed())
	assert.Empty(t, s.ch)
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub, broker, stop := startHub(t)

	slow := newFakeSubscriber("slow", models.TopicComplaints, 1)
	require.NoError(t, hub.Register(slow))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, broker.Publish(ctx, models.ChangeEvent{Topic: models.TopicComplaints}))
	}

	assert.Eventually(t, slow.isClosed, time.Second, 10*time.Millisecond)
	stop()
}

func TestHub_RegisterAfterStop(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub, _, stop := startHub(t)
	stop()

	err := hub.Register(newFakeSubscriber("late", models.TopicComplaints, 1))
	assert.ErrorIs(t, err, realtime.ErrHubClosed)
}

func TestLocalBroker_CancelClosesChannel(t *testing.T) {
	defer goleak.VerifyNone(t)
	broker := realtime.NewLocalBroker()

	ch, cancel := broker.Subscribe(context.Background())
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
	assert.NoError(t, broker.Publish(context.Background(), models.ChangeEvent{Topic: "x"}))
}
