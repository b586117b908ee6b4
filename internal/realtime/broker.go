// Package realtime delivers change snapshots to subscribers of a topic.
// Producers publish ChangeEvents to a Broker; a Hub consumes the broker and
// fans each event out to the subscribers whose topic it matches.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"smartcampus/backend/internal/models"
)

// DefaultChannel is the Redis channel every API instance publishes on.
const DefaultChannel = "campus:changes"

// Broker moves change events between producers and hubs. Subscribe returns
// a channel that is closed once the returned cancel function runs or ctx ends.
type Broker interface {
	Publish(ctx context.Context, ev models.ChangeEvent) error
	Subscribe(ctx context.Context) (<-chan models.ChangeEvent, func())
}

// RedisBroker shares events between API instances through Redis Pub/Sub.
type RedisBroker struct {
	rdb     *redis.Client
	channel string
	logger  *zap.Logger
}

func NewRedisBroker(rdb *redis.Client, logger *zap.Logger) *RedisBroker {
	return &RedisBroker{rdb: rdb, channel: DefaultChannel, logger: logger}
}

// Publish публікує подію в Redis Pub/Sub
func (b *RedisBroker) Publish(ctx context.Context, ev models.ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, data).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context) (<-chan models.ChangeEvent, func()) {
	ctx, cancel := context.WithCancel(ctx)
	pubsub := b.rdb.Subscribe(ctx, b.channel)
	out := make(chan models.ChangeEvent, 64)

	go func() {
		defer close(out)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev models.ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.logger.Warn("Dropping malformed change event", zap.Error(err))
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, func() {
		cancel()
		_ = pubsub.Close()
	}
}

// LocalBroker is an in-process Broker for a single instance and for tests.
// A subscriber whose buffer is full misses the event.
type LocalBroker struct {
	mu   sync.Mutex
	next int
	subs map[int]chan models.ChangeEvent
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{subs: make(map[int]chan models.ChangeEvent)}
}

func (b *LocalBroker) Publish(_ context.Context, ev models.ChangeEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

func (b *LocalBroker) Subscribe(ctx context.Context) (<-chan models.ChangeEvent, func()) {
	ch := make(chan models.ChangeEvent, 64)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	stop := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(stop)
			b.mu.Lock()
			delete(b.subs, id)
			close(ch)
			b.mu.Unlock()
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-stop:
		}
	}()

	return ch, cancel
}
