package realtime

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"smartcampus/backend/internal/models"
)

// ErrHubClosed is returned by Register once the hub has stopped.
var ErrHubClosed = errors.New("realtime hub closed")

// Subscriber is one registered interest in a topic, e.g. a websocket connection.
type Subscriber interface {
	// ID is unique per subscription.
	ID() string
	// Topic is the key the subscriber registered interest in.
	Topic() string
	// Send is where the hub delivers matching events. The hub never blocks on it.
	Send() chan<- models.ChangeEvent
	// Close is called by the hub exactly once when the subscriber is removed.
	Close()
}

// Hub owns the subscriber set. Only the Run goroutine touches the map;
// everything else goes through the register and unregister channels.
type Hub struct {
	broker      Broker
	logger      *zap.Logger
	subscribers map[string]Subscriber

	register   chan Subscriber
	unregister chan Subscriber
	done       chan struct{}
}

func NewHub(broker Broker, logger *zap.Logger) *Hub {
	return &Hub{
		broker:      broker,
		logger:      logger,
		subscribers: make(map[string]Subscriber),
		register:    make(chan Subscriber),
		unregister:  make(chan Subscriber),
		done:        make(chan struct{}),
	}
}

// Register adds s to the hub. It fails once Run has returned.
func (h *Hub) Register(s Subscriber) error {
	select {
	case h.register <- s:
		return nil
	case <-h.done:
		return ErrHubClosed
	}
}

// Unregister removes s and closes it. Unknown or already removed subscribers are ignored.
func (h *Hub) Unregister(s Subscriber) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// Run consumes the broker until ctx ends. Every remaining subscriber is
// closed on return.
func (h *Hub) Run(ctx context.Context) error {
	events, cancel := h.broker.Subscribe(ctx)
	defer cancel()
	defer h.shutdown()

	h.logger.Info("Realtime hub started")
	for {
		select {
		case <-ctx.Done():
			return nil

		case s := <-h.register:
			h.subscribers[s.ID()] = s
			h.logger.Debug("Subscriber registered", zap.String("id", s.ID()), zap.String("topic", s.Topic()))

		case s := <-h.unregister:
			h.remove(s.ID())

		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("broker subscription closed")
			}
			h.dispatch(ev)
		}
	}
}

func (h *Hub) dispatch(ev models.ChangeEvent) {
	for id, s := range h.subscribers {
		if !ev.Matches(s.Topic()) {
			continue
		}
		select {
		case s.Send() <- ev:
		default:
			// Subscriber is not keeping up; drop it instead of stalling the hub.
			h.logger.Warn("Dropping slow subscriber", zap.String("id", id), zap.String("topic", s.Topic()))
			h.remove(id)
		}
	}
}

func (h *Hub) remove(id string) {
	s, ok := h.subscribers[id]
	if !ok {
		return
	}
	delete(h.subscribers, id)
	s.Close()
}

func (h *Hub) shutdown() {
	close(h.done)
	for id := range h.subscribers {
		h.remove(id)
	}
	h.logger.Info("Realtime hub stopped")
}
