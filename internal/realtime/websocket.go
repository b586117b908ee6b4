package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"smartcampus/backend/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

// WebSocketSubscriber streams the events of one topic to a websocket client.
// The connection is read only to notice that the client went away.
type WebSocketSubscriber struct {
	id     string
	topic  string
	uid    string
	conn   *websocket.Conn
	hub    *Hub
	send   chan models.ChangeEvent
	logger *zap.Logger

	closeOnce sync.Once
}

func NewWebSocketSubscriber(conn *websocket.Conn, hub *Hub, topic, uid string, logger *zap.Logger) *WebSocketSubscriber {
	return &WebSocketSubscriber{
		id:     uuid.New().String(),
		topic:  topic,
		uid:    uid,
		conn:   conn,
		hub:    hub,
		send:   make(chan models.ChangeEvent, sendBuffer),
		logger: logger,
	}
}

func (s *WebSocketSubscriber) ID() string                      { return s.id }
func (s *WebSocketSubscriber) Topic() string                   { return s.topic }
func (s *WebSocketSubscriber) Send() chan<- models.ChangeEvent { return s.send }

// Run запускає 'pumps' для WebSocket
func (s *WebSocketSubscriber) Run() {
	go s.writePump()
	go s.readPump()
}

// Close закриває send канал (що зупинить writePump)
func (s *WebSocketSubscriber) Close() {
	s.closeOnce.Do(func() { close(s.send) })
}

func (s *WebSocketSubscriber) readPump() {
	defer func() {
		s.hub.Unregister(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Debug("Websocket read failed", zap.String("uid", s.uid), zap.Error(err))
			}
			return
		}
	}
}

func (s *WebSocketSubscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the subscription.
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteJSON(ev); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
