package handler

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"smartcampus/backend/internal/complaint"
	"smartcampus/backend/internal/models"
	"smartcampus/backend/internal/realtime"
)

// validTopic accepts "complaints", "users" and the per-complaint topics
// "complaint:<id>", "complaint:<id>:comments", "complaint:<id>:notes".
func validTopic(topic string) bool {
	switch topic {
	case models.TopicComplaints, models.TopicUsers:
		return true
	}
	rest, ok := strings.CutPrefix(topic, "complaint:")
	if !ok {
		return false
	}
	id, suffix, _ := strings.Cut(rest, ":")
	if id == "" {
		return false
	}
	return suffix == "" || suffix == "comments" || suffix == "notes"
}

func (h *Handler) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || slices.Contains(h.AllowedOrigins, "*") {
				return true
			}
			return slices.Contains(h.AllowedOrigins, origin)
		},
	}
}

// ServeWebSocket оновлює HTTP-з'єднання до WebSocket і підписує клієнта на topic
func (h *Handler) ServeWebSocket(c *gin.Context) {
	caller := callerFrom(c)
	topic := c.DefaultQuery("topic", models.TopicComplaints)
	if !validTopic(topic) {
		h.writeError(c, complaint.InvalidRequest(nil))
		return
	}
	if models.IsAdminTopic(topic) && !caller.IsAdmin() {
		h.writeError(c, complaint.PermissionDenied())
		return
	}

	conn, err := h.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.Logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	sub := realtime.NewWebSocketSubscriber(conn, h.Hub, topic, caller.UID, h.Logger)
	if err := h.Hub.Register(sub); err != nil {
		h.Logger.Warn("Hub rejected subscriber", zap.Error(err))
		conn.Close()
		return
	}
	sub.Run()
}
