package realtime_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smartcampus/backend/internal/models"
	"smartcampus/backend/internal/realtime"
)

func TestWebSocketSubscriber_StreamsEvents(t *testing.T) {
	hub, broker, stop := startHub(t)
	defer stop()

	upgrader := websocket.Upgrader{}
	registered := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		sub := realtime.NewWebSocketSubscriber(conn, hub, r.URL.Query().Get("topic"), "uid-1", zap.NewNop())
		if err := hub.Register(sub); err != nil {
			conn.Close()
			return
		}
		sub.Run()
		close(registered)
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/?topic=" + models.CommentsTopic("c1")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	select {
	case <-registered:
	case <-time.After(time.Second):
		t.Fatal("subscriber not registered")
	}

	ev := models.ChangeEvent{
		Topic:       models.CommentsTopic("c1"),
		Kind:        models.ChangeCreated,
		ComplaintID: "c1",
		Comment:     &models.Comment{ID: "m1", Text: "me too"},
	}
	require.NoError(t, broker.Publish(context.Background(), ev))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got models.ChangeEvent
	require.NoError(t, conn.ReadJSON(&got))

	assert.Equal(t, models.ChangeCreated, got.Kind)
	require.NotNil(t, got.Comment)
	assert.Equal(t, "me too", got.Comment.Text)
}
