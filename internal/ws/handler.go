// Package ws streams change-feed envelopes to UI clients over a
// websocket. Each connection holds its own feed subscription; there is
// no fan-out hub because the feed itself already multiplexes.
package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"ebox-messaging/internal/reconciler"
	"ebox-messaging/internal/services"
	"ebox-messaging/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Handler struct {
	feed reconciler.Feed
	log  *logger.Logger
}

func NewHandler(feed reconciler.Feed, log *logger.Logger) *Handler {
	return &Handler{feed: feed, log: log}
}

func (h *Handler) Serve(c *gin.Context) {
	if _, ok := services.IdentityFromContext(c.Request.Context()); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Errorf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	out := make(chan []byte, 64)
	go func() {
		defer cancel()
		err := h.feed.Subscribe(ctx, []string{"feed.*"}, func(channel string, payload []byte) {
			select {
			case out <- payload:
			default:
				// Slow consumer; drop rather than block the feed.
			}
		})
		if err != nil && ctx.Err() == nil {
			h.log.Errorf("websocket feed subscription ended: %v", err)
		}
	}()

	// Drain client frames so close/ping handling works.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-out:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
