package handlers

import (
	"errors"
	"net"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/solarops/dispatch/internal/infrastructure/logger"
	"github.com/solarops/dispatch/internal/infrastructure/realtime"
)

type RealtimeHandler struct {
	hub      *realtime.Hub
	logger   *logger.Logger
	pongWait time.Duration
}

// NewRealtimeHandler drops a peer that sends nothing, pongs included, for
// pongWait. Zero disables the read deadline.
func NewRealtimeHandler(hub *realtime.Hub, logger *logger.Logger, pongWait time.Duration) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, logger: logger, pongWait: pongWait}
}

// Handle keeps the connection registered until the peer goes away. The
// channel is push-only; inbound frames are read and discarded.
func (h *RealtimeHandler) Handle(c *websocket.Conn) {
	client := h.hub.Register(c)
	defer h.hub.Unregister(client)

	if h.pongWait > 0 {
		_ = c.SetReadDeadline(time.Now().Add(h.pongWait))
		c.SetPongHandler(func(string) error {
			return c.SetReadDeadline(time.Now().Add(h.pongWait))
		})
	}

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			var netErr net.Error
			switch {
			case errors.As(err, &netErr) && netErr.Timeout():
				h.logger.Infow("realtime_peer_timeout", "client_id", client.ID, "pong_wait", h.pongWait)
			case websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure):
				h.logger.Debugw("realtime_read_failed", "client_id", client.ID, "error", err)
			}
			return
		}
		if h.pongWait > 0 {
			_ = c.SetReadDeadline(time.Now().Add(h.pongWait))
		}
	}
}

func (h *RealtimeHandler) Stats(c *fiber.Ctx) error {
	return c.JSON(h.hub.Stats())
}
