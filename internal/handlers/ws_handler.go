package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/quizdeck/quiz-service/internal/auth"
	"github.com/quizdeck/quiz-service/internal/realtime"
	"github.com/quizdeck/quiz-service/internal/utils"
)

type WSHandler struct {
	BaseHandler
	hub      *realtime.Hub
	verifier auth.TokenVerifier
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *realtime.Hub, verifier auth.TokenVerifier, logger utils.Logger) *WSHandler {
	return &WSHandler{
		BaseHandler: NewBaseHandler(logger),
		hub:         hub,
		verifier:    verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeNotifications upgrades the request and keeps the connection
// registered for notification pushes until the client goes away.
//
// Authentication happens after the upgrade: browsers cannot set headers on
// WebSocket handshakes, so the token rides the query string and a bad token
// gets close code 1008 on the socket instead of an HTTP status.
func (h *WSHandler) ServeNotifications(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("WebSocket upgrade failed", "error", err)
		return
	}

	identity, err := h.verifier.Verify(c.Query("token"))
	if err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "authentication failed"),
			time.Now().Add(time.Second))
		conn.Close()
		return
	}

	registered := h.hub.Register(identity.UserID, conn)
	defer h.hub.Unregister(registered)

	h.logger.Info("Notification connection established",
		"user_id", identity.UserID,
		"connections", h.hub.ConnectionCount(identity.UserID))

	if err := registered.WriteJSON(realtime.NewAckFrame(identity.Username)); err != nil {
		return
	}

	// Read loop. The only inbound payload with meaning is the ping
	// keepalive; everything else is ignored. A read error means the client
	// is gone.
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			h.logger.Debug("Notification connection closed",
				"user_id", identity.UserID,
				"error", err)
			return
		}
		if string(payload) == realtime.PingPayload {
			if err := registered.WriteJSON(realtime.NewPongFrame()); err != nil {
				return
			}
		}
	}
}
