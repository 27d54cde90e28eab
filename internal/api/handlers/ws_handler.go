package handlers

import (
	"log/slog"

	gws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/oneboxhq/onebox-backend/internal/websocket"
)

// WSHandler upgrades HTTP requests to WebSocket connections for live
// email push.
type WSHandler struct {
	hub      *websocket.Hub
	logger   *slog.Logger
	upgrader gws.Upgrader
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(hub *websocket.Hub, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		hub:      hub,
		logger:   logger,
		upgrader: websocket.NewSecureUpgrader(logger),
	}
}

// Serve handles GET /ws. An optional account query parameter scopes
// the initial subscription; without it the client receives pushes for
// every account. Clients can change subscriptions over the socket.
func (h *WSHandler) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return nil
	}

	client := websocket.NewClient(h.hub, conn, h.logger)
	h.hub.Register(client)

	account := c.QueryParam("account")
	if account == "" {
		account = websocket.AllAccounts
	}
	h.hub.Subscribe(client, account)

	go client.WritePump()
	go client.ReadPump()
	return nil
}
