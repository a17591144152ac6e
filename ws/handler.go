// Package ws serves live connections over WebSocket.
package ws

import (
	"context"
	"direct-chat/api"
	"direct-chat/auth"
	"direct-chat/errors"
	"direct-chat/services"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	maxFrameSize = 64 * 1024
)

type Handler struct {
	log        *slog.Logger
	chat       services.IChatService
	tokens     auth.TokenValidator
	upgrader   websocket.Upgrader
	bufferSize int
}

func NewHandler(log *slog.Logger, chat services.IChatService, tokens auth.TokenValidator, bufferSize int) *Handler {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &Handler{
		log:    log,
		chat:   chat,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Clients are authenticated by token, not by origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		bufferSize: bufferSize,
	}
}

// ServeHTTP authenticates, binds then upgrades. The party is bound before the
// handshake completes so nothing sent right after connecting is missed.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = auth.BearerToken(r.Header.Get("Authorization"))
	}
	identity, err := h.tokens.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	c := newConnection(h.log, identity, h.bufferSize)
	h.chat.Connect(identity, c)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.chat.Disconnect(c)
		c.Close()
		h.log.Debug("Upgrade failed", "identity", identity, "error", err)
		return
	}
	c.conn = conn
	c.log.Debug("Connection opened")

	go c.writePump()
	h.readPump(r.Context(), c)
}

// readPump handles send events one at a time, a party's messages are persisted in the order it sent them.
func (h *Handler) readPump(ctx context.Context, c *Connection) {
	defer func() {
		h.chat.Disconnect(c)
		c.Close()
		c.log.Debug("Connection closed")
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("Unexpected close", "error", err)
			}
			return
		}
		h.handleFrame(ctx, c, frame)
	}
}

func (h *Handler) handleFrame(ctx context.Context, c *Connection, frame []byte) {
	envelope, err := api.Decode(frame)
	if err != nil {
		c.reply(api.EventError, api.FromError(err))
		return
	}

	switch envelope.Event {
	case api.EventSendMessage:
		var payload api.SendMessage
		if err = json.Unmarshal(envelope.Data, &payload); err != nil {
			c.reply(api.EventError, api.FromError(fmt.Errorf("%w: %v", errors.ErrMalformedRequest, err)))
			return
		}
		cmd, err := payload.ToCommand(c.identity)
		if err != nil {
			c.reply(api.EventError, api.FromError(err))
			return
		}
		report, err := h.chat.Send(ctx, cmd)
		if err != nil {
			c.reply(api.EventError, api.FromError(err))
			return
		}
		c.reply(api.EventMessageAccepted, api.FromReport(report))
	default:
		c.reply(api.EventError, api.FromError(
			fmt.Errorf("%w: unknown event %q", errors.ErrMalformedRequest, envelope.Event)))
	}
}
