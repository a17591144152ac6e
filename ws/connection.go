package ws

import (
	"context"
	"direct-chat/api"
	"direct-chat/contract"
	"direct-chat/domain"
	"direct-chat/errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var _ contract.Connection = (*Connection)(nil)

// Connection is one authenticated socket. Only the write pump writes data frames,
// everything else enqueues on send.
type Connection struct {
	id        string
	identity  domain.PartyID
	log       *slog.Logger
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newConnection(log *slog.Logger, identity domain.PartyID, bufferSize int) *Connection {
	id := uuid.NewString()
	return &Connection{
		id:       id,
		identity: identity,
		log:      log.With("connection", id, "identity", identity),
		send:     make(chan []byte, bufferSize),
		done:     make(chan struct{}),
	}
}

func (c *Connection) ID() string {
	return c.id
}

// Push enqueues a receiveMessage frame. It fails fast once the socket is closed
// and gives up when ctx expires with a full buffer.
func (c *Connection) Push(ctx context.Context, message domain.Message) error {
	frame, err := api.Encode(api.EventReceiveMessage, api.FromMessage(message))
	if err != nil {
		return err
	}
	return c.enqueue(ctx, frame)
}

func (c *Connection) enqueue(ctx context.Context, frame []byte) error {
	select {
	case <-c.done:
		return errors.ErrConnectionClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return errors.ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// reply answers the sender on its own socket, bounded by writeWait.
func (c *Connection) reply(event string, data any) {
	frame, err := api.Encode(event, data)
	if err != nil {
		c.log.Error("Failed to encode reply", "event", event, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	if err = c.enqueue(ctx, frame); err != nil {
		c.log.Debug("Reply dropped", "event", event, "error", err)
	}
}

// Close is idempotent. The send channel is never closed so late pushes cannot panic.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Debug("Write failed, closing", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
