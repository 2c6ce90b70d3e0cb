package ws

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cwrk-planet/voice-signal/internal/domain"

	"github.com/gorilla/websocket"
)

var (
	ErrSendBufferFull = errors.New("send buffer full")
	ErrConnClosed     = errors.New("connection closed")
)

type wsConn struct {
	id        domain.ConnID
	conn      *websocket.Conn
	writeWait time.Duration

	send    chan []byte // encoded frames, never closed
	closing chan struct{}
	once    sync.Once
	done    chan struct{} // closed when the write loop exits
}

func newWsConn(id domain.ConnID, c *websocket.Conn, buffer int, writeWait time.Duration) *wsConn {
	return &wsConn{
		id:        id,
		conn:      c,
		writeWait: writeWait,
		send:      make(chan []byte, buffer),
		closing:   make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// enqueue drops instead of blocking so that one slow peer never stalls the
// dispatcher.
func (c *wsConn) enqueue(data []byte) error {
	select {
	case <-c.closing:
		return ErrConnClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (c *wsConn) shutdown() {
	c.once.Do(func() { close(c.closing) })
}

// writeLoop is the only writer of the socket.
func (c *wsConn) writeLoop() {
	defer close(c.done)
	defer func() { _ = c.conn.Close() }()

	for {
		select {
		case data := <-c.send:
			if err := c.write(data); err != nil {
				slog.Debug("ws write failed", "conn", c.id, "err", err)
				return
			}
		case <-c.closing:
			c.flush()
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.writeWait))
			return
		}
	}
}

// flush writes whatever is still queued.
func (c *wsConn) flush() {
	for {
		select {
		case data := <-c.send:
			if err := c.write(data); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *wsConn) write(data []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}
