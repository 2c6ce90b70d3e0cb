package ws

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cwrk-planet/voice-signal/internal/domain"
	"github.com/cwrk-planet/voice-signal/internal/service"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Submitter accepts inbound events; implemented by service.Dispatcher.
type Submitter interface {
	Submit(ctx context.Context, ev service.Inbound) error
}

type Config struct {
	ReadLimit      int64
	SendBuffer     int
	WriteWait      time.Duration
	AllowedOrigins []string // "*" allows any origin
}

type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	events   Submitter
	cfg      Config
}

func NewServer(hub *Hub, events Submitter, cfg Config) *Server {
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = 64 * 1024 // enough for SDP
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 256
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = 10 * time.Second
	}

	s := &Server{
		hub:    hub,
		events: events,
		cfg:    cfg,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.cfg.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// HandleWS serves GET /ws. The handler blocks for the lifetime of the socket.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		slog.Warn("ws upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	c := newWsConn(domain.ConnID(uuid.NewString()), conn, s.cfg.SendBuffer, s.cfg.WriteWait)
	s.hub.Add(c)
	slog.Debug("ws open", "conn", c.id, "remote", r.RemoteAddr)

	ctx := r.Context()
	if err := s.events.Submit(ctx, service.Inbound{Conn: c.id, Kind: service.KindConnect}); err != nil {
		slog.Warn("ws connect not dispatched", "conn", c.id, "err", err)
		s.hub.Remove(c.id)
		_ = conn.Close()
		return
	}

	go c.writeLoop()
	s.readLoop(ctx, c)

	s.hub.Remove(c.id)
	c.shutdown()
	<-c.done

	// the disconnect must reach the dispatcher even if the request context is gone
	if err := s.events.Submit(context.Background(), service.Inbound{Conn: c.id, Kind: service.KindDisconnect}); err != nil {
		slog.Debug("ws disconnect not dispatched", "conn", c.id, "err", err)
	}
	slog.Debug("ws closed", "conn", c.id)
}

func (s *Server) readLoop(ctx context.Context, c *wsConn) {
	c.conn.SetReadLimit(s.cfg.ReadLimit)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				slog.Debug("ws read failed", "conn", c.id, "err", err)
			}
			return
		}

		if err := s.events.Submit(ctx, service.Inbound{Conn: c.id, Kind: service.KindMessage, Data: data}); err != nil {
			slog.Warn("ws event not dispatched", "conn", c.id, "err", err)
			return
		}
	}
}
