package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cwrk-planet/voice-signal/internal/domain"
	"github.com/cwrk-planet/voice-signal/internal/protocol"
	"github.com/cwrk-planet/voice-signal/internal/registry"
)

var ErrStopped = errors.New("dispatcher stopped")

// Sender is the outbound side of the transport.
type Sender interface {
	// Send enqueues msg for conn without waiting for delivery.
	Send(conn domain.ConnID, msg protocol.Message) error
	// Close flushes what is queued for conn and closes it.
	Close(conn domain.ConnID) error
}

// LoginPolicy decides what happens when a user id that is already bound
// joins again from another connection.
type LoginPolicy string

const (
	LoginEvict  LoginPolicy = "evict"  // old connection is told, removed from its room and closed
	LoginReject LoginPolicy = "reject" // new join is refused
)

type Kind int

const (
	KindConnect Kind = iota
	KindMessage
	KindDisconnect
)

func (k Kind) String() string {
	switch k {
	case KindConnect:
		return "connect"
	case KindMessage:
		return "message"
	case KindDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// Inbound is one event handed over by the transport.
type Inbound struct {
	Conn domain.ConnID
	Kind Kind
	Data []byte
}

type Deps struct {
	Registry  *registry.Registry
	Directory *registry.Directory
	Seats     *registry.Seats
	Sender    Sender
}

type Options struct {
	QueueSize          int
	LoginPolicy        LoginPolicy
	AuthoritativeSeats bool

	// Now stamps chat messages; time.Now when nil.
	Now func() time.Time
}

// Dispatcher owns the event loop. Every inbound event is processed to
// completion, state changes and sends included, before the next one starts.
type Dispatcher struct {
	reg   *registry.Registry
	dir   *registry.Directory
	seats *registry.Seats
	out   Sender
	opts  Options

	in    chan Inbound
	done  chan struct{}
	stats *Stats

	// touched only by the worker goroutine
	lastChat map[domain.RoomID]time.Time
}

func NewDispatcher(deps Deps, opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1024
	}
	if opts.LoginPolicy == "" {
		opts.LoginPolicy = LoginEvict
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if deps.Seats == nil {
		deps.Seats = registry.NewSeats()
	}

	return &Dispatcher{
		reg:      deps.Registry,
		dir:      deps.Directory,
		seats:    deps.Seats,
		out:      deps.Sender,
		opts:     opts,
		in:       make(chan Inbound, opts.QueueSize),
		done:     make(chan struct{}),
		stats:    NewStats(),
		lastChat: make(map[domain.RoomID]time.Time),
	}
}

// Run drains the inbound queue until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer close(d.done)
	slog.Info("dispatcher started", "queue", cap(d.in), "login_policy", d.opts.LoginPolicy,
		"authoritative_seats", d.opts.AuthoritativeSeats)

	for {
		select {
		case <-ctx.Done():
			slog.Info("dispatcher stopped", "pending", len(d.in))
			return ctx.Err()
		case ev := <-d.in:
			d.handle(ev)
		}
	}
}

// Submit queues ev for the worker. It blocks while the queue is full.
func (d *Dispatcher) Submit(ctx context.Context, ev Inbound) error {
	select {
	case d.in <- ev:
		return nil
	case <-d.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) Stats() StatsSnapshot {
	return d.stats.Snapshot(d.reg.Len(), d.dir.Len())
}

func (d *Dispatcher) handle(ev Inbound) {
	switch ev.Kind {
	case KindConnect:
		d.stats.Connected()
		slog.Debug("ws connected", "conn", ev.Conn)
	case KindDisconnect:
		d.stats.Disconnected()
		d.disconnect(ev.Conn)
	case KindMessage:
		d.message(ev.Conn, ev.Data)
	default:
		slog.Warn("dispatcher: unknown inbound kind", "conn", ev.Conn, "kind", ev.Kind)
	}
}

func (d *Dispatcher) message(conn domain.ConnID, data []byte) {
	d.stats.Events.Add(1)

	ev, err := protocol.Decode(data)
	if err != nil {
		d.stats.Malformed.Add(1)
		slog.Warn("ws event rejected", "conn", conn, "err", err)
		d.replyError(conn, err)
		return
	}

	switch e := ev.(type) {
	case *protocol.JoinRoom:
		d.join(conn, e)
	case *protocol.Offer:
		d.relayToUser(conn, protocol.TypeOffer, e.TargetUserID, func(from domain.UserID) any {
			return protocol.RelayedOffer{FromUserID: string(from), Offer: e.Offer}
		})
	case *protocol.Answer:
		d.relayToUser(conn, protocol.TypeAnswer, e.TargetUserID, func(from domain.UserID) any {
			return protocol.RelayedAnswer{FromUserID: string(from), Answer: e.Answer}
		})
	case *protocol.ICECandidate:
		d.relayToUser(conn, protocol.TypeICECandidate, e.TargetUserID, func(from domain.UserID) any {
			return protocol.RelayedCandidate{FromUserID: string(from), Candidate: e.Candidate}
		})
	case *protocol.Signal:
		d.relayToConn(conn, e)
	case *protocol.SeatChange:
		d.seatChange(conn, e)
	case *protocol.Talking:
		d.talking(conn, e)
	case *protocol.Chat:
		d.chat(conn, e)
	case *protocol.Ping:
		d.ping(conn)
	}
}

// send is fire-and-forget: a failure is counted and logged, never retried.
func (d *Dispatcher) send(to domain.ConnID, msg protocol.Message) bool {
	if err := d.out.Send(to, msg); err != nil {
		d.stats.FailedSends.Add(1)
		slog.Debug("send failed", "conn", to, "type", msg.Type, "err", err)
		return false
	}
	d.stats.Deliveries.Add(1)
	return true
}

// broadcast sends msg to every member of room except skip and returns the
// number of successful enqueues.
func (d *Dispatcher) broadcast(room domain.RoomID, msg protocol.Message, skip domain.ConnID) int {
	n := 0
	for _, member := range d.dir.Members(room) {
		if member == skip {
			continue
		}
		if d.send(member, msg) {
			n++
		}
	}
	return n
}

func (d *Dispatcher) replyError(conn domain.ConnID, err error) {
	d.send(conn, protocol.Message{
		Type:    protocol.TypeError,
		Payload: protocol.ErrorPayload{Code: errorCode(err), Message: err.Error()},
	})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, protocol.ErrMalformedEvent):
		return "malformed-event"
	case errors.Is(err, protocol.ErrUnknownEvent):
		return "unknown-event"
	case errors.Is(err, domain.ErrNotJoined):
		return "not-joined"
	case errors.Is(err, domain.ErrSeatTaken):
		return "seat-taken"
	case errors.Is(err, domain.ErrNotSeatHolder):
		return "not-seat-holder"
	case errors.Is(err, domain.ErrDuplicateLogin):
		return "duplicate-login"
	default:
		return "internal"
	}
}

// sender resolves the bound session of conn or answers with not-joined.
func (d *Dispatcher) sender(conn domain.ConnID, typ string) (domain.UserSession, bool) {
	s, ok := d.reg.LookupByConnection(conn)
	if !ok {
		slog.Debug("event from unbound connection", "conn", conn, "type", typ)
		d.replyError(conn, domain.ErrNotJoined)
		return domain.UserSession{}, false
	}
	return s, true
}
