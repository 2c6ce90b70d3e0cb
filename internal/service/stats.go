package service

import (
	"sync/atomic"
	"time"
)

// Stats holds dispatcher counters. All fields are updated atomically so the
// HTTP status views can read them while the worker runs.
type Stats struct {
	startTime time.Time

	ActiveConnections atomic.Int64
	TotalConnections  atomic.Int64

	Events         atomic.Int64 // inbound messages
	Malformed      atomic.Int64 // rejected by the codec
	DroppedSignals atomic.Int64 // unresolvable signal target
	Deliveries     atomic.Int64 // outbound messages enqueued
	FailedSends    atomic.Int64
	ChatMessages   atomic.Int64
	Evictions      atomic.Int64 // duplicate logins that replaced a session
}

func NewStats() *Stats {
	return &Stats{startTime: time.Now()}
}

func (s *Stats) Connected() {
	s.ActiveConnections.Add(1)
	s.TotalConnections.Add(1)
}

func (s *Stats) Disconnected() {
	s.ActiveConnections.Add(-1)
}

type StatsSnapshot struct {
	Uptime        string `json:"uptime"`
	UptimeSeconds int64  `json:"uptime_seconds"`

	ActiveConnections int64 `json:"active_connections"`
	TotalConnections  int64 `json:"total_connections"`
	BoundSessions     int   `json:"bound_sessions"`
	ActiveRooms       int   `json:"active_rooms"`

	Events         int64 `json:"events"`
	Malformed      int64 `json:"malformed"`
	DroppedSignals int64 `json:"dropped_signals"`
	Deliveries     int64 `json:"deliveries"`
	FailedSends    int64 `json:"failed_sends"`
	ChatMessages   int64 `json:"chat_messages"`
	Evictions      int64 `json:"evictions"`
}

func (s *Stats) Snapshot(sessions, rooms int) StatsSnapshot {
	up := time.Since(s.startTime)
	return StatsSnapshot{
		Uptime:            up.Truncate(time.Second).String(),
		UptimeSeconds:     int64(up.Seconds()),
		ActiveConnections: s.ActiveConnections.Load(),
		TotalConnections:  s.TotalConnections.Load(),
		BoundSessions:     sessions,
		ActiveRooms:       rooms,
		Events:            s.Events.Load(),
		Malformed:         s.Malformed.Load(),
		DroppedSignals:    s.DroppedSignals.Load(),
		Deliveries:        s.Deliveries.Load(),
		FailedSends:       s.FailedSends.Load(),
		ChatMessages:      s.ChatMessages.Load(),
		Evictions:         s.Evictions.Load(),
	}
}
