package domain

import "time"

// ConnID identifies one live transport session. It is assigned by the
// transport and never reused.
type ConnID string

// UserID is supplied by the client and stays stable across reconnects.
type UserID string

// UserSession is the identity bound to a connection after join-room.
type UserSession struct {
	UserID   UserID
	Username string
	Avatar   string
	RoomID   RoomID
	ConnID   ConnID
	JoinedAt time.Time
}
