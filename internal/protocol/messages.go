package protocol

import (
	"encoding/json"
	"time"
)

// Event types exchanged over the socket.
const (
	TypeJoinRoom         = "join-room"
	TypeUserJoined       = "user-joined"
	TypeRoomUsers        = "room-users"
	TypeOffer            = "offer"
	TypeAnswer           = "answer"
	TypeICECandidate     = "ice-candidate"
	TypeSignal           = "signal" // connection-addressed offer/answer/candidate
	TypeSeatTaken        = "seat-taken"
	TypeLeaveSeat        = "leave-seat"
	TypeSeatUpdateNeeded = "seat-update-needed"
	TypeUserTalking      = "user-talking"
	TypeChatMessage      = "chat-message"
	TypeUserLeft         = "user-left"
	TypePing             = "ping"
	TypePong             = "pong"
	TypeError            = "error"
	TypeSessionReplaced  = "session-replaced"
)

// MaxChatLength caps a chat message in bytes.
const MaxChatLength = 4000

// Message is the outbound envelope.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// --- client -> server ---

type JoinRoom struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type Offer struct {
	TargetUserID string          `json:"targetUserId"`
	Offer        json.RawMessage `json:"offer"`
}

type Answer struct {
	TargetUserID string          `json:"targetUserId"`
	Answer       json.RawMessage `json:"answer"`
}

type ICECandidate struct {
	TargetUserID string          `json:"targetUserId"`
	Candidate    json.RawMessage `json:"candidate"`
}

// Signal addresses a peer by connection id instead of user id.
type Signal struct {
	Target    string          `json:"target"`
	Kind      string          `json:"type"` // offer|answer|candidate
	SDP       json.RawMessage `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// SeatChange is the payload of both seat-taken and leave-seat.
type SeatChange struct {
	Kind       string `json:"-"`
	RoomID     string `json:"roomId"`
	SeatNumber *int   `json:"seatNumber"`
}

type Talking struct {
	RoomID     string `json:"roomId"`
	SeatNumber int    `json:"seatNumber"`
	IsTalking  bool   `json:"isTalking"`
	UserID     string `json:"userId"`
}

type Chat struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Message  string `json:"message"`
}

type Ping struct{}

// --- server -> client ---

// ConnID in presence payloads is the address a peer uses as Signal.Target.

type UserJoined struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	ConnID   string `json:"connId"`
}

// RoomUser is one entry of room-users. SeatNumber is only filled when the
// server keeps the seat table.
type RoomUser struct {
	UserID     string `json:"userId"`
	Username   string `json:"username"`
	Avatar     string `json:"avatar"`
	RoomID     string `json:"roomId"`
	ConnID     string `json:"connId"`
	SeatNumber *int   `json:"seatNumber,omitempty"`
}

type RelayedOffer struct {
	FromUserID string          `json:"fromUserId"`
	Offer      json.RawMessage `json:"offer"`
}

type RelayedAnswer struct {
	FromUserID string          `json:"fromUserId"`
	Answer     json.RawMessage `json:"answer"`
}

type RelayedCandidate struct {
	FromUserID string          `json:"fromUserId"`
	Candidate  json.RawMessage `json:"candidate"`
}

type RelayedSignal struct {
	From      string          `json:"from"`
	Target    string          `json:"target"`
	Kind      string          `json:"type"`
	SDP       json.RawMessage `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// SeatUpdate tells clients to resync seat state. SeatNumber is empty when
// the change comes from a disconnect.
type SeatUpdate struct {
	RoomID     string `json:"roomId"`
	SeatNumber *int   `json:"seatNumber,omitempty"`
}

type ChatOut struct {
	RoomID    string    `json:"roomId"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type UserLeft struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	ConnID   string `json:"connId"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SessionReplaced struct {
	UserID string `json:"userId"`
}
