package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedEvent = errors.New("malformed event")
	ErrUnknownEvent   = errors.New("unknown event type")
)

// Event is a decoded, validated inbound payload.
type Event interface {
	EventType() string
	Validate() error
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Decode parses one inbound frame into its typed payload and validates it.
// The returned error wraps ErrMalformedEvent or ErrUnknownEvent.
func Decode(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	var ev Event
	switch env.Type {
	case TypeJoinRoom:
		ev = &JoinRoom{}
	case TypeOffer:
		ev = &Offer{}
	case TypeAnswer:
		ev = &Answer{}
	case TypeICECandidate:
		ev = &ICECandidate{}
	case TypeSignal:
		ev = &Signal{}
	case TypeSeatTaken, TypeLeaveSeat:
		ev = &SeatChange{Kind: env.Type}
	case TypeUserTalking:
		ev = &Talking{}
	case TypeChatMessage:
		ev = &Chat{}
	case TypePing:
		ev = &Ping{}
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformedEvent)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}

	if !isEmpty(env.Payload) {
		if err := json.Unmarshal(env.Payload, ev); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedEvent, env.Type, err)
		}
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return ev, nil
}

// Encode serialises an outbound message.
func Encode(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

func isEmpty(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func malformed(typ, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformedEvent, typ, reason)
}

func (*JoinRoom) EventType() string     { return TypeJoinRoom }
func (*Offer) EventType() string        { return TypeOffer }
func (*Answer) EventType() string       { return TypeAnswer }
func (*ICECandidate) EventType() string { return TypeICECandidate }
func (*Signal) EventType() string       { return TypeSignal }
func (s *SeatChange) EventType() string { return s.Kind }
func (*Talking) EventType() string      { return TypeUserTalking }
func (*Chat) EventType() string         { return TypeChatMessage }
func (*Ping) EventType() string         { return TypePing }

func (j *JoinRoom) Validate() error {
	if strings.TrimSpace(j.RoomID) == "" {
		return malformed(TypeJoinRoom, "roomId is required")
	}
	if strings.TrimSpace(j.UserID) == "" {
		return malformed(TypeJoinRoom, "userId is required")
	}
	return nil
}

func (o *Offer) Validate() error {
	return validateRelay(TypeOffer, o.TargetUserID, "offer", o.Offer)
}

func (a *Answer) Validate() error {
	return validateRelay(TypeAnswer, a.TargetUserID, "answer", a.Answer)
}

func (c *ICECandidate) Validate() error {
	return validateRelay(TypeICECandidate, c.TargetUserID, "candidate", c.Candidate)
}

func validateRelay(typ, target, field string, body json.RawMessage) error {
	if strings.TrimSpace(target) == "" {
		return malformed(typ, "targetUserId is required")
	}
	if isEmpty(body) {
		return malformed(typ, field+" is required")
	}
	return nil
}

func (s *Signal) Validate() error {
	if strings.TrimSpace(s.Target) == "" {
		return malformed(TypeSignal, "target is required")
	}
	switch s.Kind {
	case "offer", "answer":
		if isEmpty(s.SDP) {
			return malformed(TypeSignal, "sdp is required")
		}
	case "candidate":
		if isEmpty(s.Candidate) {
			return malformed(TypeSignal, "candidate is required")
		}
	default:
		return malformed(TypeSignal, fmt.Sprintf("unsupported signal type %q", s.Kind))
	}
	return nil
}

func (s *SeatChange) Validate() error {
	if s.SeatNumber == nil {
		return malformed(s.Kind, "seatNumber is required")
	}
	if *s.SeatNumber < 0 {
		return malformed(s.Kind, "seatNumber must not be negative")
	}
	return nil
}

func (*Talking) Validate() error { return nil }

func (c *Chat) Validate() error {
	text := strings.TrimSpace(c.Message)
	if text == "" {
		return malformed(TypeChatMessage, "message is empty")
	}
	if len(text) > MaxChatLength {
		return malformed(TypeChatMessage, "message too long")
	}
	return nil
}

func (*Ping) Validate() error { return nil }
