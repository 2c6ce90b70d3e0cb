package protocol

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecode_Valid(t *testing.T) {
	seat := 3
	tests := []struct {
		name string
		in   string
		want Event
	}{
		{
			name: "join",
			in:   `{"type":"join-room","payload":{"roomId":"r1","userId":"u1","username":"Ann","avatar":"a.png"}}`,
			want: &JoinRoom{RoomID: "r1", UserID: "u1", Username: "Ann", Avatar: "a.png"},
		},
		{
			name: "offer keeps body opaque",
			in:   `{"type":"offer","payload":{"targetUserId":"u2","offer":{"type":"offer","sdp":"v=0"}}}`,
			want: &Offer{TargetUserID: "u2", Offer: json.RawMessage(`{"type":"offer","sdp":"v=0"}`)},
		},
		{
			name: "ice candidate",
			in:   `{"type":"ice-candidate","payload":{"targetUserId":"u2","candidate":{"candidate":"c"}}}`,
			want: &ICECandidate{TargetUserID: "u2", Candidate: json.RawMessage(`{"candidate":"c"}`)},
		},
		{
			name: "connection addressed signal",
			in:   `{"type":"signal","payload":{"target":"c9","type":"candidate","candidate":{"c":1}}}`,
			want: &Signal{Target: "c9", Kind: "candidate", Candidate: json.RawMessage(`{"c":1}`)},
		},
		{
			name: "seat taken",
			in:   `{"type":"seat-taken","payload":{"roomId":"r1","seatNumber":3}}`,
			want: &SeatChange{Kind: TypeSeatTaken, RoomID: "r1", SeatNumber: &seat},
		},
		{
			name: "ping without payload",
			in:   `{"type":"ping"}`,
			want: &Ping{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.in))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"not json", `{`, ErrMalformedEvent},
		{"missing type", `{"payload":{}}`, ErrMalformedEvent},
		{"unknown type", `{"type":"dance"}`, ErrUnknownEvent},
		{"join without room", `{"type":"join-room","payload":{"userId":"u1"}}`, ErrMalformedEvent},
		{"join without user", `{"type":"join-room","payload":{"roomId":"r1"}}`, ErrMalformedEvent},
		{"offer without target", `{"type":"offer","payload":{"offer":{}}}`, ErrMalformedEvent},
		{"answer without body", `{"type":"answer","payload":{"targetUserId":"u2"}}`, ErrMalformedEvent},
		{"bad field type", `{"type":"chat-message","payload":{"message":5}}`, ErrMalformedEvent},
		{"blank chat", `{"type":"chat-message","payload":{"message":"   "}}`, ErrMalformedEvent},
		{"seat without number", `{"type":"leave-seat","payload":{"roomId":"r1"}}`, ErrMalformedEvent},
		{"negative seat", `{"type":"seat-taken","payload":{"seatNumber":-1}}`, ErrMalformedEvent},
		{"signal bad kind", `{"type":"signal","payload":{"target":"c1","type":"hello"}}`, ErrMalformedEvent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.in))
			if !errors.Is(err, tt.want) {
				t.Fatalf("want %v, got %v", tt.want, err)
			}
		})
	}
}

func TestDecode_ChatTooLong(t *testing.T) {
	msg := Message{Type: TypeChatMessage, Payload: Chat{Message: strings.Repeat("x", MaxChatLength+1)}}
	data, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := Decode(data); !errors.Is(err, ErrMalformedEvent) {
		t.Fatalf("want ErrMalformedEvent, got %v", err)
	}
}

func TestEncode_PongHasNoPayload(t *testing.T) {
	data, err := Encode(Message{Type: TypePong})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(data) != `{"type":"pong"}` {
		t.Fatalf("unexpected encoding: %s", data)
	}
}
