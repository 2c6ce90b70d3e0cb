package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cwrk-planet/voice-signal/internal/domain"
	"github.com/cwrk-planet/voice-signal/internal/service"
	"github.com/cwrk-planet/voice-signal/internal/transport/ws"
)

type fakeStats struct{ snap service.StatsSnapshot }

func (f fakeStats) Stats() service.StatsSnapshot { return f.snap }

type fakeRooms struct{ rooms []domain.RoomInfo }

func (f fakeRooms) Rooms() []domain.RoomInfo { return f.rooms }
func (f fakeRooms) Len() int                 { return len(f.rooms) }

type fakeConns int

func (f fakeConns) Len() int { return int(f) }

type nopSubmitter struct{}

func (nopSubmitter) Submit(context.Context, service.Inbound) error { return nil }

func newTestRouter() http.Handler {
	h := NewHandler(
		fakeStats{snap: service.StatsSnapshot{Uptime: "1m0s", Events: 42, DroppedSignals: 3}},
		fakeRooms{rooms: []domain.RoomInfo{{ID: "lobby", Members: 2}, {ID: "<script>", Members: 1}}},
		fakeConns(5),
	)
	wsServer := ws.NewServer(ws.NewHub(), nopSubmitter{}, ws.Config{AllowedOrigins: []string{"*"}})
	return NewRouter(h, wsServer, []string{"*"})
}

func TestStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status code: %d", rec.Code)
	}
	var resp StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v (%s)", err, rec.Body.String())
	}
	if resp.Status != "ok" || resp.ActiveConnections != 5 || resp.ActiveRooms != 2 {
		t.Fatalf("unexpected status: %+v", resp)
	}
	if resp.Uptime < 0 {
		t.Fatalf("uptime must not be negative: %v", resp.Uptime)
	}
}

func TestDashboard(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	body := rec.Body.String()
	if rec.Code != http.StatusOK {
		t.Fatalf("status code: %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("content type: %q", rec.Header().Get("Content-Type"))
	}
	for _, want := range []string{"lobby", "5 connections", "events: 42", "dropped signals: 3", "&lt;script&gt;"} {
		if !strings.Contains(body, want) {
			t.Fatalf("dashboard missing %q:\n%s", want, body)
		}
	}
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rec.Code, rec.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/status", nil)
	req.Header.Set("Origin", "https://client.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()

	newTestRouter().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin: %q", got)
	}
}
