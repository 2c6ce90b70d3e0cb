package http

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/cwrk-planet/voice-signal/internal/domain"
	"github.com/cwrk-planet/voice-signal/internal/service"
	httpmw "github.com/cwrk-planet/voice-signal/internal/transport/http/middleware"
)

type StatsSource interface {
	Stats() service.StatsSnapshot
}

type RoomLister interface {
	Rooms() []domain.RoomInfo
	Len() int
}

type ConnCounter interface {
	Len() int
}

type Handler struct {
	stats   StatsSource
	rooms   RoomLister
	conns   ConnCounter
	started time.Time
}

func NewHandler(stats StatsSource, rooms RoomLister, conns ConnCounter) *Handler {
	return &Handler{
		stats:   stats,
		rooms:   rooms,
		conns:   conns,
		started: time.Now(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type StatusResponse struct {
	Status            string  `json:"status"`
	Uptime            float64 `json:"uptime"` // seconds
	ActiveConnections int     `json:"activeConnections"`
	ActiveRooms       int     `json:"activeRooms"`
}

// GET /status
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:            "ok",
		Uptime:            time.Since(h.started).Seconds(),
		ActiveConnections: h.conns.Len(),
		ActiveRooms:       h.rooms.Len(),
	})
}

type dashboardView struct {
	Connections int
	Rooms       []domain.RoomInfo
	Stats       service.StatsSnapshot
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>voice-signal</title><meta http-equiv="refresh" content="5"></head>
<body>
<h1>voice-signal</h1>
<p>Uptime {{.Stats.Uptime}} &middot; {{.Connections}} connections &middot; {{len .Rooms}} rooms</p>
<table border="1" cellpadding="4">
<tr><th>Room</th><th>Members</th></tr>
{{range .Rooms}}<tr><td>{{.ID}}</td><td>{{.Members}}</td></tr>
{{else}}<tr><td colspan="2">no active rooms</td></tr>
{{end}}</table>
<h2>Counters</h2>
<ul>
<li>events: {{.Stats.Events}}</li>
<li>malformed: {{.Stats.Malformed}}</li>
<li>dropped signals: {{.Stats.DroppedSignals}}</li>
<li>deliveries: {{.Stats.Deliveries}}</li>
<li>failed sends: {{.Stats.FailedSends}}</li>
<li>chat messages: {{.Stats.ChatMessages}}</li>
<li>replaced sessions: {{.Stats.Evictions}}</li>
</ul>
</body>
</html>
`))

// GET /
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	view := dashboardView{
		Connections: h.conns.Len(),
		Rooms:       h.rooms.Rooms(),
		Stats:       h.stats.Stats(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, view); err != nil {
		httpmw.L(r.Context()).Error("handler.Dashboard:", "err", err)
	}
}
