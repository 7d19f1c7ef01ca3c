package schedule

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kilianp07/kgc/core/events"
	"github.com/kilianp07/kgc/core/logger"
	"github.com/kilianp07/kgc/core/schedule"
	"github.com/kilianp07/kgc/internal/eventbus"
)

// Live message types.
const (
	MessageLoaded  = "loaded"
	MessageFailed  = "failed"
	MessageToggled = "toggled"
)

// LiveMessage is sent to WebSocket clients.
type LiveMessage struct {
	Type       string    `json:"type"`
	SnapshotID string    `json:"snapshotId,omitempty"`
	Records    int       `json:"records,omitempty"`
	Error      string    `json:"error,omitempty"`
	Column     string    `json:"column,omitempty"`
	Visible    *bool     `json:"visible,omitempty"`
	Time       time.Time `json:"time"`
}

// MessageFor maps a bus event to a live message. ok is false for events
// clients do not see.
func MessageFor(ev eventbus.Event) (LiveMessage, bool) {
	switch e := ev.(type) {
	case events.ScheduleLoaded:
		return LiveMessage{Type: MessageLoaded, SnapshotID: e.Snapshot.ID, Records: len(e.Snapshot.Records), Time: e.Snapshot.LoadedAt}, true
	case events.LoadFailed:
		msg := LiveMessage{Type: MessageFailed, Time: e.Time}
		if e.Err != nil {
			msg.Error = e.Err.Error()
		}
		return msg, true
	case events.ColumnToggled:
		v := e.Visible
		return LiveMessage{Type: MessageToggled, Column: string(e.Column), Visible: &v, Time: e.Time}, true
	}
	return LiveMessage{}, false
}

// Hub fans encoded live messages out to WebSocket clients. A slow client
// misses messages rather than blocking the others.
type Hub struct {
	store    *schedule.Store
	clients  *eventbus.TypedBus[[]byte]
	upgrader websocket.Upgrader
	ping     time.Duration
	log      logger.Logger
}

// NewHub creates a hub. Origins lists the allowed browser origins; "*"
// allows any and an empty list only allows same-origin requests.
func NewHub(store *schedule.Store, buffer int, ping time.Duration, origins []string, log logger.Logger) *Hub {
	if ping <= 0 {
		ping = 30 * time.Second
	}
	h := &Hub{
		store:   store,
		clients: eventbus.NewTyped[[]byte](buffer),
		ping:    ping,
		log:     logger.OrNop(log),
	}
	h.upgrader = websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 4096}
	if len(origins) > 0 {
		h.upgrader.CheckOrigin = checkOrigin(origins)
	}
	return h
}

func checkOrigin(origins []string) func(r *http.Request) bool {
	all := slices.Contains(origins, "*")
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || all {
			return true
		}
		if slices.Contains(origins, origin) {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int { return h.clients.Subscribers() }

// Broadcast encodes msg and queues it for every client.
func (h *Hub) Broadcast(msg LiveMessage) {
	b, err := json.Marshal(msg)
	if err != nil {
		h.log.Errorf("encode live message: %v", err)
		return
	}
	h.clients.Publish(b)
}

// Start relays bus events to clients until ctx is canceled or the bus is
// closed. Client connections are closed when it returns.
func (h *Hub) Start(ctx context.Context, bus eventbus.EventBus) <-chan struct{} {
	done := make(chan struct{})
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer h.clients.Close()
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if msg, ok := MessageFor(ev); ok {
					h.Broadcast(msg)
				}
			}
		}
	}()
	return done
}

// ServeWS upgrades the request and streams messages until the client goes
// away or the hub stops. The current snapshot, if any, is sent first.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("websocket upgrade: %v", err)
		return
	}
	sub := h.clients.Subscribe()
	defer h.clients.Unsubscribe(sub)
	defer func() { _ = conn.Close() }()

	if snap := h.store.Current(); snap != nil {
		hello := LiveMessage{Type: MessageLoaded, SnapshotID: snap.ID, Records: len(snap.Records), Time: snap.LoadedAt}
		if err := conn.WriteJSON(hello); err != nil {
			return
		}
	}

	// the read loop only detects closure; clients do not send messages
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.ping)
	defer ticker.Stop()
	for {
		select {
		case <-gone:
			return
		case b, ok := <-sub:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}
