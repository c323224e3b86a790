// Package ops declares the operational HTTP surface.
package ops

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/podium/internal/domain/types"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// TopSource supplies leaderboard snapshots for broadcasting.
type TopSource interface {
	TopN(ctx context.Context, n int) []types.Entry
}

// Default live feed configuration constants.
const (
	defaultLiveTopN    = 10
	defaultMinInterval = 250 * time.Millisecond
	writeWait          = 5 * time.Second
)

// Snapshot is one live feed frame.
type Snapshot struct {
	Top []types.Entry `json:"top"`
}

// Hub broadcasts leaderboard snapshots to websocket subscribers. Bursts
// of accepted updates are coalesced: the pump pulls one fresh snapshot
// per interval no matter how many notifications arrived.
type Hub struct {
	source      TopSource
	topN        int
	minInterval time.Duration

	kick chan struct{}

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}

	logger logger.Logger
}

// HubOption applies a configuration option to the Hub.
type HubOption func(*Hub)

// WithLiveTopN sets how many entries each frame carries.
func WithLiveTopN(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.topN = n
		}
	}
}

// WithMinInterval sets the broadcast coalescing interval.
func WithMinInterval(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.minInterval = d
		}
	}
}

// NewHub creates a Hub reading snapshots from source.
func NewHub(source TopSource, opts ...HubOption) *Hub {
	h := &Hub{
		source:      source,
		topN:        defaultLiveTopN,
		minInterval: defaultMinInterval,
		kick:        make(chan struct{}, 1),
		clients:     make(map[*websocket.Conn]struct{}),
	}

	for _, opt := range opts {
		opt(h)
	}

	h.logger = logger.Get().Named("live")
	return h
}

// Notify signals that the leaderboard changed. Non-blocking; repeated
// signals collapse into one pending broadcast.
func (h *Hub) Notify() {
	select {
	case h.kick <- struct{}{}:
	default:
	}
}

// Run drives the broadcast pump until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-h.kick:
		}

		h.broadcast(ctx)

		// Coalesce whatever arrives during the cool-down.
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-time.After(h.minInterval):
		}
	}
}

func (h *Hub) broadcast(ctx context.Context) {
	snap := Snapshot{Top: h.source.TopN(ctx, h.topN)}

	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.clients) == 0 {
		return
	}

	for conn := range h.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(snap); err != nil {
			h.logger.Debug(ctx, "dropping live client", logger.Error(err))
			delete(h.clients, conn)
			_ = conn.Close()
		}
	}
	metrics.RecordBroadcast()
	metrics.UpdateLiveClients(len(h.clients))
}

func (h *Hub) add(ctx context.Context, conn *websocket.Conn) {
	snap := Snapshot{Top: h.source.TopN(ctx, h.topN)}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	count := len(h.clients)
	// Seed the new subscriber so it does not wait for the next update.
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteJSON(snap)
	h.mu.Unlock()

	metrics.UpdateLiveClients(count)
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	count := len(h.clients)
	h.mu.Unlock()

	_ = conn.Close()
	metrics.UpdateLiveClients(count)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.Close()
		delete(h.clients, conn)
	}
	metrics.UpdateLiveClients(0)
}

// LiveHandler upgrades /live requests into hub subscriptions.
type LiveHandler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewLiveHandler creates a new live feed handler.
func NewLiveHandler(hub *Hub) *LiveHandler {
	return &LiveHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// HandleLive handles GET /live websocket upgrades.
func (h *LiveHandler) HandleLive(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		http.NotFound(w, r)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	h.hub.add(r.Context(), conn)

	// Subscribers only listen; the read loop exists to notice closes.
	go func() {
		defer h.hub.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
