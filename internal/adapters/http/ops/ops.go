// Package ops declares the operational HTTP surface: metrics, health,
// counters, and the live leaderboard websocket feed. The leaderboard
// protocol itself never travels over HTTP.
package ops

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/podium/internal/domain/types"
)

// Dependencies bundles what the ops handlers read from the service
// layer. Using an interface bundle keeps the handler layer loosely
// coupled to implementations in other packages.
type Dependencies interface {
	TopN(ctx context.Context, n int) []types.Entry
	Stats(ctx context.Context) types.Stats
}

// Server wires HTTP routes for the ops surface.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	liveHandler   *LiveHandler
}

// NewServer creates a new ops server with all handlers.
func NewServer(deps Dependencies, hub *Hub) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(deps),
		liveHandler:   NewLiveHandler(hub),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", MetricsMiddleware(s.healthHandler.HandleMetrics, "metrics"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/live", s.liveHandler.HandleLive)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
