// Package types contains common types used across the application
package types

// Entry represents a ranked leaderboard row.
type Entry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Score    int64  `json:"score"`
}

// Stats is a point-in-time snapshot of engine counters.
type Stats struct {
	TotalRequests int64   `json:"total_requests"`
	Accepted      int64   `json:"accepted"`
	Rejected      int64   `json:"rejected"`
	AvgLatencyMS  float64 `json:"avg_latency_ms"`
	TotalPlayers  int     `json:"total_players"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	UpdatesPerSec float64 `json:"updates_per_sec"`
}
