// Package loadtest drives a podium server with concurrent clients and
// reports throughput and latency, either as a synthetic benchmark or as
// a scripted ten-player demo.
package loadtest

import "time"

// Modes supported by Run.
const (
	ModeBench = "bench"
	ModeDemo  = "demo"
)

// Config holds configuration for one load test run.
type Config struct {
	Addr    string        // Server address, host:port
	Mode    string        // bench or demo
	Clients int           // Number of concurrent clients (bench)
	Updates int           // Updates submitted per client (bench)
	Rounds  int           // Score submissions per player (demo)
	TopN    int           // Leaderboard size fetched at the end
	Timeout time.Duration // Per-request timeout
	Verbose bool          // Enable verbose logging
}

// Stats holds aggregate results for one run.
type Stats struct {
	RunID       string
	Submitted   int
	Accepted    int
	Rejected    int
	Errors      int
	LatenciesMS []float64
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
}
