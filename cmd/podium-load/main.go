package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/podium/internal/loadtest"
	"github.com/okian/podium/pkg/logger"
)

// Default configuration constants.
const (
	defaultClients     = 20
	defaultUpdates     = 50
	defaultRounds      = 5
	defaultTopN        = 10
	defaultTimeout     = 10 * time.Second
	defaultRunDeadline = 10 * time.Minute
)

func main() {
	var (
		addr    = flag.String("addr", "127.0.0.1:9443", "Server address")
		mode    = flag.String("mode", loadtest.ModeBench, "Run mode: bench or demo")
		clients = flag.Int("clients", defaultClients, "Number of concurrent clients (bench)")
		updates = flag.Int("updates", defaultUpdates, "Updates per client (bench)")
		rounds  = flag.Int("rounds", defaultRounds, "Submissions per player (demo)")
		topN    = flag.Int("top", defaultTopN, "Final leaderboard size to print")
		timeout = flag.Duration("timeout", defaultTimeout, "Per-request timeout")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunDeadline)
	defer cancel()

	cfg := &loadtest.Config{
		Addr:    *addr,
		Mode:    *mode,
		Clients: *clients,
		Updates: *updates,
		Rounds:  *rounds,
		TopN:    *topN,
		Timeout: *timeout,
		Verbose: *verbose,
	}

	if err := loadtest.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("load test failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
