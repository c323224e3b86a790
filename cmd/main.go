package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/podium/internal/adapters/http/ops"
	repository "github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/adapters/tcp"
	app "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/config"
	"github.com/okian/podium/internal/tlsutil"
	"github.com/okian/podium/pkg/logger"
)

// Ops HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Certificate pair: load, generating a dev pair first when allowed.
	if cfg.GenerateDevCert {
		if err := tlsutil.EnsureKeyPair(cfg.CertFile, cfg.KeyFile); err != nil {
			log.Error(ctx, "failed to provision dev certificate", logger.Error(err))
			return
		}
	}
	tlsConfig, err := tlsutil.ServerConfig(cfg.CertFile, cfg.KeyFile, cfg.MinTLSVersion)
	if err != nil {
		log.Error(ctx, "failed to build tls config", logger.Error(err))
		return
	}

	// Shared leaderboard store, live feed hub, and dispatcher.
	store := repository.NewMapStore(ctx, repository.WithDefaultTopN(cfg.TopN))

	hub := ops.NewHub(store,
		ops.WithLiveTopN(cfg.TopN),
		ops.WithMinInterval(time.Duration(cfg.LiveMinIntervalMS)*time.Millisecond),
	)
	go hub.Run(ctx)

	svc := app.New(ctx,
		app.WithStore(store),
		app.WithDefaultTopN(cfg.TopN),
		app.WithUpdateNotifier(hub.Notify),
		app.WithLogger(log),
	)

	// Ops HTTP listener: /metrics, /healthz, /stats, /live.
	mux := http.NewServeMux()
	ops.NewServer(svc, hub).Register(ctx, mux)

	opsSrv := &http.Server{
		Addr:              cfg.OpsAddr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		log.Info(ctx, "starting ops HTTP server", logger.String("addr", cfg.OpsAddr))
		if err := opsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "ops HTTP server failed", logger.Error(err))
		}
	}()

	// Periodic stats log line.
	go startStatsLogger(ctx, store, time.Duration(cfg.StatsLogIntervalSeconds)*time.Second)

	// The TLS listener blocks until shutdown.
	srv := tcp.NewServer(cfg.Addr, tlsConfig, svc,
		tcp.WithReadBufferSize(cfg.ReadBufferSize),
		tcp.WithMaxRecordSize(cfg.MaxRecordSize),
		tcp.WithLogger(log),
	)
	log.Info(ctx, "starting leaderboard server",
		logger.String("addr", cfg.Addr),
		logger.String("min_tls", cfg.MinTLSVersion),
		logger.Int("top_n", cfg.TopN),
	)
	if err := srv.ListenAndServe(ctx); err != nil {
		log.Error(ctx, "leaderboard server failed", logger.Error(err))
	}

	log.Info(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := opsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "ops server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// startStatsLogger periodically logs engine counters.
func startStatsLogger(ctx context.Context, store repository.Store, interval time.Duration) {
	if interval <= 0 {
		return
	}

	log := logger.Named("stats")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := store.Stats(ctx)
			log.Info(ctx, "leaderboard stats",
				logger.Int("players", st.TotalPlayers),
				logger.Int64("requests", st.TotalRequests),
				logger.Int64("accepted", st.Accepted),
				logger.Int64("rejected", st.Rejected),
				logger.Float64("updates_per_sec", st.UpdatesPerSec),
				logger.Float64("avg_latency_ms", st.AvgLatencyMS),
			)
		}
	}
}
