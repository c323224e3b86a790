package loadtest

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/podium/pkg/client"
	"github.com/okian/podium/pkg/logger"
)

// Run executes one load test in the configured mode.
func Run(ctx context.Context, cfg *Config) error {
	stats := &Stats{
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting load test",
		logger.String("run_id", stats.RunID),
		logger.String("addr", cfg.Addr),
		logger.String("mode", cfg.Mode),
		logger.Int("clients", cfg.Clients),
		logger.Int("updates", cfg.Updates),
	)

	var err error
	switch cfg.Mode {
	case ModeBench:
		err = runBench(ctx, cfg, stats)
	case ModeDemo:
		err = runDemo(ctx, cfg, stats)
	default:
		return fmt.Errorf("unknown mode: %s", cfg.Mode)
	}
	if err != nil {
		return err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	report(ctx, stats)
	return printLeaderboard(ctx, cfg)
}

// runBench spawns cfg.Clients connections, each submitting cfg.Updates
// random scores for its own player id. All clients connect first and
// start together.
func runBench(ctx context.Context, cfg *Config, stats *Stats) error {
	type result struct {
		latencies []float64
		accepted  int
		rejected  int
		errors    int
	}

	results := make([]result, cfg.Clients)

	var ready, done sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < cfg.Clients; i++ {
		ready.Add(1)
		done.Add(1)
		go func(idx int) {
			defer done.Done()

			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(idx))) //nolint:gosec // load generation does not need crypto randomness
			res := &results[idx]

			c, err := client.Dial(ctx, cfg.Addr)
			ready.Done()
			if err != nil {
				res.errors += cfg.Updates
				return
			}
			defer c.Close()

			<-start
			for j := 0; j < cfg.Updates; j++ {
				callCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
				t0 := time.Now()
				ur, err := c.UpdateNow(callCtx, botID(idx), botName(idx), benchScore(rng))
				cancel()
				if err != nil {
					res.errors++
					continue
				}
				res.latencies = append(res.latencies, float64(time.Since(t0).Microseconds())/1000.0)
				if ur.Accepted {
					res.accepted++
				} else {
					res.rejected++
				}
			}
		}(i)
	}

	ready.Wait()
	close(start)
	done.Wait()

	for i := range results {
		stats.Submitted += cfg.Updates
		stats.Accepted += results[i].accepted
		stats.Rejected += results[i].rejected
		stats.Errors += results[i].errors
		stats.LatenciesMS = append(stats.LatenciesMS, results[i].latencies...)
	}
	return nil
}

// runDemo walks the fixed ten-player cast through a few rounds of
// submissions with staggered pacing, mimicking organic traffic.
func runDemo(ctx context.Context, cfg *Config, stats *Stats) error {
	rounds := cfg.Rounds
	if rounds <= 0 {
		rounds = demoDefaultTurn
	}

	type result struct {
		latencies []float64
		accepted  int
		rejected  int
		errors    int
	}

	results := make([]result, len(demoPlayers))

	var ready, done sync.WaitGroup
	start := make(chan struct{})

	for i, p := range demoPlayers {
		ready.Add(1)
		done.Add(1)
		go func(idx int, id, name string) {
			defer done.Done()

			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(idx))) //nolint:gosec // load generation does not need crypto randomness
			res := &results[idx]

			c, err := client.Dial(ctx, cfg.Addr)
			ready.Done()
			if err != nil {
				res.errors += rounds
				return
			}
			defer c.Close()

			<-start
			for j := 0; j < rounds; j++ {
				callCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
				t0 := time.Now()
				ur, err := c.UpdateNow(callCtx, id, name, demoScore(rng))
				cancel()
				if err != nil {
					res.errors++
					continue
				}
				res.latencies = append(res.latencies, float64(time.Since(t0).Microseconds())/1000.0)
				if ur.Accepted {
					res.accepted++
				} else {
					res.rejected++
				}

				if cfg.Verbose {
					logger.Get().Info(ctx, "submitted score",
						logger.String("player", name),
						logger.Int64("score", ur.CurrentScore),
						logger.Any("accepted", ur.Accepted),
					)
				}

				pause := demoSleepMinMS + rng.Intn(demoSleepMaxMS-demoSleepMinMS)
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Duration(pause) * time.Millisecond):
				}
			}
		}(i, p.ID, p.Name)
	}

	ready.Wait()
	close(start)
	done.Wait()

	for i := range results {
		stats.Submitted += rounds
		stats.Accepted += results[i].accepted
		stats.Rejected += results[i].rejected
		stats.Errors += results[i].errors
		stats.LatenciesMS = append(stats.LatenciesMS, results[i].latencies...)
	}
	return nil
}
