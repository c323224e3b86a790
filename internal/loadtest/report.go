package loadtest

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/okian/podium/pkg/client"
	"github.com/okian/podium/pkg/logger"
)

// report logs aggregate throughput and latency for one finished run.
func report(ctx context.Context, stats *Stats) {
	log := logger.Get()

	completed := len(stats.LatenciesMS)
	throughput := 0.0
	if stats.Duration.Seconds() > 0 {
		throughput = float64(completed) / stats.Duration.Seconds()
	}

	log.Info(ctx, "load test finished",
		logger.String("run_id", stats.RunID),
		logger.Int("submitted", stats.Submitted),
		logger.Int("completed", completed),
		logger.Int("accepted", stats.Accepted),
		logger.Int("rejected", stats.Rejected),
		logger.Int("errors", stats.Errors),
		logger.Duration("wall_time", stats.Duration),
		logger.Float64("updates_per_sec", throughput),
	)

	if completed == 0 {
		return
	}

	sorted := append([]float64(nil), stats.LatenciesMS...)
	sort.Float64s(sorted)

	log.Info(ctx, "latency distribution (ms)",
		logger.Float64("min", sorted[0]),
		logger.Float64("p50", percentile(sorted, 50)),
		logger.Float64("p95", percentile(sorted, 95)),
		logger.Float64("p99", percentile(sorted, 99)),
		logger.Float64("max", sorted[len(sorted)-1]),
		logger.Float64("avg", mean(sorted)),
	)
}

// percentile reads the p-th percentile from an ascending sample.
func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (len(sorted) - 1) * p / 100
	return sorted[idx]
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// printLeaderboard fetches and prints the final top-N standings.
func printLeaderboard(ctx context.Context, cfg *Config) error {
	dialCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	c, err := client.Dial(dialCtx, cfg.Addr)
	if err != nil {
		return fmt.Errorf("fetching final leaderboard: %w", err)
	}
	defer c.Close()

	callCtx, cancelCall := context.WithTimeout(ctx, cfg.Timeout)
	defer cancelCall()

	top, err := c.GetTop(callCtx, cfg.TopN)
	if err != nil {
		return fmt.Errorf("fetching final leaderboard: %w", err)
	}

	out := os.Stdout
	fmt.Fprintln(out)
	fmt.Fprintln(out, "===== FINAL LEADERBOARD =====")
	fmt.Fprintf(out, "%-4s %-20s %8s\n", "#", "Name", "Score")
	for _, e := range top {
		fmt.Fprintf(out, "%-4d %-20s %8d\n", e.Rank, e.Name, e.Score)
	}
	fmt.Fprintln(out, "=============================")

	st, err := c.Stats(context.Background())
	if err == nil {
		fmt.Fprintf(out, "players=%d requests=%d accepted=%d rejected=%d avg_latency=%.3fms uptime=%.0fs\n",
			st.TotalPlayers, st.TotalRequests, st.Accepted, st.Rejected, st.AvgLatencyMS, st.UptimeSeconds)
	}

	return nil
}
