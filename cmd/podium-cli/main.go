package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/okian/podium/internal/domain/types"
	"github.com/okian/podium/pkg/client"
)

const requestTimeout = 10 * time.Second

func main() {
	addr := flag.String("addr", "127.0.0.1:9443", "Server address")
	flag.Parse()

	ctx := context.Background()

	c, err := client.Dial(ctx, *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot connect to %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer c.Close()
	fmt.Printf("connected to %s over TLS\n", *addr)

	in := bufio.NewScanner(os.Stdin)

	playerID := prompt(in, "Enter your player ID: ", "player_1")
	name := prompt(in, "Enter your display name: ", playerID)

	for {
		fmt.Println("\n[1] Submit score   [2] View leaderboard   [3] Lookup player")
		fmt.Println("[4] Server stats   [5] Ping               [q] Quit")
		choice := strings.ToLower(prompt(in, "Choice: ", "q"))

		callCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		switch choice {
		case "1":
			submitScore(callCtx, c, in, playerID, name)
		case "2":
			showLeaderboard(callCtx, c)
		case "3":
			lookupPlayer(callCtx, c, in)
		case "4":
			showStats(callCtx, c)
		case "5":
			ping(callCtx, c)
		case "q", "quit", "exit":
			cancel()
			fmt.Println("Goodbye!")
			return
		default:
			fmt.Println("Unknown option.")
		}
		cancel()
	}
}

func prompt(in *bufio.Scanner, label, fallback string) string {
	fmt.Print(label)
	if !in.Scan() {
		return fallback
	}
	if v := strings.TrimSpace(in.Text()); v != "" {
		return v
	}
	return fallback
}

func submitScore(ctx context.Context, c *client.Client, in *bufio.Scanner, playerID, name string) {
	raw := prompt(in, "Enter score: ", "")
	score, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		fmt.Println("Invalid score.")
		return
	}

	res, err := c.UpdateNow(ctx, playerID, name, score)
	if err != nil {
		fmt.Printf("update failed: %v\n", err)
		return
	}

	status := "REJECTED"
	if res.Accepted {
		status = "ACCEPTED"
	}
	fmt.Printf("[%s] Score: %d | %.3f ms\n", status, res.CurrentScore, res.LatencyMS)
}

func showLeaderboard(ctx context.Context, c *client.Client) {
	top, err := c.GetTop(ctx, 10)
	if err != nil {
		fmt.Printf("leaderboard fetch failed: %v\n", err)
		return
	}
	printTop(top)
}

func printTop(top []types.Entry) {
	fmt.Println(strings.Repeat("=", 42))
	fmt.Printf("%-4s %-20s %8s\n", "#", "Name", "Score")
	fmt.Println(strings.Repeat("-", 42))
	for _, e := range top {
		fmt.Printf("%-4d %-20s %8d\n", e.Rank, e.Name, e.Score)
	}
	fmt.Println(strings.Repeat("=", 42))
}

func lookupPlayer(ctx context.Context, c *client.Client, in *bufio.Scanner) {
	pid := prompt(in, "Player ID: ", "")
	if pid == "" {
		return
	}
	rec, found, err := c.GetPlayer(ctx, pid)
	if err != nil {
		fmt.Printf("lookup failed: %v\n", err)
		return
	}
	if !found {
		fmt.Println("  player not found")
		return
	}
	fmt.Printf("  %s: %d\n", rec.Name, rec.Score)
}

func showStats(ctx context.Context, c *client.Client) {
	st, err := c.Stats(ctx)
	if err != nil {
		fmt.Printf("stats failed: %v\n", err)
		return
	}
	fmt.Printf("\n  Players:%d Requests:%d Accepted:%d Rejected:%d Rate:%.2f/s Uptime:%.0fs\n",
		st.TotalPlayers, st.TotalRequests, st.Accepted, st.Rejected, st.UpdatesPerSec, st.UptimeSeconds)
}

func ping(ctx context.Context, c *client.Client) {
	t0 := time.Now()
	serverMS, err := c.Ping(ctx)
	if err != nil {
		fmt.Printf("ping failed: %v\n", err)
		return
	}
	fmt.Printf("  PONG! RTT=%.2fms Server=%.3fms\n", float64(time.Since(t0).Microseconds())/1000.0, serverMS)
}
