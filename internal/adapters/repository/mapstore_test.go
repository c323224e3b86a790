package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/podium/internal/domain/model"
)

func update(id, name string, score int64, ts float64) model.Update {
	return model.Update{PlayerID: id, Name: name, Score: score, TS: ts}
}

func TestMapStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewMapStore(ctx)

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	accepted, current := store.SubmitUpdate(ctx, update("alice", "Alice", 100, 1.0))
	if !accepted {
		t.Error("expected first update to be accepted")
	}
	if current != 100 {
		t.Errorf("expected current score 100, got %d", current)
	}

	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	rec, err := store.GetPlayer(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Name != "Alice" || rec.Score != 100 || rec.UpdatedAt != 1.0 {
		t.Errorf("unexpected record: %+v", rec)
	}

	if _, err := store.GetPlayer(ctx, "nobody"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMapStore_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := NewMapStore(ctx)

	store.SubmitUpdate(ctx, update("alice", "Alice", 100, 1.0))

	// Stale write loses and leaves the record untouched.
	accepted, current := store.SubmitUpdate(ctx, update("alice", "Alice", 200, 0.5))
	if accepted {
		t.Error("expected stale update to be rejected")
	}
	if current != 100 {
		t.Errorf("expected stored score 100 after reject, got %d", current)
	}

	// Equal timestamps reject; strict greater-than only.
	accepted, current = store.SubmitUpdate(ctx, update("alice", "Alice", 300, 1.0))
	if accepted {
		t.Error("expected equal-timestamp update to be rejected")
	}
	if current != 100 {
		t.Errorf("expected stored score 100 after equal-ts reject, got %d", current)
	}

	// Newer write overwrites score, name and timestamp.
	accepted, current = store.SubmitUpdate(ctx, update("alice", "Allie", 150, 2.0))
	if !accepted {
		t.Error("expected newer update to be accepted")
	}
	if current != 150 {
		t.Errorf("expected stored score 150, got %d", current)
	}

	rec, err := store.GetPlayer(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Name != "Allie" || rec.Score != 150 || rec.UpdatedAt != 2.0 {
		t.Errorf("unexpected record after accept: %+v", rec)
	}

	top := store.TopN(ctx, 1)
	if len(top) != 1 || top[0].Rank != 1 || top[0].PlayerID != "alice" || top[0].Score != 150 {
		t.Errorf("unexpected top entry: %+v", top)
	}
}

func TestMapStore_ConvergenceEitherOrder(t *testing.T) {
	ctx := context.Background()

	// t2 effect is identical whether t1 arrives before or after it.
	for _, firstNewer := range []bool{false, true} {
		store := NewMapStore(ctx)

		older := update("bob", "Bob", 50, 1.0)
		newer := update("bob", "Bob", 75, 2.0)

		if firstNewer {
			store.SubmitUpdate(ctx, newer)
			accepted, current := store.SubmitUpdate(ctx, older)
			if accepted {
				t.Error("late stale update must be rejected")
			}
			if current != 75 {
				t.Errorf("expected 75, got %d", current)
			}
		} else {
			store.SubmitUpdate(ctx, older)
			store.SubmitUpdate(ctx, newer)
		}

		rec, err := store.GetPlayer(ctx, "bob")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Score != 75 || rec.UpdatedAt != 2.0 {
			t.Errorf("store did not converge to newer write: %+v", rec)
		}
	}
}

func TestMapStore_Ranking(t *testing.T) {
	ctx := context.Background()
	store := NewMapStore(ctx)

	store.SubmitUpdate(ctx, update("carol", "Carol", 90, 1.0))
	store.SubmitUpdate(ctx, update("alice", "Alice", 100, 1.0))
	store.SubmitUpdate(ctx, update("bob", "Bob", 100, 1.0))
	store.SubmitUpdate(ctx, update("dave", "Dave", 80, 1.0))

	top := store.TopN(ctx, 10)
	if len(top) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(top))
	}

	// Ties share a rank; the next distinct score ranks below all of
	// them; equal scores order by player id.
	wantIDs := []string{"alice", "bob", "carol", "dave"}
	wantRanks := []int{1, 1, 3, 4}
	for i, e := range top {
		if e.PlayerID != wantIDs[i] {
			t.Errorf("position %d: expected %s, got %s", i, wantIDs[i], e.PlayerID)
		}
		if e.Rank != wantRanks[i] {
			t.Errorf("position %d: expected rank %d, got %d", i, wantRanks[i], e.Rank)
		}
	}

	// Truncation keeps ranks computed over the full set.
	top2 := store.TopN(ctx, 2)
	if len(top2) != 2 || top2[1].Rank != 1 {
		t.Errorf("unexpected truncated ranking: %+v", top2)
	}

	// Idempotent with no intervening writes.
	again := store.TopN(ctx, 10)
	for i := range top {
		if top[i] != again[i] {
			t.Errorf("ranking changed between identical calls: %+v vs %+v", top[i], again[i])
		}
	}
}

func TestMapStore_TopNDefaultLimit(t *testing.T) {
	ctx := context.Background()
	store := NewMapStore(ctx, WithDefaultTopN(3))

	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("p%02d", i)
		store.SubmitUpdate(ctx, update(id, id, int64(i), 1.0))
	}

	if got := len(store.TopN(ctx, 0)); got != 3 {
		t.Errorf("expected default limit 3, got %d entries", got)
	}
	if got := len(store.TopN(ctx, 5)); got != 5 {
		t.Errorf("expected 5 entries, got %d", got)
	}
}

func TestMapStore_Stats(t *testing.T) {
	ctx := context.Background()
	store := NewMapStore(ctx, WithStartTime(time.Now().Add(-10*time.Second)))

	store.SubmitUpdate(ctx, update("alice", "Alice", 100, 1.0))
	store.SubmitUpdate(ctx, update("alice", "Alice", 200, 2.0))
	store.SubmitUpdate(ctx, update("alice", "Alice", 300, 2.0)) // equal ts, rejected

	store.ObserveRequest(2 * time.Millisecond)
	store.ObserveRequest(4 * time.Millisecond)

	st := store.Stats(ctx)
	if st.Accepted != 2 {
		t.Errorf("expected 2 accepted, got %d", st.Accepted)
	}
	if st.Rejected != 1 {
		t.Errorf("expected 1 rejected, got %d", st.Rejected)
	}
	if st.TotalRequests != 2 {
		t.Errorf("expected 2 total requests, got %d", st.TotalRequests)
	}
	if st.AvgLatencyMS < 2.9 || st.AvgLatencyMS > 3.1 {
		t.Errorf("expected avg latency ~3ms, got %f", st.AvgLatencyMS)
	}
	if st.TotalPlayers != 1 {
		t.Errorf("expected 1 player, got %d", st.TotalPlayers)
	}
	if st.UptimeSeconds < 9 {
		t.Errorf("expected uptime >= 9s, got %f", st.UptimeSeconds)
	}
	if st.UpdatesPerSec <= 0 {
		t.Errorf("expected positive update rate, got %f", st.UpdatesPerSec)
	}
}

func TestMapStore_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	store := NewMapStore(ctx)

	const (
		writers = 16
		rounds  = 200
	)

	// All writers race on one player with strictly increasing
	// timestamps; the largest timestamp must win regardless of
	// interleaving.
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				ts := float64(w*rounds + r + 1)
				store.SubmitUpdate(ctx, update("shared", "Shared", int64(ts), ts))
			}
		}(w)
	}
	wg.Wait()

	rec, err := store.GetPlayer(ctx, "shared")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantTS := float64(writers * rounds)
	if rec.UpdatedAt != wantTS {
		t.Errorf("expected winning ts %f, got %f", wantTS, rec.UpdatedAt)
	}
	if rec.Score != int64(wantTS) {
		t.Errorf("expected winning score %d, got %d", int64(wantTS), rec.Score)
	}

	st := store.Stats(ctx)
	if st.Accepted+st.Rejected != writers*rounds {
		t.Errorf("accept+reject should cover all writes: %d + %d != %d",
			st.Accepted, st.Rejected, writers*rounds)
	}
}
