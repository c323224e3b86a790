package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/types"
	"github.com/okian/podium/pkg/metrics"
)

// Map-based, in-memory Store implementation.
//
// Ordering: score DESC, then playerID ASC (deterministic). Ranking is
// computed by sorting a snapshot on demand; at tens of thousands of
// players the O(P log P) sort is well within budget and no incremental
// sorted index is kept.
//
// Conflict resolution is last-write-wins on the caller-supplied
// timestamp with a strict greater-than comparison: an update carrying a
// timestamp equal to the stored one is rejected, so whichever racing
// update landed first keeps the slot.

// defaultTopN is the limit applied when a top query omits one.
const defaultTopN = 10

// MapStore implements Store with a single mutex over a player map.
// No method acquires the lock more than once and no locked method calls
// another locked method, so a plain sync.Mutex suffices.
type MapStore struct {
	mu      sync.Mutex
	players map[string]*model.PlayerRecord

	// Counters, guarded by mu together with the map.
	totalRequests int64
	accepted      int64
	rejected      int64
	cumLatency    time.Duration

	startedAt   time.Time
	defaultTopN int
}

// NewMapStore creates an empty store.
func NewMapStore(_ context.Context, opts ...Option) *MapStore {
	s := &MapStore{
		players:     make(map[string]*model.PlayerRecord),
		startedAt:   time.Now(),
		defaultTopN: defaultTopN,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SubmitUpdate applies one update under the last-write-wins rule.
func (s *MapStore) SubmitUpdate(_ context.Context, u model.Update) (bool, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.players[u.PlayerID]
	if !ok {
		s.players[u.PlayerID] = &model.PlayerRecord{
			PlayerID:  u.PlayerID,
			Name:      u.Name,
			Score:     u.Score,
			UpdatedAt: u.TS,
		}
		s.accepted++
		metrics.RecordUpdateAccepted()
		metrics.UpdatePlayersTotal(len(s.players))
		return true, u.Score
	}

	if u.TS > existing.UpdatedAt {
		existing.Name = u.Name
		existing.Score = u.Score
		existing.UpdatedAt = u.TS
		s.accepted++
		metrics.RecordUpdateAccepted()
		return true, u.Score
	}

	// Stale or simultaneous write; stored record is untouched.
	s.rejected++
	metrics.RecordUpdateRejected()
	return false, existing.Score
}

// TopN returns the ranked head of the leaderboard.
func (s *MapStore) TopN(_ context.Context, n int) []types.Entry {
	if n <= 0 {
		n = s.defaultTopN
	}

	s.mu.Lock()
	ranked := make([]types.Entry, 0, len(s.players))
	for _, rec := range s.players {
		ranked = append(ranked, types.Entry{
			PlayerID: rec.PlayerID,
			Name:     rec.Name,
			Score:    rec.Score,
		})
	}
	s.mu.Unlock()

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].PlayerID < ranked[j].PlayerID
	})

	// Rank is 1 + the number of strictly-higher-scoring players, so
	// equal scores share a rank.
	for i := range ranked {
		if i > 0 && ranked[i].Score == ranked[i-1].Score {
			ranked[i].Rank = ranked[i-1].Rank
			continue
		}
		ranked[i].Rank = i + 1
	}

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// GetPlayer is a point lookup by player id.
func (s *MapStore) GetPlayer(_ context.Context, playerID string) (model.PlayerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.players[playerID]
	if !ok {
		return model.PlayerRecord{}, ErrNotFound
	}
	return *rec, nil
}

// ObserveRequest accumulates one handled request into the counters.
func (s *MapStore) ObserveRequest(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalRequests++
	s.cumLatency += d
}

// Stats returns a snapshot of the counters.
func (s *MapStore) Stats(_ context.Context) types.Stats {
	elapsed := time.Since(s.startedAt).Seconds()

	s.mu.Lock()
	defer s.mu.Unlock()

	st := types.Stats{
		TotalRequests: s.totalRequests,
		Accepted:      s.accepted,
		Rejected:      s.rejected,
		TotalPlayers:  len(s.players),
		UptimeSeconds: elapsed,
	}
	if s.totalRequests > 0 {
		st.AvgLatencyMS = float64(s.cumLatency.Microseconds()) / float64(s.totalRequests) / 1000.0
	}
	if elapsed > 0 {
		st.UpdatesPerSec = float64(s.accepted) / elapsed
	}
	return st
}

// Count returns the number of tracked players.
func (s *MapStore) Count(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}
