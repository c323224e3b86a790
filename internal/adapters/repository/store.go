// Package repository defines the ranking store interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/types"
)

// Store provides read/write access to the ranking state.
//
// All operations are total functions over their documented input domain;
// malformed input is rejected by the protocol codec before it reaches the
// store. Implementations must be safe for concurrent use by many
// sessions.
type Store interface {
	// SubmitUpdate applies one score submission with last-write-wins
	// conflict resolution: a missing record is created unconditionally,
	// an existing record is overwritten only when u.TS is strictly
	// greater than the stored timestamp. It returns whether the write
	// was accepted and the score stored after the call, which is the
	// previous score when the write lost the race.
	SubmitUpdate(ctx context.Context, u model.Update) (accepted bool, current int64)

	// TopN returns the first n ranked entries ordered by score desc,
	// player id asc. Non-positive n falls back to the default limit.
	TopN(ctx context.Context, n int) []types.Entry

	// GetPlayer returns the record for a player id.
	// Returns ErrNotFound if the player is unknown.
	GetPlayer(ctx context.Context, playerID string) (model.PlayerRecord, error)

	// ObserveRequest accumulates one handled request and its dispatch
	// latency into the stats counters.
	ObserveRequest(d time.Duration)

	// Stats returns a snapshot of the request and update counters.
	Stats(ctx context.Context) types.Stats

	// Count returns the number of players tracked in the leaderboard.
	Count(ctx context.Context) int
}
