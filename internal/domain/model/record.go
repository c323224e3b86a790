// Package model contains domain models passed between layers.
package model

// PlayerRecord holds a player's best-known state. Records are created on
// the first accepted update for a player id and mutated in place
// thereafter; they are never deleted.
type PlayerRecord struct {
	PlayerID  string  `json:"player_id"`
	Name      string  `json:"name"`
	Score     int64   `json:"score"`
	UpdatedAt float64 `json:"ts"` // caller-supplied timestamp, seconds since epoch
}

// Update carries one score submission as decoded off the wire.
type Update struct {
	PlayerID string
	Name     string
	Score    int64
	TS       float64
}
