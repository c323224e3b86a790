package loadtest

import (
	"fmt"
	"math/rand"
)

// Score ranges and pacing for the two run modes.
const (
	benchScoreMax   = 100000
	demoScoreMin    = 1000
	demoScoreMax    = 99999
	demoSleepMinMS  = 20
	demoSleepMaxMS  = 100
	demoDefaultTurn = 5
)

// demoPlayers is the fixed cast used by the demo mode.
var demoPlayers = []struct {
	ID   string
	Name string
}{
	{"alice", "Alice"}, {"bob", "Bob"}, {"carol", "Carol"}, {"dave", "Dave"},
	{"eve", "Eve"}, {"frank", "Frank"}, {"grace", "Grace"}, {"hiro", "Hiro"},
	{"isha", "Isha"}, {"jay", "Jay"},
}

// botID labels one synthetic bench player.
func botID(i int) string {
	return fmt.Sprintf("bot_%04d", i)
}

// botName labels the display name for a bench player.
func botName(i int) string {
	return "Bot-" + botID(i)
}

// benchScore draws a random score for the bench mode.
func benchScore(rng *rand.Rand) int64 {
	return int64(rng.Intn(benchScoreMax) + 1)
}

// demoScore draws a random score for the demo mode.
func demoScore(rng *rand.Rand) int64 {
	return int64(rng.Intn(demoScoreMax-demoScoreMin+1) + demoScoreMin)
}
