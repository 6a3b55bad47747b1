// internal/game/types.go
//
// Core type definitions for the country-guessing engine.
// Defines:
//   - State: coarse session state (playing/won/lost), always derived.
//   - Row/Table: per-country distance and bearing toward one target.
//   - Session: state for a single in-progress or finished round.
//   - Tier/GuessResult: what one applied guess reveals.

package game

import "time"

// State is the display state of a session. It is never stored: winning is
// detected as "target ∈ guesses" and losing as "six guesses, none correct".
type State string

const (
	StatePlaying State = "playing"
	StateWon     State = "won"
	StateLost    State = "lost"
)

// MaxGuesses is the attempt budget for one round.
const MaxGuesses = 6

// Row is one catalog record enriched with its relation to the target.
type Row struct {
	FID        int64   // catalog key of the guessed country
	DistanceKm float64 // great-circle distance to the target centroid
	Bearing    float64 // planar bearing from this country toward the target
}

// Table holds one Row per catalog record in canonical catalog order,
// computed once when a target is chosen and read-only afterwards.
type Table struct {
	TargetID int64
	rows     []Row
	index    map[int64]int // fid → position in rows
}

// Rows returns the enriched rows in catalog order (read-only).
func (t *Table) Rows() []Row { return t.rows }

// Row looks up the enriched row for a catalog key.
func (t *Table) Row(fid int64) (Row, bool) {
	i, ok := t.index[fid]
	if !ok {
		return Row{}, false
	}
	return t.rows[i], true
}

// Session is the mutable state of one round. Each session exclusively owns
// its Table and guess list; the catalog behind them is shared read-only.
type Session struct {
	ID        string    // opaque identifier handed to the client
	TargetID  int64     // the mystery country, never exposed while playing
	Table     *Table    // distances/bearings toward TargetID
	Guesses   []int64   // resolved guess fids, append-only, max 6, no dups
	StartedAt time.Time // for elapsed-time bookkeeping
}

// Tier buckets a proximity percentage for display.
type Tier string

const (
	TierGold   Tier = "gold"   // exact match
	TierSilver Tier = "silver" // closer than half the globe
	TierBronze Tier = "bronze"
)

// GuessResult is what one accepted guess reveals to the player.
type GuessResult struct {
	FID         int64   `json:"fid"`
	DistanceKm  float64 `json:"distanceKm"`
	Bearing     float64 `json:"bearing"`
	Proximity   float64 `json:"proximity"` // 0..100, vs. max possible distance
	Tier        Tier    `json:"tier"`
	Correct     bool    `json:"correct"`
	State       State   `json:"state"`
	GuessesUsed int     `json:"guessesUsed"`
}
