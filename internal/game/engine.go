// internal/game/engine.go
//
// Core engine for a single country-guessing round.
// Responsibilities:
//   - Build the per-target distance/bearing table (once per round, O(n)).
//   - Create sessions with a random or fixed mystery target.
//   - Validate and apply guesses: duplicate rejection, six-attempt budget.
//   - Derive state transitions: playing → won/lost.
//
// Notes:
//   - The catalog is shared and read-only; every session owns its own table
//     and guess list, so no locking happens here.
//   - Win detection runs before loss detection: a correct sixth guess wins.
//   - randomID() is a compact hex identifier for correlating server state.

package game

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/spatiallit/worldle-server/internal/catalog"
	"github.com/spatiallit/worldle-server/internal/geo"
)

var (
	// ErrUnknownTarget means a target fid is absent from the catalog. The
	// initializer only picks targets out of the catalog, so hitting this is
	// a programming error, not a user mistake.
	ErrUnknownTarget = errors.New("target not in catalog")

	// ErrUnknownCountry means a guessed fid has no row in the session table.
	ErrUnknownCountry = errors.New("country not in catalog")

	// ErrDuplicateGuess rejects a country that was already guessed this
	// round. Duplicates do not consume an attempt.
	ErrDuplicateGuess = errors.New("country already guessed")

	// ErrFinished rejects guesses after the round is won or lost.
	ErrFinished = errors.New("round finished")
)

// ComputeDistances enriches every catalog record with its distance and
// bearing toward the target's centroid, in canonical catalog order. The
// target's own row has distance 0. Built once per chosen target; guesses
// only ever read it.
func ComputeDistances(cat *catalog.Catalog, targetID int64) (*Table, error) {
	target, ok := cat.ByFID(targetID)
	if !ok {
		return nil, fmt.Errorf("%w: fid %d", ErrUnknownTarget, targetID)
	}

	records := cat.Records()
	t := &Table{
		TargetID: targetID,
		rows:     make([]Row, len(records)),
		index:    make(map[int64]int, len(records)),
	}
	for i, r := range records {
		t.rows[i] = Row{
			FID:        r.FID,
			DistanceKm: geo.Haversine(r.Lat, r.Lon, target.Lat, target.Lon, geo.Kilometers),
			Bearing:    geo.PlanarBearing(r.Lat, r.Lon, target.Lat, target.Lon),
		}
		t.index[r.FID] = i
	}
	return t, nil
}

// New starts a round with a mystery target chosen uniformly at random from
// the catalog. Target selection is independent across rounds; repeats are
// allowed.
func New(cat *catalog.Catalog) (*Session, error) {
	return NewWithTarget(cat, cat.RandomFID())
}

// NewWithTarget starts a round against a fixed target (tests, daily mode).
func NewWithTarget(cat *catalog.Catalog, targetID int64) (*Session, error) {
	table, err := ComputeDistances(cat, targetID)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:        randomID(),
		TargetID:  targetID,
		Table:     table,
		Guesses:   []int64{},
		StartedAt: time.Now().UTC(),
	}, nil
}

// Won reports whether the target has been guessed, regardless of count.
func (s *Session) Won() bool {
	for _, g := range s.Guesses {
		if g == s.TargetID {
			return true
		}
	}
	return false
}

// Lost reports whether the attempt budget is spent without a win.
// Won takes precedence: a correct sixth guess is a win, not a loss.
func (s *Session) Lost() bool {
	return !s.Won() && len(s.Guesses) >= MaxGuesses
}

// State derives the coarse session state.
func (s *Session) State() State {
	switch {
	case s.Won():
		return StateWon
	case s.Lost():
		return StateLost
	default:
		return StatePlaying
	}
}

// Submit applies one resolved guess to the session.
//
// Rejections (session state unchanged):
//   - ErrFinished when the round is already won or lost.
//   - ErrDuplicateGuess when fid was guessed before (not counted).
//   - ErrUnknownCountry when fid has no row in the table.
//
// Otherwise the guess is appended and the revealed distance, bearing and
// proximity tier are returned together with the updated state.
func (s *Session) Submit(fid int64) (GuessResult, error) {
	if s.State() != StatePlaying {
		return GuessResult{}, ErrFinished
	}
	for _, g := range s.Guesses {
		if g == fid {
			return GuessResult{}, ErrDuplicateGuess
		}
	}
	row, ok := s.Table.Row(fid)
	if !ok {
		return GuessResult{}, fmt.Errorf("%w: fid %d", ErrUnknownCountry, fid)
	}

	s.Guesses = append(s.Guesses, fid)

	prox := Proximity(row.DistanceKm)
	return GuessResult{
		FID:         fid,
		DistanceKm:  row.DistanceKm,
		Bearing:     row.Bearing,
		Proximity:   prox,
		Tier:        TierFor(prox),
		Correct:     fid == s.TargetID,
		State:       s.State(),
		GuessesUsed: len(s.Guesses),
	}, nil
}

// Result rebuilds the GuessResult for an already-recorded guess, for
// re-rendering past guesses without mutating the session.
func (s *Session) Result(fid int64) (GuessResult, bool) {
	recorded := false
	for _, g := range s.Guesses {
		if g == fid {
			recorded = true
			break
		}
	}
	if !recorded {
		return GuessResult{}, false
	}
	row, _ := s.Table.Row(fid)
	prox := Proximity(row.DistanceKm)
	return GuessResult{
		FID:         fid,
		DistanceKm:  row.DistanceKm,
		Bearing:     row.Bearing,
		Proximity:   prox,
		Tier:        TierFor(prox),
		Correct:     fid == s.TargetID,
		State:       s.State(),
		GuessesUsed: len(s.Guesses),
	}, true
}

// Proximity converts a distance into the 0–100% closeness score: a guess on
// the opposite side of the globe scores 0, the correct guess 100.
func Proximity(distanceKm float64) float64 {
	return (1 - distanceKm/geo.MaxDistanceKm) * 100
}

// TierFor buckets a proximity score: 100% exact, above 50% silver, bronze
// otherwise. Thresholds compare the truncated percentage, matching how the
// score is displayed.
func TierFor(proximity float64) Tier {
	switch p := int(math.Trunc(proximity)); {
	case p == 100:
		return TierGold
	case p > 50:
		return TierSilver
	default:
		return TierBronze
	}
}

// randomID returns a compact 16-hex-char identifier.
// Collisions are extremely unlikely given crypto/rand entropy.
func randomID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
