package game

import (
	"errors"
	"math"
	"testing"

	"github.com/spatiallit/worldle-server/internal/catalog"
	"github.com/spatiallit/worldle-server/internal/geo"
)

// equatorCatalog: three countries on the equator at 0°, 90° and 180°.
func equatorCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.Record{
		{FID: 1, Kind: "Country", Lat: 0, Lon: 0, Names: map[catalog.Locale]string{"en": "Ayland", "fr": "Aylande"}},
		{FID: 2, Kind: "Country", Lat: 0, Lon: 90, Names: map[catalog.Locale]string{"en": "Byland", "fr": "Bylande"}},
		{FID: 3, Kind: "Country", Lat: 0, Lon: 180, Names: map[catalog.Locale]string{"en": "Ceeland", "fr": "Ceelande"}},
	})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return c
}

func TestComputeDistances(t *testing.T) {
	cat := equatorCatalog(t)
	table, err := ComputeDistances(cat, 1)
	if err != nil {
		t.Fatalf("ComputeDistances: %v", err)
	}

	a, _ := table.Row(1)
	if a.DistanceKm != 0 {
		t.Errorf("target's own distance = %v, want 0", a.DistanceKm)
	}
	b, _ := table.Row(2)
	if math.Abs(b.DistanceKm-10007.5) > 0.1 {
		t.Errorf("distance(B) = %v, want ≈ 10007.5", b.DistanceKm)
	}
	c, _ := table.Row(3)
	if math.Abs(c.DistanceKm-geo.MaxDistanceKm) > 0.1 {
		t.Errorf("distance(C) = %v, want ≈ %v", c.DistanceKm, geo.MaxDistanceKm)
	}

	// Rows stay in catalog order and within [0, MaxDistanceKm].
	rows := table.Rows()
	if len(rows) != 3 || rows[0].FID != 1 || rows[1].FID != 2 || rows[2].FID != 3 {
		t.Errorf("row order = %v, want catalog order 1,2,3", rows)
	}
	for _, r := range rows {
		if r.DistanceKm < 0 || r.DistanceKm > geo.MaxDistanceKm+1e-6 {
			t.Errorf("distance out of range: %v", r.DistanceKm)
		}
	}
}

func TestComputeDistancesUnknownTarget(t *testing.T) {
	cat := equatorCatalog(t)
	if _, err := ComputeDistances(cat, 99); !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("got %v, want ErrUnknownTarget", err)
	}
}

func TestGuessFlow(t *testing.T) {
	cat := equatorCatalog(t)
	s, err := NewWithTarget(cat, 1)
	if err != nil {
		t.Fatalf("NewWithTarget: %v", err)
	}

	// Guess B: recorded, not a win.
	res, err := s.Submit(2)
	if err != nil {
		t.Fatalf("Submit(B): %v", err)
	}
	if res.Correct || res.State != StatePlaying {
		t.Errorf("Submit(B): correct=%v state=%v, want incorrect/playing", res.Correct, res.State)
	}
	if len(s.Guesses) != 1 || s.Guesses[0] != 2 {
		t.Errorf("guesses = %v, want [2]", s.Guesses)
	}

	// Guess C: recorded, still not a win.
	if res, err = s.Submit(3); err != nil {
		t.Fatalf("Submit(C): %v", err)
	}
	if res.Correct {
		t.Error("Submit(C): 3 != target 1 but reported correct")
	}
	if len(s.Guesses) != 2 {
		t.Errorf("guesses = %v, want [2 3]", s.Guesses)
	}

	// Duplicate B: rejected, state untouched.
	if _, err := s.Submit(2); !errors.Is(err, ErrDuplicateGuess) {
		t.Errorf("duplicate: got %v, want ErrDuplicateGuess", err)
	}
	if len(s.Guesses) != 2 {
		t.Errorf("guesses after duplicate = %v, want unchanged length 2", s.Guesses)
	}

	// Correct guess wins and carries the gold tier.
	res, err = s.Submit(1)
	if err != nil {
		t.Fatalf("Submit(A): %v", err)
	}
	if !res.Correct || res.State != StateWon || res.Tier != TierGold || res.DistanceKm != 0 {
		t.Errorf("winning result = %+v", res)
	}
	if s.State() != StateWon {
		t.Errorf("state = %v, want won", s.State())
	}

	// Finished rounds refuse further guesses.
	if _, err := s.Submit(3); !errors.Is(err, ErrFinished) {
		t.Errorf("after win: got %v, want ErrFinished", err)
	}
}

func TestUnknownCountryRejected(t *testing.T) {
	cat := equatorCatalog(t)
	s, _ := NewWithTarget(cat, 1)
	if _, err := s.Submit(99); !errors.Is(err, ErrUnknownCountry) {
		t.Errorf("got %v, want ErrUnknownCountry", err)
	}
	if len(s.Guesses) != 0 {
		t.Errorf("guesses mutated by rejected submit: %v", s.Guesses)
	}
}

// sixCatalog builds a catalog large enough to exhaust the attempt budget.
func sixCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	names := []string{"Ayland", "Byland", "Ceeland", "Deeland", "Eeland", "Efland", "Geeland", "Aitchland"}
	recs := make([]catalog.Record, len(names))
	for i, n := range names {
		recs[i] = catalog.Record{
			FID: int64(i + 1), Kind: "Country",
			Lat: float64(i * 10), Lon: float64(i * 10),
			Names: map[catalog.Locale]string{"en": n},
		}
	}
	c, err := catalog.New(recs)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return c
}

func TestLossAfterSixWrongGuesses(t *testing.T) {
	cat := sixCatalog(t)
	s, _ := NewWithTarget(cat, 1)

	for fid := int64(2); fid <= 7; fid++ {
		if _, err := s.Submit(fid); err != nil {
			t.Fatalf("Submit(%d): %v", fid, err)
		}
	}
	if len(s.Guesses) != MaxGuesses {
		t.Fatalf("guesses = %d, want %d", len(s.Guesses), MaxGuesses)
	}
	if s.State() != StateLost {
		t.Errorf("state = %v, want lost", s.State())
	}
	// The budget is a hard ceiling.
	if _, err := s.Submit(8); !errors.Is(err, ErrFinished) {
		t.Errorf("seventh guess: got %v, want ErrFinished", err)
	}
	if len(s.Guesses) != MaxGuesses {
		t.Errorf("guesses grew past the budget: %d", len(s.Guesses))
	}
}

func TestCorrectSixthGuessWins(t *testing.T) {
	cat := sixCatalog(t)
	s, _ := NewWithTarget(cat, 1)

	for fid := int64(2); fid <= 6; fid++ {
		if _, err := s.Submit(fid); err != nil {
			t.Fatalf("Submit(%d): %v", fid, err)
		}
	}
	res, err := s.Submit(1)
	if err != nil {
		t.Fatalf("sixth (correct) guess: %v", err)
	}
	if res.State != StateWon || s.State() != StateWon {
		t.Errorf("state = %v/%v, want won: win check precedes the loss-count check", res.State, s.State())
	}
}

func TestResetYieldsFreshSession(t *testing.T) {
	cat := equatorCatalog(t)
	old, _ := NewWithTarget(cat, 1)
	_, _ = old.Submit(2)

	// Reset destroys and recreates; the new round starts clean.
	fresh, err := New(cat)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(fresh.Guesses) != 0 {
		t.Errorf("fresh guesses = %v, want empty", fresh.Guesses)
	}
	if fresh.State() != StatePlaying {
		t.Errorf("fresh state = %v, want playing", fresh.State())
	}
	if fresh.ID == old.ID {
		t.Error("fresh session reused old ID")
	}
	if _, ok := cat.ByFID(fresh.TargetID); !ok {
		t.Errorf("fresh target %d not in catalog", fresh.TargetID)
	}
}

func TestProximityTiers(t *testing.T) {
	cases := []struct {
		distance float64
		tier     Tier
	}{
		{0, TierGold},
		{geo.MaxDistanceKm * 0.25, TierSilver},
		{geo.MaxDistanceKm * 0.49, TierSilver},
		{geo.MaxDistanceKm * 0.5, TierBronze},
		{geo.MaxDistanceKm, TierBronze},
	}
	for _, tc := range cases {
		p := Proximity(tc.distance)
		if p < -1e-9 || p > 100+1e-9 {
			t.Errorf("Proximity(%v) = %v, outside [0,100]", tc.distance, p)
		}
		if got := TierFor(p); got != tc.tier {
			t.Errorf("TierFor(Proximity(%v km)) = %v, want %v", tc.distance, got, tc.tier)
		}
	}
	// 99.7% truncates to 99: close but not exact stays silver.
	if got := TierFor(99.7); got != TierSilver {
		t.Errorf("TierFor(99.7) = %v, want silver", got)
	}
}

func TestResultReplaysRecordedGuess(t *testing.T) {
	cat := equatorCatalog(t)
	s, _ := NewWithTarget(cat, 1)
	first, _ := s.Submit(2)

	replay, ok := s.Result(2)
	if !ok {
		t.Fatal("Result(2) not found after Submit")
	}
	if replay.DistanceKm != first.DistanceKm || replay.Bearing != first.Bearing || replay.Tier != first.Tier {
		t.Errorf("replayed result %+v differs from submitted %+v", replay, first)
	}
	if _, ok := s.Result(3); ok {
		t.Error("Result(3) found but never guessed")
	}
}
