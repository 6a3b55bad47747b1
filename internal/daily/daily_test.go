package daily

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func TestDateKeyUTC(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC.
	loc := time.FixedZone("UTC-5", -5*3600)
	ts := time.Date(2024, 3, 1, 23, 30, 0, 0, loc)
	if got := DateKey(ts); got != "2024-03-02" {
		t.Errorf("DateKey = %q, want 2024-03-02", got)
	}
}

func TestCountryIndexDeterministic(t *testing.T) {
	day := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)
	a := CountryIndex(day, "salt", 200)
	b := CountryIndex(day.Add(5*time.Hour), "salt", 200)
	if a != b {
		t.Errorf("same UTC date gave different indexes: %d vs %d", a, b)
	}
	if a < 0 || a >= 200 {
		t.Errorf("index %d out of range [0,200)", a)
	}

	// Different salt or date should (practically always) move the index.
	if CountryIndex(day, "salt", 1<<30) == CountryIndex(day, "other", 1<<30) {
		t.Error("different salts produced identical index")
	}
	if CountryIndex(day, "salt", 1<<30) == CountryIndex(day.AddDate(0, 0, 1), "salt", 1<<30) {
		t.Error("consecutive dates produced identical index")
	}

	if CountryIndex(day, "salt", 0) != 0 {
		t.Error("empty catalog should index 0")
	}
}

func dailyDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(`CREATE TABLE daily_results (
		user_id TEXT NOT NULL,
		date TEXT NOT NULL,
		country_fid INTEGER NOT NULL,
		guesses INTEGER NOT NULL,
		won INTEGER NOT NULL DEFAULT 0,
		elapsed_ms INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, date)
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

func TestStoreOnePlayPerDay(t *testing.T) {
	ctx := context.Background()
	s := NewStore(dailyDB(t))

	played, err := s.AlreadyPlayed(ctx, "u1", "2024-03-02")
	if err != nil || played {
		t.Fatalf("AlreadyPlayed before insert = %v, %v", played, err)
	}

	r := Result{UserID: "u1", Date: "2024-03-02", CountryFID: 7, Guesses: 3, Won: true, ElapsedMs: 42000}
	if err := s.InsertResult(ctx, r); err != nil {
		t.Fatalf("InsertResult: %v", err)
	}
	// Second insert for the same day is ignored, not an error.
	r.Guesses = 1
	if err := s.InsertResult(ctx, r); err != nil {
		t.Fatalf("second InsertResult: %v", err)
	}

	played, err = s.AlreadyPlayed(ctx, "u1", "2024-03-02")
	if err != nil || !played {
		t.Fatalf("AlreadyPlayed after insert = %v, %v", played, err)
	}

	top, err := s.Leaderboard(ctx, "2024-03-02", 0)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(top) != 1 || top[0].Guesses != 3 {
		t.Errorf("leaderboard = %v, want the original 3-guess row", top)
	}
}

func TestLeaderboardOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewStore(dailyDB(t))

	rows := []Result{
		{UserID: "slow", Date: "d", CountryFID: 1, Guesses: 2, Won: true, ElapsedMs: 90000},
		{UserID: "fast", Date: "d", CountryFID: 1, Guesses: 2, Won: true, ElapsedMs: 30000},
		{UserID: "lucky", Date: "d", CountryFID: 1, Guesses: 1, Won: true, ElapsedMs: 120000},
		{UserID: "loser", Date: "d", CountryFID: 1, Guesses: 6, Won: false, ElapsedMs: 10000},
	}
	for _, r := range rows {
		if err := s.InsertResult(ctx, r); err != nil {
			t.Fatalf("InsertResult(%s): %v", r.UserID, err)
		}
	}

	top, err := s.Leaderboard(ctx, "d", 10)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	want := []string{"lucky", "fast", "slow"}
	if len(top) != len(want) {
		t.Fatalf("leaderboard size = %d, want %d (losses excluded)", len(top), len(want))
	}
	for i, u := range want {
		if top[i].UserID != u {
			t.Errorf("leaderboard[%d] = %s, want %s", i, top[i].UserID, u)
		}
	}
}
