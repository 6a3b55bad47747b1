// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes three endpoints under /daily:
//   - POST /daily/new         → start today's round (creates or reuses session)
//   - POST /daily/guess       → submit a guess for today's country
//   - GET  /daily/leaderboard → fetch top 20 results for today (or a given date)
//
// Each user gets one daily round (enforced by DB + in-memory session).
// Sessions are held in memory for active play and persisted to DB when the
// round finishes. Deterministic country selection is based on date + salt,
// so every player hunts the same country on the same UTC day.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/spatiallit/worldle-server/internal/catalog"
	"github.com/spatiallit/worldle-server/internal/daily"
	"github.com/spatiallit/worldle-server/internal/game"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	salt     string
	sessions map[string]*game.Session // active sessions keyed by userID|date
	mu       sync.Mutex               // guards sessions
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{
		srv:      s,
		store:    daily.NewStore(s.db),
		salt:     s.cfg.DailySalt,
		sessions: make(map[string]*game.Session),
	}
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", dd.handleNew)
		r.Post("/guess", dd.handleGuess)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// todayTarget returns today's date key and the deterministic mystery fid.
func (d *dailyServer) todayTarget() (date string, fid int64) {
	now := time.Now().UTC()
	date = daily.DateKey(now)
	records := d.srv.cat.Records()
	idx := daily.CountryIndex(now, d.salt, len(records))
	return date, records[idx].FID
}

// userIDWithAnon returns the authenticated user ID if logged in,
// otherwise ensures an anonymous ID via Server.ensureAnonID.
func (d *dailyServer) userIDWithAnon(w http.ResponseWriter, r *http.Request) string {
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		return me.ID
	}
	return d.srv.ensureAnonID(w, r)
}

// -----------------------------------------------------------------------------
// /daily/new

// dailyNewRes is returned by /daily/new.
type dailyNewRes struct {
	GameID string `json:"gameId"`
	Date   string `json:"date"`
	Played bool   `json:"played"`
}

// handleNew creates or reuses the user's daily session for the current date.
// - If user already has a DB row for today → return Played=true.
// - Otherwise create/reuse an in-memory session and return GameID.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	uid := d.userIDWithAnon(w, r)
	date, fid := d.todayTarget()

	// Check if already played (persisted in DB).
	if played, err := d.store.AlreadyPlayed(r.Context(), uid, date); err == nil && played {
		_ = json.NewEncoder(w).Encode(dailyNewRes{GameID: "", Date: date, Played: true})
		return
	}

	// Reuse or create session in memory.
	key := uid + "|" + date
	d.mu.Lock()
	defer d.mu.Unlock()
	if sess, ok := d.sessions[key]; ok {
		_ = json.NewEncoder(w).Encode(dailyNewRes{GameID: sess.ID, Date: date, Played: false})
		return
	}
	sess, err := game.NewWithTarget(d.srv.cat, fid)
	if err != nil {
		http.Error(w, `{"error":"create_failed"}`, http.StatusInternalServerError)
		return
	}
	d.sessions[key] = sess

	_ = json.NewEncoder(w).Encode(dailyNewRes{GameID: sess.ID, Date: date, Played: false})
}

// -----------------------------------------------------------------------------
// /daily/guess

// dailyGuessReq is the request payload for /daily/guess.
type dailyGuessReq struct {
	GameID string `json:"gameId"`
	Guess  string `json:"guess"`
	Locale string `json:"locale"`
}

// dailyGuessRes is the response payload for /daily/guess.
type dailyGuessRes struct {
	State       game.State `json:"state"` // playing | won | lost | locked
	GuessesUsed int        `json:"guessesUsed"`
	Guess       *guessView `json:"guess,omitempty"`
}

// handleGuess validates and applies a guess for today's daily session.
// - Ensures valid GameID and guess.
// - Rejects if no session exists for the user+date.
// - Resolves the display name via the catalog; scores via the session.
// - Persists the result to DB once the round finishes.
func (d *dailyServer) handleGuess(w http.ResponseWriter, r *http.Request) {
	uid := d.userIDWithAnon(w, r)

	var p dailyGuessReq
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	p.Guess = strings.TrimSpace(p.Guess)
	if p.GameID == "" || p.Guess == "" {
		http.Error(w, `{"error":"invalid"}`, http.StatusBadRequest)
		return
	}
	loc := catalog.NormalizeLocale(p.Locale)

	date, _ := d.todayTarget()

	// Find session.
	key := uid + "|" + date
	d.mu.Lock()
	sess, ok := d.sessions[key]
	d.mu.Unlock()
	if !ok || sess.ID != p.GameID {
		http.Error(w, `{"error":"no_session"}`, http.StatusConflict)
		return
	}

	fid, err := d.srv.cat.Resolve(loc, p.Guess)
	if err != nil {
		http.Error(w, `{"error":"invalid_guess"}`, http.StatusBadRequest)
		return
	}

	d.mu.Lock()
	result, err := sess.Submit(fid)
	d.mu.Unlock()
	switch {
	case errors.Is(err, game.ErrFinished):
		_ = json.NewEncoder(w).Encode(dailyGuessRes{State: "locked", GuessesUsed: len(sess.Guesses)})
		return
	case errors.Is(err, game.ErrDuplicateGuess):
		http.Error(w, `{"error":"duplicate_guess"}`, http.StatusConflict)
		return
	case err != nil:
		http.Error(w, `{"error":"invalid_guess"}`, http.StatusBadRequest)
		return
	}

	// Persist once finished, then answer.
	if result.State != game.StatePlaying {
		elapsed := int(time.Since(sess.StartedAt).Milliseconds())
		_ = d.store.InsertResult(r.Context(), daily.Result{
			UserID: uid, Date: date, CountryFID: sess.TargetID,
			Guesses: result.GuessesUsed, Won: result.State == game.StateWon, ElapsedMs: elapsed,
		})
	}
	view := d.srv.guessViewFor(sess, fid, loc)
	_ = json.NewEncoder(w).Encode(dailyGuessRes{State: result.State, GuessesUsed: result.GuessesUsed, Guess: &view})
}

// -----------------------------------------------------------------------------
// /daily/leaderboard

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default
// today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date, _ = d.todayTarget()
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(lbRes{Date: date, Top: rows})
}
