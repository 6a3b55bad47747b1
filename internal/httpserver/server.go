// internal/httpserver/server.go
//
// HTTP server wiring for the Worldle backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/countries", "/arrow".
//   - Game endpoints (optional auth): POST /game/new, GET /game/state,
//     POST /game/guess, POST /game/reset.
//   - Daily Challenge endpoints (optional auth): mounted under /daily.
//   - Auth + profile/stat endpoints (require auth): /auth/*, /stats/me,
//     /games/mine.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - The mystery target never appears in any response while a round is in
//     the playing state; its name is revealed only once won or lost.
//   - Game-history writes are best effort: a failed bookkeeping INSERT is
//     logged, never surfaced to the player.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/spatiallit/worldle-server/internal/arrow"
	"github.com/spatiallit/worldle-server/internal/catalog"
	"github.com/spatiallit/worldle-server/internal/config"
	"github.com/spatiallit/worldle-server/internal/game"
	"github.com/spatiallit/worldle-server/internal/store"
)

// Server bundles router, session store, catalog, and DB handle.
type Server struct {
	r     *chi.Mux
	store store.Store
	db    *sql.DB
	cat   *catalog.Catalog
	cfg   config.Config
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg config.Config, cat *catalog.Catalog, st store.Store, db *sql.DB) *Server {
	s := &Server{r: chi.NewRouter(), store: st, db: db, cat: cat, cfg: cfg}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(corsFor(cfg.ClientOrigin))       // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"worldle-go","endpoints":["/health","/countries","POST /game/new","GET /game/state","POST /game/guess","POST /game/reset","/daily/*","/auth/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/debug/catalog", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]int{
			"countries": s.cat.Len(),
			"locales":   len(catalog.Locales),
		})
	})

	// Catalog + presentation helpers (public)
	s.r.Get("/countries", s.handleCountries)
	s.r.Get("/arrow", s.handleArrow)

	// Game endpoints — OPTIONAL AUTH (guests can play)
	s.r.With(s.withOptionalAuth()).Post("/game/new", s.handleNewGame)
	s.r.With(s.withOptionalAuth()).Get("/game/state", s.handleGameState)
	s.r.With(s.withOptionalAuth()).Post("/game/guess", s.handleGuess)
	s.r.With(s.withOptionalAuth()).Post("/game/reset", s.handleReset)

	// Daily Challenge — OPTIONAL AUTH (guests can play; result persisted)
	s.mountDaily(s.r.With(s.withOptionalAuth()))

	// Auth + profile/stats (require auth)
	s.mountAuthRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Handler exposes the router (used by main's http.Server and by tests).
func (s *Server) Handler() http.Handler { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFor enables credentialed CORS for a single origin.
func corsFor(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// --------------------------- catalog & icons --------------------------------

// countriesRes lists display names for the guess dropdown, catalog order.
type countriesRes struct {
	Locale string   `json:"locale"`
	Names  []string `json:"names"`
}

// handleCountries returns the locale-appropriate display-name list.
func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	loc := catalog.NormalizeLocale(r.URL.Query().Get("locale"))
	_ = json.NewEncoder(w).Encode(countriesRes{Locale: string(loc), Names: s.cat.Names(loc)})
}

// handleArrow serves the rotated direction-arrow icon for a bearing.
func (s *Server) handleArrow(w http.ResponseWriter, r *http.Request) {
	bearing, err := strconv.ParseFloat(r.URL.Query().Get("bearing"), 64)
	if err != nil {
		http.Error(w, `{"error":"bad_bearing"}`, http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(arrow.SVG(bearing))
}

// ------------------------------ GAME ---------------------------------------

// guessView is one revealed guess as the client renders it.
type guessView struct {
	FID        int64     `json:"fid"`
	Name       string    `json:"name"`
	DistanceKm float64   `json:"distanceKm"`
	Bearing    float64   `json:"bearing"`
	Proximity  float64   `json:"proximity"`
	Tier       game.Tier `json:"tier"`
	Correct    bool      `json:"correct"`
}

func (s *Server) guessViewFor(sess *game.Session, fid int64, loc catalog.Locale) guessView {
	res, _ := sess.Result(fid)
	rec, _ := s.cat.ByFID(fid)
	return guessView{
		FID:        fid,
		Name:       rec.Name(loc),
		DistanceKm: math.Round(res.DistanceKm),
		Bearing:    round2(res.Bearing),
		Proximity:  round2(res.Proximity),
		Tier:       res.Tier,
		Correct:    res.Correct,
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// newGameReq/Res payloads for POST /game/new.
type newGameReq struct {
	Locale string `json:"locale"`
}
type newGameRes struct {
	GameID string `json:"gameId"`
}

// handleNewGame starts a round with a random mystery country and persists a
// DB "owner" row (either user_id or anonymous_id) for history/stats. The
// response carries only the opaque game ID — never the target.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	_ = json.NewDecoder(r.Body).Decode(&req)

	sess, err := game.New(s.cat)
	if err != nil {
		log.Error().Err(err).Msg("create session")
		http.Error(w, `{"error":"create_failed"}`, http.StatusInternalServerError)
		return
	}
	if err := s.store.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save session")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}

	s.insertGameRow(w, r, sess)
	_ = json.NewEncoder(w).Encode(newGameRes{GameID: sess.ID})
}

// insertGameRow records the owner of a fresh round. The target fid is only
// written once the round finishes, so the DB never holds the answer to a
// live game.
func (s *Server) insertGameRow(w http.ResponseWriter, r *http.Request, sess *game.Session) {
	now := time.Now().UTC().Format(time.RFC3339)
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		_, err := s.db.Exec(`INSERT INTO games (id, user_id, started_at, status, guesses)
		                     VALUES (?,?,?,?,0)`, sess.ID, me.ID, now, string(game.StatePlaying))
		if err != nil {
			log.Warn().Err(err).Str("gameId", sess.ID).Msg("insert user game row")
		}
	} else {
		anon := s.ensureAnonID(w, r)
		_, err := s.db.Exec(`INSERT INTO games (id, anonymous_id, started_at, status, guesses)
		                     VALUES (?,?,?,?,0)`, sess.ID, anon, now, string(game.StatePlaying))
		if err != nil {
			log.Warn().Err(err).Str("gameId", sess.ID).Msg("insert anon game row")
		}
	}
}

// targetView reveals the mystery country once the round has finished.
type targetView struct {
	FID  int64  `json:"fid"`
	Name string `json:"name"`
}

// stateRes is the SessionView for GET /game/state.
type stateRes struct {
	GameID           string      `json:"gameId"`
	State            game.State  `json:"state"`
	MaxGuesses       int         `json:"maxGuesses"`
	GuessesUsed      int         `json:"guessesUsed"`
	GuessesRemaining int         `json:"guessesRemaining"`
	Guesses          []guessView `json:"guesses"`
	Target           *targetView `json:"target,omitempty"` // won/lost only
}

// handleGameState renders the current round: every recorded guess enriched
// with distance/bearing/proximity, and the target identity if (and only if)
// the round is over.
func (s *Server) handleGameState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromQuery(w, r)
	if !ok {
		return
	}
	loc := catalog.NormalizeLocale(r.URL.Query().Get("locale"))

	res := stateRes{
		GameID:           sess.ID,
		State:            sess.State(),
		MaxGuesses:       game.MaxGuesses,
		GuessesUsed:      len(sess.Guesses),
		GuessesRemaining: game.MaxGuesses - len(sess.Guesses),
		Guesses:          make([]guessView, 0, len(sess.Guesses)),
	}
	for _, fid := range sess.Guesses {
		res.Guesses = append(res.Guesses, s.guessViewFor(sess, fid, loc))
	}
	if res.State != game.StatePlaying {
		rec, _ := s.cat.ByFID(sess.TargetID)
		res.Target = &targetView{FID: sess.TargetID, Name: rec.Name(loc)}
	}
	_ = json.NewEncoder(w).Encode(res)
}

// guessReq/Res payloads for POST /game/guess.
type guessReq struct {
	GameID string `json:"gameId"`
	Guess  string `json:"guess"`  // display name in the chosen locale
	Locale string `json:"locale"`
}
type guessRes struct {
	Applied          bool       `json:"applied"` // false on the empty-submission no-op
	State            game.State `json:"state"`
	GuessesUsed      int        `json:"guessesUsed"`
	GuessesRemaining int        `json:"guessesRemaining"`
	Guess            *guessView `json:"guess,omitempty"`
}

// handleGuess resolves the submitted display name and applies it to the
// round.
//
// Outcomes:
//   - empty submission     → 200, applied=false, state echoed (no-op)
//   - unresolvable name    → 400 invalid_guess
//   - duplicate country    → 409 duplicate_guess (attempt not counted)
//   - round already over   → 409 game_finished
//   - accepted             → 200 with the revealed distance/bearing/tier
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	sess, ok := s.sessionByID(w, r, req.GameID)
	if !ok {
		return
	}
	loc := catalog.NormalizeLocale(req.Locale)

	// Re-rendering without an actual submission must never consume a guess.
	if strings.TrimSpace(req.Guess) == "" {
		_ = json.NewEncoder(w).Encode(guessRes{
			Applied:          false,
			State:            sess.State(),
			GuessesUsed:      len(sess.Guesses),
			GuessesRemaining: game.MaxGuesses - len(sess.Guesses),
		})
		return
	}

	fid, err := s.cat.Resolve(loc, req.Guess)
	if err != nil {
		http.Error(w, `{"error":"invalid_guess"}`, http.StatusBadRequest)
		return
	}

	result, err := sess.Submit(fid)
	switch {
	case errors.Is(err, game.ErrDuplicateGuess):
		http.Error(w, `{"error":"duplicate_guess"}`, http.StatusConflict)
		return
	case errors.Is(err, game.ErrFinished):
		http.Error(w, `{"error":"game_finished"}`, http.StatusConflict)
		return
	case err != nil:
		http.Error(w, `{"error":"invalid_guess"}`, http.StatusBadRequest)
		return
	}

	if err := s.store.Save(r.Context(), sess); err != nil {
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	s.recordGuess(w, r, sess, result.State)

	view := s.guessViewFor(sess, fid, loc)
	_ = json.NewEncoder(w).Encode(guessRes{
		Applied:          true,
		State:            result.State,
		GuessesUsed:      result.GuessesUsed,
		GuessesRemaining: game.MaxGuesses - result.GuessesUsed,
		Guess:            &view,
	})
}

// recordGuess persists counters/history (best effort, non-fatal if it fails)
// and bumps user stats when the round finishes.
func (s *Server) recordGuess(w http.ResponseWriter, r *http.Request, sess *game.Session, state game.State) {
	me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	ownerClause := `anonymous_id=?`
	ownerArg := any(s.ensureAnonID(w, r))
	if me != nil {
		ownerClause = `user_id=?`
		ownerArg = any(me.ID)
	}

	tx, err := s.db.Begin()
	if err != nil {
		log.Warn().Err(err).Msg("begin history tx")
		return
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`UPDATE games SET guesses = guesses + 1 WHERE id=? AND `+ownerClause, sess.ID, ownerArg); err != nil {
		log.Warn().Err(err).Msg("update guesses")
	}

	if state == game.StateWon || state == game.StateLost {
		if _, err := tx.Exec(`UPDATE games SET status=?, country_fid=?, finished_at=? WHERE id=? AND `+ownerClause,
			string(state), sess.TargetID, time.Now().UTC().Format(time.RFC3339), sess.ID, ownerArg); err != nil {
			log.Warn().Err(err).Msg("finish game")
		}
		if me != nil {
			if err := s.bumpStats(tx, me.ID, state == game.StateWon); err != nil {
				log.Warn().Err(err).Str("user", me.ID).Msg("bump stats")
			}
		}
	}
	_ = tx.Commit()
}

// resetReq/Res payloads for POST /game/reset.
type resetReq struct {
	GameID string `json:"gameId"`
}

// handleReset destroys the round and immediately starts a fresh one with an
// independently chosen target (repeats allowed — no history is kept).
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if req.GameID != "" {
		if err := s.store.Delete(r.Context(), req.GameID); err != nil {
			log.Warn().Err(err).Str("gameId", req.GameID).Msg("delete session")
		}
	}

	sess, err := game.New(s.cat)
	if err != nil {
		http.Error(w, `{"error":"create_failed"}`, http.StatusInternalServerError)
		return
	}
	if err := s.store.Save(r.Context(), sess); err != nil {
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	s.insertGameRow(w, r, sess)
	_ = json.NewEncoder(w).Encode(newGameRes{GameID: sess.ID})
}

// ---------------------------- session lookup --------------------------------

func (s *Server) sessionByID(w http.ResponseWriter, r *http.Request, id string) (*game.Session, bool) {
	if id == "" {
		http.Error(w, `{"error":"missing_game_id"}`, http.StatusBadRequest)
		return nil, false
	}
	sess, err := s.store.Get(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func (s *Server) sessionFromQuery(w http.ResponseWriter, r *http.Request) (*game.Session, bool) {
	return s.sessionByID(w, r, r.URL.Query().Get("gameId"))
}
