// internal/httpserver/server.go
//
// HTTP server wiring for the jielong backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Game endpoints (optional auth): POST /game/new, per-game actions.
//   - Lexicon endpoints: word lookup, search, stats.
//   - Leaderboard: /scores/top.
//
// Accounts, JWT/cookie handling, and the anonymous session cookie live in
// auth.go.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Optional auth decorates requests with user context when a valid
//     token is present; routes still run for guests.
//   - The opponent move handler may block for the LLM round trip; the
//     route timeout is sized for that.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/yuchen-lin/jielong/internal/config"
	appdb "github.com/yuchen-lin/jielong/internal/db"
	"github.com/yuchen-lin/jielong/internal/game"
	"github.com/yuchen-lin/jielong/internal/lexicon"
	"github.com/yuchen-lin/jielong/internal/llm"
	"github.com/yuchen-lin/jielong/internal/store"
)

// Server bundles router, session registry, lexicon, LLM client, and DB.
type Server struct {
	r        *chi.Mux
	cfg      config.Config
	sessions store.Store
	lex      lexicon.Store
	llm      *llm.Client
	db       *sql.DB
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg config.Config, sessions store.Store, lex lexicon.Store, client *llm.Client, db *sql.DB) *Server {
	s := &Server{r: chi.NewRouter(), cfg: cfg, sessions: sessions, lex: lex, llm: client, db: db}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(60 * time.Second)) // the ai-move route waits on the LLM
	s.r.Use(jsonContentType)
	s.r.Use(s.cors)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"jielong","endpoints":["/health","POST /game/new","/lexicon/*","/auth/*","/scores/top"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// Game endpoints use optional auth: guests can play.
	s.r.With(s.withOptionalAuth()).Post("/game/new", s.handleNewGame)
	s.r.With(s.withOptionalAuth()).Route("/game/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetGame)
		r.Post("/move", s.handleMove)
		r.Post("/ai-move", s.handleOpponentMove)
		r.Post("/hint", s.handleHint)
		r.Post("/forfeit", s.handleForfeit)
	})

	// Lexicon
	s.r.Get("/lexicon/word/{word}", s.handleLexiconWord)
	s.r.Get("/lexicon/search", s.handleLexiconSearch)
	s.r.Get("/lexicon/stats", s.handleLexiconStats)

	// Leaderboard
	s.r.Get("/scores/top", s.handleTopScores)

	// Auth
	s.mountAuthRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.ClientOrigin)
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

// ------------------------------ GAME ---------------------------------------

// newGameReq/Res payloads for POST /game/new.
type newGameReq struct {
	Mode           string `json:"mode"`       // "dictionary" (default) | "llm"
	Difficulty     string `json:"difficulty"` // overrides server default
	TimeLimit      *int   `json:"timeLimit"`
	AllowHomophone *bool  `json:"allowHomophone"`
	MaxHints       *int   `json:"maxHints"`
	StartWord      string `json:"startWord"` // optional fixed start (testing)
}
type newGameRes struct {
	GameID    string        `json:"gameId"`
	StartWord string        `json:"startWord"`
	Mode      string        `json:"mode"`
	State     game.Snapshot `json:"state"`
}

// moveRes is the shared response shape for state-changing game routes.
type moveRes struct {
	Verdict *game.Verdict        `json:"verdict,omitempty"`
	Word    string               `json:"word,omitempty"`
	State   game.Snapshot        `json:"state"`
	Score   *game.ScoreBreakdown `json:"score,omitempty"`
}

// handleNewGame builds an engine for the requested mode and starts it.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	_ = json.NewDecoder(r.Body).Decode(&req)

	cfg := game.Config{
		Difficulty:     s.cfg.GameDifficulty,
		TimeLimit:      s.cfg.GameTimeLimit,
		AllowHomophone: s.cfg.GameAllowHomophone,
		MaxHints:       s.cfg.GameMaxHints,
	}
	switch req.Difficulty {
	case game.DifficultyEasy, game.DifficultyNormal, game.DifficultyHard:
		cfg.Difficulty = req.Difficulty
	case "":
	default:
		http.Error(w, `{"error":"invalid difficulty"}`, http.StatusBadRequest)
		return
	}
	if req.TimeLimit != nil && *req.TimeLimit >= 0 {
		cfg.TimeLimit = *req.TimeLimit
	}
	if req.AllowHomophone != nil {
		cfg.AllowHomophone = *req.AllowHomophone
	}
	if req.MaxHints != nil && *req.MaxHints >= 0 {
		cfg.MaxHints = *req.MaxHints
	}

	mode := req.Mode
	if mode == "" {
		mode = "dictionary"
	}
	var validator game.Validator
	switch mode {
	case "dictionary":
		validator = game.NewDictionaryValidator(s.lex)
	case "llm":
		validator = game.NewLLMValidator(s.llm)
	default:
		http.Error(w, `{"error":"invalid mode"}`, http.StatusBadRequest)
		return
	}

	eng := game.NewEngine(cfg, s.lex, validator, s.llm)
	start, err := eng.Start(r.Context(), strings.TrimSpace(req.StartWord))
	if err != nil {
		log.Error().Err(err).Msg("start game")
		http.Error(w, `{"error":"start_failed"}`, http.StatusInternalServerError)
		return
	}

	sess := &store.Session{Engine: eng, Mode: mode, AnonID: s.ensureAnonID(w, r)}
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		sess.OwnerID = me.ID
	}
	if err := s.sessions.Create(r.Context(), sess); err != nil {
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}

	_ = json.NewEncoder(w).Encode(newGameRes{
		GameID:    sess.ID,
		StartWord: start,
		Mode:      mode,
		State:     eng.Snapshot(),
	})
}

// session resolves the {id} route param to a live session.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*store.Session, bool) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

// handleGetGame returns the current snapshot.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	_ = json.NewEncoder(w).Encode(moveRes{State: sess.Engine.Snapshot()})
}

// handleMove applies one player move, then (dictionary mode) checks for
// exhaustion of the opponent's continuations.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Word string `json:"word"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}

	verdict := sess.Engine.SubmitPlayerMove(r.Context(), req.Word)
	if verdict.Valid {
		if winner, over := sess.Engine.CheckGameOver(r.Context()); over {
			sess.Engine.End(winner, game.ReasonCannotContinue)
		}
	}
	s.respondWithState(w, r, sess, moveRes{Verdict: &verdict})
}

// handleOpponentMove runs the opponent's turn. Opponent failures surface
// as a finished game in the snapshot, not as an HTTP error.
func (s *Server) handleOpponentMove(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	word, err := sess.Engine.RequestOpponentMove(r.Context())
	if err != nil {
		// Precondition failures (not opponent's turn, request already in
		// flight, stale result after reset) are conflicts, not 500s.
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusConflict)
		return
	}
	if word != "" {
		if winner, over := sess.Engine.CheckGameOver(r.Context()); over {
			sess.Engine.End(winner, game.ReasonCannotContinue)
		}
	}
	s.respondWithState(w, r, sess, moveRes{Word: word})
}

// handleHint returns one hint word, or "" when none is available.
func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	hint := sess.Engine.UseHint(r.Context())
	_ = json.NewEncoder(w).Encode(map[string]any{
		"hint":  hint,
		"state": sess.Engine.Snapshot(),
	})
}

// handleForfeit concedes the game.
func (s *Server) handleForfeit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Engine.Forfeit()
	s.respondWithState(w, r, sess, moveRes{})
}

// respondWithState attaches the snapshot (and, for finished games, the
// score breakdown) and persists the outcome once.
func (s *Server) respondWithState(w http.ResponseWriter, r *http.Request, sess *store.Session, res moveRes) {
	snap := sess.Engine.Snapshot()
	res.State = snap
	if snap.Over && snap.Result != nil {
		score := sess.Engine.FinalScore()
		res.Score = &score
		s.persistOutcome(r.Context(), sess, snap, score)
	}
	_ = json.NewEncoder(w).Encode(res)
}

// persistOutcome writes the score row and bumps user stats. Best effort;
// failures are logged, not surfaced.
func (s *Server) persistOutcome(ctx context.Context, sess *store.Session, snap game.Snapshot, score game.ScoreBreakdown) {
	row := appdb.ScoreRow{
		GameID:     sess.ID,
		UserID:     sess.OwnerID,
		AnonID:     sess.AnonID,
		Winner:     snap.Result.Winner,
		EndReason:  snap.Result.EndReason,
		Rounds:     snap.Result.TotalRounds,
		WordCount:  snap.Result.PlayerWordCount,
		Score:      score.TotalScore,
		Rating:     score.Rating,
		Difficulty: sess.Engine.Config().Difficulty,
		Duration:   snap.Result.DurationSeconds,
	}
	inserted, err := appdb.InsertScore(ctx, s.db, row)
	if err != nil {
		log.Warn().Err(err).Str("gameId", sess.ID).Msg("insert score row")
		return
	}
	if inserted && sess.OwnerID != "" {
		if err := s.bumpStats(sess.OwnerID, snap.Result.Winner == game.WinnerPlayer); err != nil {
			log.Warn().Err(err).Str("user", sess.OwnerID).Msg("bump stats")
		}
	}
}

// ------------------------------ LEXICON ------------------------------------

// handleLexiconWord returns the full entry for an idiom.
func (s *Server) handleLexiconWord(w http.ResponseWriter, r *http.Request) {
	word := chi.URLParam(r, "word")
	it, err := s.lex.Get(r.Context(), word)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(it)
}

// handleLexiconSearch finds idioms by keyword (?q=, ?limit=).
func (s *Server) handleLexiconSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		http.Error(w, `{"error":"missing q"}`, http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	out, err := s.lex.Search(r.Context(), q, limit)
	if err != nil {
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(out)
}

// handleLexiconStats reports the dictionary size.
func (s *Server) handleLexiconStats(w http.ResponseWriter, r *http.Request) {
	n, err := s.lex.TotalCount(r.Context())
	if err != nil {
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]int{"idioms": n})
}

// ---------------------------- LEADERBOARD ----------------------------------

// handleTopScores returns the best player-win scores.
func (s *Server) handleTopScores(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := appdb.TopScores(r.Context(), s.db, limit)
	if err != nil {
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(rows)
}
