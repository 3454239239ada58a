// internal/game/engine.go
//
// Turn controller for a single idiom-chain game.
// Responsibilities:
//   - Own and mutate the game state: NotStarted → Active (player ⇄
//     opponent) → Over.
//   - Route every proposed move through the configured Validator.
//   - Drive the opponent: generation call, candidate validation, fallback
//     substitution, failure-to-win conversion.
//   - Detect terminal conditions and produce the immutable Result.
//
// Mutating methods serialize on an internal mutex. The slow calls
// (opponent generation, remote judgment) run between a precondition
// capture and an epoch-checked apply, so a Start/Reset/End that happens
// mid-flight makes the stale outcome get discarded instead of applied.

package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yuchen-lin/jielong/internal/idiom"
	"github.com/yuchen-lin/jielong/internal/lexicon"
	"github.com/yuchen-lin/jielong/internal/llm"
)

// Opponent generates chain moves. *llm.Client satisfies it.
type Opponent interface {
	GenerateIdiom(ctx context.Context, char, difficulty string, used []string) (string, error)
}

// Engine errors for precondition failures on the opponent path.
var (
	ErrNotActive       = errors.New("game not started or already over")
	ErrNotOpponentTurn = errors.New("not the opponent's turn")
	ErrNoLastWord      = errors.New("no previous word to chain from")
	ErrRequestInFlight = errors.New("an opponent request is already in flight")
	ErrStaleResult     = errors.New("opponent result discarded: game was reset")
	ErrEmptyLexicon    = errors.New("lexicon has no words to start from")
)

// Engine runs one game.
type Engine struct {
	cfg       Config
	store     lexicon.Store
	validator Validator
	fallback  *FallbackSelector
	opponent  Opponent

	// Observer callbacks; nil callbacks are skipped. Invoked outside the
	// state lock.
	OnStateChange      func()
	OnOpponentThinking func()
	OnOpponentMove     func(word string)

	mu             sync.Mutex
	round          int
	lastWord       string
	used           map[string]bool
	history        []string
	hintsRemaining int
	playerTurn     bool
	started        bool
	over           bool
	result         *Result
	startTime      time.Time
	endTime        time.Time
	epoch          uint64
	opponentBusy   bool
}

// NewEngine wires a controller. The validator is fixed for the engine's
// lifetime; the fallback selector follows the configured difficulty.
func NewEngine(cfg Config, st lexicon.Store, v Validator, opp Opponent) *Engine {
	return &Engine{
		cfg:       cfg,
		store:     st,
		validator: v,
		fallback:  NewFallbackSelector(st, cfg.Difficulty),
		opponent:  opp,
		used:      make(map[string]bool),
	}
}

// Config returns the engine's immutable settings.
func (e *Engine) Config() Config { return e.cfg }

// Start resets all state and begins a new game. If startingWord is given
// and exists in the lexicon it is used; otherwise a random word is drawn.
// Returns the start word. The player moves first.
func (e *Engine) Start(ctx context.Context, startingWord string) (string, error) {
	start := ""
	if startingWord != "" {
		ok, err := e.store.Exists(ctx, startingWord)
		if err != nil {
			return "", err
		}
		if ok {
			start = startingWord
		} else {
			log.Warn().Str("word", startingWord).Msg("requested start word not in lexicon, drawing random")
		}
	}
	if start == "" {
		it, err := e.store.Random(ctx, 0)
		if err != nil {
			return "", ErrEmptyLexicon
		}
		start = it.Word
	}

	e.mu.Lock()
	e.epoch++
	e.round = 0
	e.lastWord = start
	e.used = map[string]bool{start: true}
	e.history = []string{start}
	e.hintsRemaining = e.cfg.MaxHints
	e.playerTurn = true
	e.started = true
	e.over = false
	e.result = nil
	e.startTime = time.Now()
	e.endTime = time.Time{}
	e.mu.Unlock()

	log.Info().Str("start", start).Str("difficulty", e.cfg.Difficulty).Msg("game started")
	e.notifyState()
	return start, nil
}

// SubmitPlayerMove validates and, when valid, applies one player move.
// Invalid moves change nothing; the verdict is returned either way.
func (e *Engine) SubmitPlayerMove(ctx context.Context, word string) Verdict {
	e.mu.Lock()
	if !e.started || e.over {
		e.mu.Unlock()
		return invalid("游戏未开始或已结束")
	}
	if !e.playerTurn {
		e.mu.Unlock()
		return invalid("现在不是你的回合")
	}
	epoch := e.epoch
	prev := e.lastWord
	used := e.copyUsed()
	e.mu.Unlock()

	// Validation may block on a remote judgment; run it off the lock.
	verdict := e.validator.Validate(ctx, word, prev, used, e.cfg.AllowHomophone)
	if !verdict.Valid {
		log.Debug().Str("word", word).Str("reason", verdict.Reason).Msg("player move rejected")
		return verdict
	}

	e.mu.Lock()
	if e.epoch != epoch || !e.started || e.over || !e.playerTurn {
		e.mu.Unlock()
		return invalid("游戏未开始或已结束")
	}
	e.accept(word)
	e.mu.Unlock()

	log.Info().Str("word", word).Msg("player move accepted")
	e.notifyState()
	return verdict
}

// RequestOpponentMove obtains, validates, and applies the opponent's move.
// Generation failures and unusable candidates convert into a player win;
// see the failure policy in the package docs. Returns the accepted word.
func (e *Engine) RequestOpponentMove(ctx context.Context) (string, error) {
	e.mu.Lock()
	if !e.started || e.over {
		e.mu.Unlock()
		return "", ErrNotActive
	}
	if e.playerTurn {
		e.mu.Unlock()
		return "", ErrNotOpponentTurn
	}
	if e.lastWord == "" {
		e.mu.Unlock()
		return "", ErrNoLastWord
	}
	if e.opponentBusy {
		e.mu.Unlock()
		return "", ErrRequestInFlight
	}
	e.opponentBusy = true
	epoch := e.epoch
	prev := e.lastWord
	char := idiom.LastRune(prev)
	used := e.copyUsed()
	history := append([]string(nil), e.history...)
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.opponentBusy = false
		e.mu.Unlock()
	}()

	if e.OnOpponentThinking != nil {
		e.OnOpponentThinking()
	}

	candidate, err := e.opponent.GenerateIdiom(ctx, char, e.cfg.Difficulty, history)
	if err != nil {
		// Transport failure is terminal: the player wins, no retries.
		log.Error().Err(err).Msg("opponent generation failed")
		return "", e.failOpponent(epoch, ReasonConnectionFailed)
	}
	log.Info().Str("candidate", candidate).Str("char", char).Msg("opponent proposed")

	verdict := e.validator.Validate(ctx, candidate, prev, used, e.cfg.AllowHomophone)
	if !verdict.Valid {
		log.Warn().Str("candidate", candidate).Str("reason", verdict.Reason).Msg("opponent candidate rejected")
		if candidate == llm.FailureSentinel || candidate == "" || idiom.RuneLen(candidate) < idiom.Length {
			return "", e.failOpponent(epoch, ReasonCannotContinue)
		}
		sub, err := e.fallback.Select(ctx, char, used)
		if err != nil || sub == "" {
			return "", e.failOpponent(epoch, ReasonCannotContinue)
		}
		log.Info().Str("fallback", sub).Msg("substituted fallback move")
		candidate = sub
	}

	e.mu.Lock()
	if e.epoch != epoch {
		e.mu.Unlock()
		return "", ErrStaleResult
	}
	if !e.started || e.over || e.playerTurn {
		e.mu.Unlock()
		return "", ErrNotActive
	}
	e.accept(candidate)
	e.mu.Unlock()

	e.notifyState()
	if e.OnOpponentMove != nil {
		e.OnOpponentMove(candidate)
	}
	return candidate, nil
}

// failOpponent ends the game in the player's favor unless the game was
// reset while the opponent call was in flight.
func (e *Engine) failOpponent(epoch uint64, reason string) error {
	e.mu.Lock()
	if e.epoch != epoch {
		e.mu.Unlock()
		return ErrStaleResult
	}
	e.mu.Unlock()
	e.End(WinnerPlayer, reason)
	return nil
}

// UseHint returns an unused continuation for the player, consuming one
// hint. Returns "" (and consumes nothing) when no hint is available.
func (e *Engine) UseHint(ctx context.Context) string {
	e.mu.Lock()
	if !e.started || e.over || !e.playerTurn || e.hintsRemaining <= 0 || e.lastWord == "" {
		e.mu.Unlock()
		return ""
	}
	char := idiom.LastRune(e.lastWord)
	used := e.copyUsed()
	e.mu.Unlock()

	hints, err := lexicon.Hints(ctx, e.store, char, 1, used)
	if err != nil || len(hints) == 0 {
		return ""
	}

	e.mu.Lock()
	if !e.started || e.over || e.hintsRemaining <= 0 {
		e.mu.Unlock()
		return ""
	}
	e.hintsRemaining--
	e.mu.Unlock()

	log.Info().Str("hint", hints[0]).Msg("hint used")
	return hints[0]
}

// CheckGameOver reports the winner when the side to move has no legal
// continuation. Only validators that can enumerate continuations take
// part; under LLM judgment this is always a no-op.
func (e *Engine) CheckGameOver(ctx context.Context) (string, bool) {
	checker, ok := e.validator.(continuationChecker)
	if !ok {
		return "", false
	}

	e.mu.Lock()
	if !e.started || e.over || e.lastWord == "" {
		e.mu.Unlock()
		return "", false
	}
	char := idiom.LastRune(e.lastWord)
	used := e.copyUsed()
	playerTurn := e.playerTurn
	e.mu.Unlock()

	if checker.HasContinuation(ctx, char, used) {
		return "", false
	}
	if playerTurn {
		return WinnerOpponent, true
	}
	return WinnerPlayer, true
}

// End marks the game over and produces the Result. Calling End on a
// finished game returns the existing result unchanged.
func (e *Engine) End(winner, reason string) Result {
	e.mu.Lock()
	if e.over && e.result != nil {
		r := *e.result
		e.mu.Unlock()
		return r
	}
	e.over = true
	e.epoch++ // discard any in-flight opponent result
	e.endTime = time.Now()

	duration := 0
	if !e.startTime.IsZero() {
		duration = int(e.endTime.Sub(e.startTime).Seconds())
	}
	// Strict alternation starting with the player: even history indexes
	// are player moves.
	playerCount := (len(e.history) + 1) / 2
	r := Result{
		Winner:            winner,
		TotalRounds:       e.round,
		PlayerWordCount:   playerCount,
		OpponentWordCount: len(e.history) - playerCount,
		EndReason:         reason,
		DurationSeconds:   duration,
	}
	e.result = &r
	e.mu.Unlock()

	log.Info().Str("winner", winner).Str("reason", reason).Int("rounds", r.TotalRounds).Msg("game over")
	e.notifyState()
	return r
}

// Forfeit concedes the game to the opponent.
func (e *Engine) Forfeit() Result {
	return e.End(WinnerOpponent, ReasonForfeit)
}

// Reset returns the engine to NotStarted and invalidates any in-flight
// opponent call.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.epoch++
	e.round = 0
	e.lastWord = ""
	e.used = make(map[string]bool)
	e.history = nil
	e.hintsRemaining = e.cfg.MaxHints
	e.playerTurn = true
	e.started = false
	e.over = false
	e.result = nil
	e.startTime = time.Time{}
	e.endTime = time.Time{}
	e.mu.Unlock()

	log.Info().Msg("game reset")
	e.notifyState()
}

// Snapshot copies the current state for callers.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Snapshot{
		Round:          e.round,
		LastWord:       e.lastWord,
		History:        append([]string(nil), e.history...),
		HintsRemaining: e.hintsRemaining,
		HintsUsed:      e.cfg.MaxHints - e.hintsRemaining,
		PlayerTurn:     e.playerTurn,
		Started:        e.started,
		Over:           e.over,
	}
	if e.result != nil {
		r := *e.result
		s.Result = &r
	}
	return s
}

// TimeRemaining reports the seconds left on the game clock, or 0 when the
// game has no limit or the limit is exhausted.
func (e *Engine) TimeRemaining() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cfg.TimeLimit <= 0 || e.startTime.IsZero() {
		return 0
	}
	ref := time.Now()
	if !e.endTime.IsZero() {
		ref = e.endTime
	}
	left := e.cfg.TimeLimit - int(ref.Sub(e.startTime).Seconds())
	if left < 0 {
		return 0
	}
	return left
}

// FinalScore computes the score breakdown for a finished game.
// Returns a zero value when the game is not over yet.
func (e *Engine) FinalScore() ScoreBreakdown {
	e.mu.Lock()
	if e.result == nil {
		e.mu.Unlock()
		return ScoreBreakdown{}
	}
	r := *e.result
	hintsUsed := e.cfg.MaxHints - e.hintsRemaining
	e.mu.Unlock()
	return Score(r, e.cfg.Difficulty, hintsUsed, e.TimeRemaining())
}

// accept records one validated move and flips the turn. Caller holds the
// lock. The round counter increments when the turn returns to the player.
func (e *Engine) accept(word string) {
	e.used[word] = true
	e.history = append(e.history, word)
	e.lastWord = word
	e.playerTurn = !e.playerTurn
	if e.playerTurn {
		e.round++
	}
}

func (e *Engine) copyUsed() map[string]bool {
	out := make(map[string]bool, len(e.used))
	for k := range e.used {
		out[k] = true
	}
	return out
}

func (e *Engine) notifyState() {
	if e.OnStateChange != nil {
		e.OnStateChange()
	}
}
