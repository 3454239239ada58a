// internal/game/types.go
//
// Core type definitions for the idiom-chain game engine.
// Defines:
//   - Difficulty levels and winner/end-reason constants.
//   - Config: immutable per-game settings.
//   - Verdict: outcome of validating one move.
//   - Result: immutable summary produced when a game ends.
//   - Snapshot: read-only view of the live state for callers.

package game

// Difficulty levels. Difficulty drives fallback policy and the opponent's
// sampling temperature.
const (
	DifficultyEasy   = "easy"
	DifficultyNormal = "normal"
	DifficultyHard   = "hard"
)

// Winner identifiers.
const (
	WinnerPlayer   = "player"
	WinnerOpponent = "ai"
)

// End reasons for opponent-side failures and forfeits.
const (
	ReasonCannotContinue   = "AI无法接龙"
	ReasonConnectionFailed = "AI连接失败"
	ReasonForfeit          = "玩家认输"
	ReasonTimeout          = "超时"
)

// Config holds per-game settings, fixed for the lifetime of one game.
type Config struct {
	Difficulty     string `json:"difficulty"`     // easy | normal | hard
	TimeLimit      int    `json:"timeLimit"`      // seconds per game, 0 = unlimited
	AllowHomophone bool   `json:"allowHomophone"` // chain on homophones too
	MaxHints       int    `json:"maxHints"`       // hints per game
}

// DefaultConfig mirrors the out-of-the-box settings.
func DefaultConfig() Config {
	return Config{
		Difficulty:     DifficultyNormal,
		TimeLimit:      60,
		AllowHomophone: false,
		MaxHints:       3,
	}
}

// Verdict is the structured outcome of validating one move.
// Reason is empty iff Valid.
type Verdict struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

func valid() Verdict             { return Verdict{Valid: true} }
func invalid(msg string) Verdict { return Verdict{Valid: false, Reason: msg} }

// Result summarizes a finished game. Produced once at the terminal
// transition; immutable thereafter.
type Result struct {
	Winner            string `json:"winner"` // "player" | "ai"
	TotalRounds       int    `json:"totalRounds"`
	PlayerWordCount   int    `json:"playerWordCount"`
	OpponentWordCount int    `json:"opponentWordCount"`
	EndReason         string `json:"endReason"`
	DurationSeconds   int    `json:"durationSeconds"`
}

// Snapshot is a copy of the live game state safe to hand to callers.
type Snapshot struct {
	Round          int      `json:"round"`
	LastWord       string   `json:"lastWord"`
	History        []string `json:"history"` // accepted moves in order
	HintsRemaining int      `json:"hintsRemaining"`
	HintsUsed      int      `json:"hintsUsed"`
	PlayerTurn     bool     `json:"playerTurn"`
	Started        bool     `json:"started"`
	Over           bool     `json:"over"`
	Result         *Result  `json:"result,omitempty"`
}
