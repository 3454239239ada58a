// internal/game/validator.go
//
// Validator abstraction. The engine holds exactly one Validator, chosen
// at construction, and never inspects its concrete type. The dictionary
// variant additionally supports exhaustion checks through the optional
// continuationChecker interface; the LLM variant deliberately does not
// (a language model cannot enumerate the solution space).

package game

import "context"

// Validator judges one proposed move against the previous word and the
// set of already-used words.
type Validator interface {
	// Validate returns a structured verdict; it never mutates game state.
	Validate(ctx context.Context, word, prev string, used map[string]bool, allowHomophone bool) Verdict

	// LastError reports the reason of the most recent failed validation.
	LastError() string
}

// continuationChecker is implemented by validators that can decide whether
// any legal continuation exists for a trailing character.
type continuationChecker interface {
	HasContinuation(ctx context.Context, char string, used map[string]bool) bool
}
