// internal/game/fallback.go
//
// Substitute-move selection for when the opponent's proposal is rejected
// but the game should continue. Candidates come from the lexicon in its
// native order (frequency DESC, difficulty ASC); difficulty policy picks
// from that order:
//   easy   → first (most common)
//   normal → uniform random
//   hard   → last (most obscure)

package game

import (
	"context"
	"math/rand"
	"time"

	"github.com/yuchen-lin/jielong/internal/lexicon"
)

// FallbackSelector picks substitute moves from the lexicon.
type FallbackSelector struct {
	store      lexicon.Store
	difficulty string
	rnd        *rand.Rand
}

// NewFallbackSelector builds a selector with its own random source, so
// repeated fallbacks in one process are not locked to the global seed.
func NewFallbackSelector(st lexicon.Store, difficulty string) *FallbackSelector {
	return &FallbackSelector{
		store:      st,
		difficulty: difficulty,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Select returns an unused idiom starting with char, or "" when none
// exists.
func (f *FallbackSelector) Select(ctx context.Context, char string, used map[string]bool) (string, error) {
	cands, err := lexicon.Following(ctx, f.store, char, used)
	if err != nil {
		return "", err
	}
	if len(cands) == 0 {
		return "", nil
	}
	switch f.difficulty {
	case DifficultyEasy:
		return cands[0].Word, nil
	case DifficultyHard:
		return cands[len(cands)-1].Word, nil
	default:
		return cands[f.rnd.Intn(len(cands))].Word, nil
	}
}
