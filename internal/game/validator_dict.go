// internal/game/validator_dict.go
//
// Deterministic validator backed by the lexicon.
// Check order (short-circuit at first failure):
//   1. non-empty after trimming
//   2. exactly 4 characters
//   3. present in the lexicon
//   4. not already used
//   5. chain rule against the previous word (literal match, or homophone
//      when enabled)

package game

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/yuchen-lin/jielong/internal/idiom"
	"github.com/yuchen-lin/jielong/internal/lexicon"
)

// DictionaryValidator validates moves against the lexicon store.
type DictionaryValidator struct {
	store lexicon.Store

	mu      sync.Mutex
	lastErr string
}

// NewDictionaryValidator builds a validator on top of st.
func NewDictionaryValidator(st lexicon.Store) *DictionaryValidator {
	return &DictionaryValidator{store: st}
}

// Validate applies the ordered checks.
func (v *DictionaryValidator) Validate(ctx context.Context, word, prev string, used map[string]bool, allowHomophone bool) Verdict {
	word = strings.TrimSpace(word)
	if word == "" {
		return v.fail("成语不能为空")
	}
	if idiom.RuneLen(word) != idiom.Length {
		return v.fail("成语必须是4个字")
	}

	ok, err := v.store.Exists(ctx, word)
	if err != nil {
		log.Error().Err(err).Str("word", word).Msg("lexicon lookup failed")
		return v.fail("词库查询失败")
	}
	if !ok {
		return v.fail(fmt.Sprintf("'%s' 不是一个有效的成语", word))
	}

	if used[word] {
		return v.fail(fmt.Sprintf("'%s' 已经使用过了", word))
	}

	if prev != "" {
		want := idiom.LastRune(prev)
		got := idiom.FirstRune(word)
		if allowHomophone {
			if !idiom.Homophone(want, got) {
				return v.fail(fmt.Sprintf("必须用 '%s' 的同音字开头，而不是 '%s'", want, got))
			}
		} else if got != want {
			return v.fail(fmt.Sprintf("必须用 '%s' 字开头，而不是 '%s'", want, got))
		}
	}

	v.mu.Lock()
	v.lastErr = ""
	v.mu.Unlock()
	return valid()
}

// HasContinuation reports whether any unused idiom starts with char.
func (v *DictionaryValidator) HasContinuation(ctx context.Context, char string, used map[string]bool) bool {
	cands, err := lexicon.Following(ctx, v.store, char, used)
	if err != nil {
		log.Error().Err(err).Str("char", char).Msg("continuation query failed")
		return true // inconclusive; do not end the game on a store error
	}
	return len(cands) > 0
}

// LastError returns the most recent failure reason.
func (v *DictionaryValidator) LastError() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastErr
}

func (v *DictionaryValidator) fail(msg string) Verdict {
	v.mu.Lock()
	v.lastErr = msg
	v.mu.Unlock()
	return invalid(msg)
}
