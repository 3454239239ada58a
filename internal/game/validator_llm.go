// internal/game/validator_llm.go
//
// Validator that defers judgment to a language-model backend.
// Shape and duplicate checks stay local (the model cannot know the used
// set); lexical validity and the chain rule are judged remotely in one
// question. Replies are noisy, so parsing is layered: strip punctuation,
// classify by first token, then exact match, then fail open. An
// unparseable reply must never block gameplay.

package game

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/yuchen-lin/jielong/internal/idiom"
)

// Judge is the remote judgment call the validator depends on.
// *llm.Client satisfies it.
type Judge interface {
	Judge(ctx context.Context, word, prev string, allowHomophone bool) (string, error)
}

// LLMValidator validates moves by asking the backend.
type LLMValidator struct {
	judge Judge

	mu      sync.Mutex
	lastErr string
}

// NewLLMValidator builds a validator on top of j.
func NewLLMValidator(j Judge) *LLMValidator {
	return &LLMValidator{judge: j}
}

// Validate runs the local checks, then the remote judgment.
// A transport failure rejects the move (it is not game-terminal).
func (v *LLMValidator) Validate(ctx context.Context, word, prev string, used map[string]bool, allowHomophone bool) Verdict {
	word = strings.TrimSpace(word)
	if word == "" {
		return v.fail("成语不能为空")
	}
	if idiom.RuneLen(word) != idiom.Length {
		return v.fail("成语必须是4个字")
	}
	if used[word] {
		return v.fail(fmt.Sprintf("'%s' 已经使用过了", word))
	}

	reply, err := v.judge.Judge(ctx, word, prev, allowHomophone)
	if err != nil {
		log.Error().Err(err).Str("word", word).Msg("llm judgment failed")
		return v.fail(fmt.Sprintf("AI验证失败: %v", err))
	}

	ok, classified := ParseJudgment(reply)
	if !classified {
		log.Warn().Str("word", word).Str("reply", reply).Msg("unclassifiable judgment reply, assuming valid")
		ok = true
	}
	if !ok {
		return v.fail(fmt.Sprintf("'%s' 不是有效的成语或不满足接龙规则", word))
	}

	v.mu.Lock()
	v.lastErr = ""
	v.mu.Unlock()
	return valid()
}

// LastError returns the most recent failure reason.
func (v *LLMValidator) LastError() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastErr
}

func (v *LLMValidator) fail(msg string) Verdict {
	v.mu.Lock()
	v.lastErr = msg
	v.mu.Unlock()
	return invalid(msg)
}

// judgmentNoise is stripped from replies before classification.
const judgmentNoise = "。，！？、“”‘’《》（）【】\n\r\t "

var (
	affirmativeFirst = map[rune]bool{'是': true, 'Y': true, 'y': true, '对': true, '正': true}
	negativeFirst    = map[rune]bool{'否': true, 'N': true, 'n': true, '错': true, '不': true, '无': true}

	affirmativeExact = map[string]bool{"是": true, "YES": true, "Yes": true, "yes": true, "对": true, "正确": true, "Valid": true, "valid": true}
	negativeExact    = map[string]bool{"否": true, "NO": true, "No": true, "no": true, "错": true, "错误": true, "Invalid": true, "invalid": true}
)

// ParseJudgment classifies a raw yes/no reply. classified is false when no
// rule applies (the caller fails open). Repeated tokens like "是是" or
// "否，因为…" classify by their first character.
func ParseJudgment(reply string) (yes, classified bool) {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(judgmentNoise, r) {
			return -1
		}
		return r
	}, strings.TrimSpace(reply))

	if cleaned == "" {
		return false, false
	}

	first := []rune(cleaned)[0]
	if affirmativeFirst[first] {
		return true, true
	}
	if negativeFirst[first] {
		return false, true
	}

	if affirmativeExact[cleaned] {
		return true, true
	}
	if negativeExact[cleaned] {
		return false, true
	}
	return false, false
}
