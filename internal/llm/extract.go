// internal/llm/extract.go
//
// Extraction of a 4-character idiom from a free-text model reply.
// Models return noise around the answer: numbering, bullets, punctuation,
// pinyin, explanations. The extractor keeps only ideographic characters
// and takes the first four.

package llm

import "strings"

// FailureSentinel is what a cooperative model returns (and what extraction
// falls back to) when no idiom can be produced.
const FailureSentinel = "无法接龙"

var listPrefixes = []string{"1.", "2.", "3.", "1、", "2、", "①", "②", "•", "-", "*"}

const strippedPunct = "，。！？、“”‘’《》（）【】.,!?;:\"'"

// ExtractIdiom pulls the idiom out of a model reply. Returns at most the
// first 4 ideographic characters; fewer if the reply has fewer; the
// failure sentinel if it has none.
func ExtractIdiom(text string) string {
	text = strings.TrimSpace(text)

	for _, p := range listPrefixes {
		if strings.HasPrefix(text, p) {
			text = strings.TrimSpace(strings.TrimPrefix(text, p))
			break
		}
	}

	var b strings.Builder
	count := 0
	for _, r := range text {
		if r == '\n' || r == '\r' || strings.ContainsRune(strippedPunct, r) {
			continue
		}
		if r >= 0x4E00 && r <= 0x9FFF { // CJK unified ideographs
			b.WriteRune(r)
			count++
			if count == 4 {
				break
			}
		}
	}

	if count == 0 {
		return FailureSentinel
	}
	return b.String()
}
