// internal/idiom/idiom.go
//
// Core data type for the idiom lexicon.
// Defines:
//   - Idiom: a single four-character idiom with pinyin metadata.
//
// An Idiom is immutable once loaded from the lexicon; callers treat it as
// a value. FirstChar/LastChar are the chain keys; FirstPinyin/LastPinyin
// carry tone-marked readings used for homophone matching.

package idiom

// Length is the number of runes every accepted idiom must have.
const Length = 4

// Idiom holds one dictionary entry.
type Idiom struct {
	Word        string  `json:"word"`                  // the idiom itself (4 runes)
	Pinyin      string  `json:"pinyin"`                // full tone-marked reading
	FirstChar   string  `json:"firstChar"`             // leading character
	LastChar    string  `json:"lastChar"`              // trailing character
	FirstPinyin string  `json:"firstPinyin"`           // reading of the leading character
	LastPinyin  string  `json:"lastPinyin"`            // reading of the trailing character
	Explanation string  `json:"explanation,omitempty"` // meaning, may be empty
	Example     string  `json:"example,omitempty"`     // usage example, may be empty
	Difficulty  int     `json:"difficulty"`            // 1 (common) .. 5 (obscure)
	Frequency   float64 `json:"frequency"`             // usage frequency, >= 0
}

// FirstRune returns the leading character of w, or "" for an empty string.
func FirstRune(w string) string {
	for _, r := range w {
		return string(r)
	}
	return ""
}

// LastRune returns the trailing character of w, or "" for an empty string.
func LastRune(w string) string {
	var last rune
	ok := false
	for _, r := range w {
		last, ok = r, true
	}
	if !ok {
		return ""
	}
	return string(last)
}

// RuneLen counts runes, not bytes. Idioms are CJK text so len() is useless
// for the 4-character rule.
func RuneLen(w string) int {
	n := 0
	for range w {
		n++
	}
	return n
}
