// internal/idiom/pinyin.go
//
// Pinyin helpers for the lexicon and the phonetic comparator.
// Responsibilities:
//   - Derive tone-marked readings for idioms and single characters.
//   - Strip tone diacritics so readings compare tone-insensitively.
//   - Decide whether two characters are homophones.
//
// Readings come from mozillazg/go-pinyin. Tone stripping is a Unicode
// transform (NFD, drop combining marks, NFC) so it works on any stored
// reading regardless of which tool produced it.

package idiom

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-pinyin"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var toneArgs = func() pinyin.Args {
	a := pinyin.NewArgs()
	a.Style = pinyin.Tone
	return a
}()

// Reading returns the tone-marked pinyin of text, syllables joined by a
// single space ("chē shuǐ mǎ lóng"). Non-Chinese runes yield no syllable.
func Reading(text string) string {
	return strings.Join(pinyin.LazyPinyin(text, toneArgs), " ")
}

// CharReading returns the tone-marked reading of the first character of s,
// or "" when s is empty or has no reading.
func CharReading(s string) string {
	if s == "" {
		return ""
	}
	pys := pinyin.LazyPinyin(FirstRune(s), toneArgs)
	if len(pys) == 0 {
		return ""
	}
	return pys[0]
}

var toneStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// StripTones removes tone diacritics from a pinyin string ("lóng" → "long").
func StripTones(s string) string {
	out, _, err := transform.String(toneStripper, s)
	if err != nil {
		return s
	}
	return out
}

// Homophone reports whether two single characters share a tone-insensitive
// reading. Equal characters are trivially homophones. Characters without a
// reading never match.
func Homophone(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	pa := StripTones(CharReading(a))
	pb := StripTones(CharReading(b))
	return pa != "" && pa == pb
}

// ReadingsEqual compares two stored readings tone-insensitively.
// Used when both sides already carry pinyin from the lexicon.
func ReadingsEqual(a, b string) bool {
	return a != "" && StripTones(a) == StripTones(b)
}
