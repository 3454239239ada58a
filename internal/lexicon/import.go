// internal/lexicon/import.go
//
// Bulk import of idiom entries from a text file.
// Line format: word[,pinyin[,explanation[,example]]]
// Words that are not exactly 4 runes are skipped. Missing pinyin is
// derived from the word itself.

package lexicon

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/yuchen-lin/jielong/internal/idiom"
)

// ImportFile loads entries from path and returns how many rows were added.
func (s *SQLite) ImportFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return s.importLines(ctx, bufio.NewScanner(f))
}

func (s *SQLite) importLines(ctx context.Context, sc *bufio.Scanner) (int, error) {
	count := 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		it, ok := ParseLine(line)
		if !ok {
			continue
		}
		added, err := s.Add(ctx, it)
		if err != nil {
			return count, err
		}
		if added {
			count++
		}
	}
	if err := sc.Err(); err != nil {
		return count, err
	}
	log.Info().Int("imported", count).Msg("lexicon import finished")
	return count, nil
}

// ParseLine builds an entry from one import line. Returns ok=false for
// lines whose word is not exactly 4 runes.
func ParseLine(line string) (idiom.Idiom, bool) {
	parts := strings.SplitN(line, ",", 4)
	word := strings.TrimSpace(parts[0])
	if idiom.RuneLen(word) != idiom.Length {
		return idiom.Idiom{}, false
	}

	py := ""
	if len(parts) > 1 {
		py = strings.TrimSpace(parts[1])
	}
	if py == "" {
		py = idiom.Reading(word)
	}

	first := idiom.FirstRune(word)
	last := idiom.LastRune(word)
	it := idiom.Idiom{
		Word:        word,
		Pinyin:      py,
		FirstChar:   first,
		LastChar:    last,
		FirstPinyin: idiom.CharReading(first),
		LastPinyin:  idiom.CharReading(last),
		Difficulty:  1,
	}
	if len(parts) > 2 {
		it.Explanation = strings.TrimSpace(parts[2])
	}
	if len(parts) > 3 {
		it.Example = strings.TrimSpace(parts[3])
	}
	return it, true
}
