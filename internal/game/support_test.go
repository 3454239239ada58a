package game

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/yuchen-lin/jielong/internal/idiom"
)

// stubStore is an in-memory lexicon.Store with deterministic ordering:
// entries appear in ByLeadingChar in the order they were added, which
// stands in for the real frequency/difficulty ordering.
type stubStore struct {
	all   []idiom.Idiom
	index map[string]idiom.Idiom
}

func newStubStore(words ...string) *stubStore {
	s := &stubStore{index: make(map[string]idiom.Idiom)}
	for _, w := range words {
		s.add(idiom.Idiom{
			Word:      w,
			FirstChar: idiom.FirstRune(w),
			LastChar:  idiom.LastRune(w),
		})
	}
	return s
}

func (s *stubStore) add(it idiom.Idiom) {
	if _, ok := s.index[it.Word]; ok {
		return
	}
	s.all = append(s.all, it)
	s.index[it.Word] = it
}

func (s *stubStore) Exists(ctx context.Context, word string) (bool, error) {
	_, ok := s.index[word]
	return ok, nil
}

func (s *stubStore) Get(ctx context.Context, word string) (*idiom.Idiom, error) {
	it, ok := s.index[word]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &it, nil
}

func (s *stubStore) ByLeadingChar(ctx context.Context, char string) ([]idiom.Idiom, error) {
	var out []idiom.Idiom
	for _, it := range s.all {
		if it.FirstChar == char {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *stubStore) Random(ctx context.Context, difficulty int) (*idiom.Idiom, error) {
	if len(s.all) == 0 {
		return nil, sql.ErrNoRows
	}
	it := s.all[0]
	return &it, nil
}

func (s *stubStore) Search(ctx context.Context, keyword string, limit int) ([]idiom.Idiom, error) {
	var out []idiom.Idiom
	for _, it := range s.all {
		if strings.Contains(it.Word, keyword) {
			out = append(out, it)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubStore) TotalCount(ctx context.Context) (int, error) {
	return len(s.all), nil
}

// failingStore reports an error on every query.
type failingStore struct{}

var errStore = errors.New("store unavailable")

func (failingStore) Exists(ctx context.Context, word string) (bool, error) { return false, errStore }
func (failingStore) Get(ctx context.Context, word string) (*idiom.Idiom, error) {
	return nil, errStore
}
func (failingStore) ByLeadingChar(ctx context.Context, char string) ([]idiom.Idiom, error) {
	return nil, errStore
}
func (failingStore) Random(ctx context.Context, difficulty int) (*idiom.Idiom, error) {
	return nil, errStore
}
func (failingStore) Search(ctx context.Context, keyword string, limit int) ([]idiom.Idiom, error) {
	return nil, errStore
}
func (failingStore) TotalCount(ctx context.Context) (int, error) { return 0, errStore }

// stubOpponent replays a fixed queue of candidates (or an error).
type stubOpponent struct {
	queue []string
	err   error
	calls int
}

func (o *stubOpponent) GenerateIdiom(ctx context.Context, char, difficulty string, used []string) (string, error) {
	o.calls++
	if o.err != nil {
		return "", o.err
	}
	if len(o.queue) == 0 {
		return "", errors.New("stub queue exhausted")
	}
	w := o.queue[0]
	o.queue = o.queue[1:]
	return w, nil
}

// stubJudge replays fixed judgment replies.
type stubJudge struct {
	reply string
	err   error
	calls int
}

func (j *stubJudge) Judge(ctx context.Context, word, prev string, allowHomophone bool) (string, error) {
	j.calls++
	return j.reply, j.err
}
