// internal/lexicon/lexicon.go
//
// SQLite-backed idiom dictionary.
// Responsibilities:
//   - Opening the lexicon database with safe defaults (WAL, busy timeout).
//   - Creating the idioms table and its indexes (idempotent).
//   - Query contract used by the game core: exact lookup, leading-char
//     listing, random draw, keyword search, total count, hints.
//
// Ordering contract: ByLeadingChar (and everything derived from it) is
// frequency-descending, then difficulty-ascending. Callers rely on that
// for hint ranking and fallback policy.

package lexicon

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/yuchen-lin/jielong/internal/idiom"
)

// Store is the read contract the game core depends on.
// Implementations may be backed by SQLite (this package) or a test stub.
type Store interface {
	// Exists reports whether word is in the dictionary.
	Exists(ctx context.Context, word string) (bool, error)

	// Get returns the full entry for word, or sql.ErrNoRows.
	Get(ctx context.Context, word string) (*idiom.Idiom, error)

	// ByLeadingChar lists entries starting with char, store-ordered.
	ByLeadingChar(ctx context.Context, char string) ([]idiom.Idiom, error)

	// Random draws one entry; difficulty 0 means any.
	Random(ctx context.Context, difficulty int) (*idiom.Idiom, error)

	// Search finds entries containing keyword, frequency-ordered.
	Search(ctx context.Context, keyword string, limit int) ([]idiom.Idiom, error)

	// TotalCount returns the number of entries.
	TotalCount(ctx context.Context) (int, error)
}

// SQLite implements Store on a sqlite3 database.
type SQLite struct {
	db *sql.DB
}

// Open opens (creating if missing) the lexicon database and ensures the
// schema exists.
func Open(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	s := &SQLite{db: db}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info().Str("path", path).Msg("lexicon opened")
	return s, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS idioms (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			word         TEXT NOT NULL UNIQUE,
			pinyin       TEXT NOT NULL,
			first_char   TEXT NOT NULL,
			last_char    TEXT NOT NULL,
			first_pinyin TEXT NOT NULL,
			last_pinyin  TEXT NOT NULL,
			explanation  TEXT,
			example      TEXT,
			difficulty   INTEGER DEFAULT 1,
			frequency    REAL DEFAULT 0.0,
			created_at   TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_idioms_first_char ON idioms(first_char);
		CREATE INDEX IF NOT EXISTS idx_idioms_last_char ON idioms(last_char);
		CREATE INDEX IF NOT EXISTS idx_idioms_first_pinyin ON idioms(first_pinyin);
		CREATE INDEX IF NOT EXISTS idx_idioms_last_pinyin ON idioms(last_pinyin);
		CREATE INDEX IF NOT EXISTS idx_idioms_difficulty ON idioms(difficulty);
	`)
	if err != nil {
		return fmt.Errorf("create idioms schema: %w", err)
	}
	return nil
}

const idiomCols = `word, pinyin, first_char, last_char, first_pinyin, last_pinyin,
	COALESCE(explanation,''), COALESCE(example,''), difficulty, frequency`

func scanIdiom(row interface{ Scan(...any) error }) (*idiom.Idiom, error) {
	var it idiom.Idiom
	err := row.Scan(&it.Word, &it.Pinyin, &it.FirstChar, &it.LastChar,
		&it.FirstPinyin, &it.LastPinyin, &it.Explanation, &it.Example,
		&it.Difficulty, &it.Frequency)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// Add inserts one entry. Duplicate words are ignored; returns whether a
// row was written.
func (s *SQLite) Add(ctx context.Context, it idiom.Idiom) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO idioms
			(word, pinyin, first_char, last_char, first_pinyin, last_pinyin,
			 explanation, example, difficulty, frequency)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		it.Word, it.Pinyin, it.FirstChar, it.LastChar, it.FirstPinyin, it.LastPinyin,
		it.Explanation, it.Example, it.Difficulty, it.Frequency)
	if err != nil {
		return false, fmt.Errorf("insert idiom %s: %w", it.Word, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Exists reports whether word is present.
func (s *SQLite) Exists(ctx context.Context, word string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM idioms WHERE word=?`, word).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Get returns the full entry for word.
func (s *SQLite) Get(ctx context.Context, word string) (*idiom.Idiom, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+idiomCols+` FROM idioms WHERE word=?`, word)
	return scanIdiom(row)
}

// ByLeadingChar lists entries whose first character is char,
// ordered by frequency DESC then difficulty ASC.
func (s *SQLite) ByLeadingChar(ctx context.Context, char string) ([]idiom.Idiom, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+idiomCols+` FROM idioms
		WHERE first_char=?
		ORDER BY frequency DESC, difficulty ASC`, char)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// Random draws a uniformly random entry. difficulty > 0 restricts the pool
// to that difficulty level.
func (s *SQLite) Random(ctx context.Context, difficulty int) (*idiom.Idiom, error) {
	q := `SELECT ` + idiomCols + ` FROM idioms ORDER BY RANDOM() LIMIT 1`
	args := []any{}
	if difficulty > 0 {
		q = `SELECT ` + idiomCols + ` FROM idioms WHERE difficulty=? ORDER BY RANDOM() LIMIT 1`
		args = append(args, difficulty)
	}
	return scanIdiom(s.db.QueryRowContext(ctx, q, args...))
}

// Search finds entries containing keyword, most frequent first.
func (s *SQLite) Search(ctx context.Context, keyword string, limit int) ([]idiom.Idiom, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+idiomCols+` FROM idioms
		WHERE word LIKE ?
		ORDER BY frequency DESC
		LIMIT ?`, "%"+keyword+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// TotalCount returns the number of entries.
func (s *SQLite) TotalCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM idioms`).Scan(&n)
	return n, err
}

// Following lists the unused continuations of char: every entry starting
// with char minus the exclude set, store-ordered.
func Following(ctx context.Context, st Store, char string, exclude map[string]bool) ([]idiom.Idiom, error) {
	all, err := st.ByLeadingChar(ctx, char)
	if err != nil {
		return nil, err
	}
	return lo.Filter(all, func(it idiom.Idiom, _ int) bool {
		return !exclude[it.Word]
	}), nil
}

// Hints returns up to count unused continuation words for char.
func Hints(ctx context.Context, st Store, char string, count int, exclude map[string]bool) ([]string, error) {
	cands, err := Following(ctx, st, char, exclude)
	if err != nil {
		return nil, err
	}
	if len(cands) > count {
		cands = cands[:count]
	}
	return lo.Map(cands, func(it idiom.Idiom, _ int) string { return it.Word }), nil
}

func collect(rows *sql.Rows) ([]idiom.Idiom, error) {
	var out []idiom.Idiom
	for rows.Next() {
		it, err := scanIdiom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}
