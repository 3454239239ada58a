// internal/db/scores.go
//
// Persistence of finished games and score breakdowns, plus the
// leaderboard query. A score row is written once per finished game, owned
// by either a user account or an anonymous cookie ID.

package db

import (
	"context"
	"database/sql"
	"time"
)

// ScoreRow is one finished game's scoring outcome.
type ScoreRow struct {
	GameID     string `json:"gameId"`
	UserID     string `json:"userId,omitempty"`
	AnonID     string `json:"-"`
	Winner     string `json:"winner"`
	EndReason  string `json:"endReason"`
	Rounds     int    `json:"rounds"`
	WordCount  int    `json:"wordCount"`
	Score      int    `json:"score"`
	Rating     string `json:"rating"`
	Difficulty string `json:"difficulty"`
	Duration   int    `json:"duration"`
}

// LeaderboardRow is one leaderboard entry.
type LeaderboardRow struct {
	Username   string `json:"username"`
	Score      int    `json:"score"`
	Rating     string `json:"rating"`
	WordCount  int    `json:"wordCount"`
	Difficulty string `json:"difficulty"`
	CreatedAt  string `json:"createdAt"`
}

// InsertScore records one finished game. Duplicate game IDs are ignored;
// the return value reports whether a row was actually written.
func InsertScore(ctx context.Context, db *sql.DB, r ScoreRow) (bool, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := db.ExecContext(ctx, `
		INSERT OR IGNORE INTO scores
			(game_id, user_id, anonymous_id, winner, end_reason, rounds,
			 word_count, score, rating, difficulty, duration, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.GameID, nullable(r.UserID), nullable(r.AnonID), r.Winner, r.EndReason,
		r.Rounds, r.WordCount, r.Score, r.Rating, r.Difficulty, r.Duration, now)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// TopScores fetches the best player-win scores, highest first.
// Anonymous rows appear under the name "游客".
func TopScores(ctx context.Context, db *sql.DB, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `
		SELECT COALESCE(u.username, '游客'), s.score, s.rating, s.word_count,
		       s.difficulty, s.created_at
		FROM scores s
		LEFT JOIN users u ON u.id = s.user_id
		WHERE s.winner = 'player'
		ORDER BY s.score DESC, s.created_at ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LeaderboardRow, 0, limit)
	for rows.Next() {
		var r LeaderboardRow
		if err := rows.Scan(&r.Username, &r.Score, &r.Rating, &r.WordCount,
			&r.Difficulty, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ClaimAnonScores transfers anonymous rows to a user after signup/login.
func ClaimAnonScores(ctx context.Context, db *sql.DB, anonID, userID string) error {
	if anonID == "" || userID == "" {
		return nil
	}
	_, err := db.ExecContext(ctx,
		`UPDATE scores SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`,
		userID, anonID)
	return err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
