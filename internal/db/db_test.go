package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB opens a throwaway database with the real migrations applied.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := Open(t.TempDir() + "/app.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	require.NoError(t, Migrate(d, "../../sql"))
	return d
}

func TestMigrateIsIdempotent(t *testing.T) {
	d := openTestDB(t)
	require.NoError(t, Migrate(d, "../../sql"))

	var n int
	require.NoError(t, d.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestInsertScoreIgnoresDuplicates(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	row := ScoreRow{
		GameID: "g1", AnonID: "anon-1", Winner: "player", EndReason: "AI无法接龙",
		Rounds: 4, WordCount: 5, Score: 120, Rating: "B", Difficulty: "normal", Duration: 80,
	}

	inserted, err := InsertScore(ctx, d, row)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = InsertScore(ctx, d, row)
	require.NoError(t, err)
	assert.False(t, inserted, "same game id must not write twice")
}

func TestTopScores(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	_, err := d.Exec(`INSERT INTO users (id, username, password_hash, created_at)
	                  VALUES ('u1', 'alice', 'x', '2026-01-01T00:00:00Z')`)
	require.NoError(t, err)

	seed := []ScoreRow{
		{GameID: "g1", UserID: "u1", Winner: "player", EndReason: "AI无法接龙", Score: 150, Rating: "A", WordCount: 6, Difficulty: "normal"},
		{GameID: "g2", AnonID: "anon-1", Winner: "player", EndReason: "AI连接失败", Score: 200, Rating: "S", WordCount: 10, Difficulty: "hard"},
		{GameID: "g3", UserID: "u1", Winner: "ai", EndReason: "玩家认输", Score: 0, Difficulty: "easy"},
	}
	for _, r := range seed {
		_, err := InsertScore(ctx, d, r)
		require.NoError(t, err)
	}

	rows, err := TopScores(ctx, d, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2, "losses never chart")
	assert.Equal(t, "游客", rows[0].Username)
	assert.Equal(t, 200, rows[0].Score)
	assert.Equal(t, "alice", rows[1].Username)
}

func TestClaimAnonScores(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	_, err := d.Exec(`INSERT INTO users (id, username, password_hash, created_at)
	                  VALUES ('u1', 'alice', 'x', '2026-01-01T00:00:00Z')`)
	require.NoError(t, err)

	_, err = InsertScore(ctx, d, ScoreRow{GameID: "g1", AnonID: "anon-1", Winner: "player", EndReason: "x", Score: 50})
	require.NoError(t, err)

	require.NoError(t, ClaimAnonScores(ctx, d, "anon-1", "u1"))

	rows, err := TopScores(ctx, d, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "alice", rows[0].Username, "claimed rows chart under the account")

	t.Run("empty ids are a no-op", func(t *testing.T) {
		assert.NoError(t, ClaimAnonScores(ctx, d, "", "u1"))
		assert.NoError(t, ClaimAnonScores(ctx, d, "anon-1", ""))
	})
}
