package game

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuchen-lin/jielong/internal/llm"
)

func newTestEngine(t *testing.T, opp Opponent, words ...string) *Engine {
	t.Helper()
	st := newStubStore(words...)
	cfg := DefaultConfig()
	cfg.TimeLimit = 0
	return NewEngine(cfg, st, NewDictionaryValidator(st), opp)
}

func TestEngineStart(t *testing.T) {
	ctx := context.Background()

	t.Run("fixed start word", func(t *testing.T) {
		e := newTestEngine(t, &stubOpponent{}, "车水马龙", "龙马精神")
		start, err := e.Start(ctx, "车水马龙")
		require.NoError(t, err)
		assert.Equal(t, "车水马龙", start)

		snap := e.Snapshot()
		assert.True(t, snap.Started)
		assert.True(t, snap.PlayerTurn)
		assert.Equal(t, []string{"车水马龙"}, snap.History)
		assert.Equal(t, 0, snap.Round)
	})

	t.Run("unknown start word falls back to random", func(t *testing.T) {
		e := newTestEngine(t, &stubOpponent{}, "车水马龙")
		start, err := e.Start(ctx, "不在词库")
		require.NoError(t, err)
		assert.Equal(t, "车水马龙", start)
	})

	t.Run("empty lexicon", func(t *testing.T) {
		e := newTestEngine(t, &stubOpponent{})
		_, err := e.Start(ctx, "")
		assert.ErrorIs(t, err, ErrEmptyLexicon)
	})
}

func TestEnginePlayerMove(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, &stubOpponent{}, "车水马龙", "龙马精神", "神采奕奕")
	_, err := e.Start(ctx, "车水马龙")
	require.NoError(t, err)

	t.Run("valid move flips the turn", func(t *testing.T) {
		verdict := e.SubmitPlayerMove(ctx, "龙马精神")
		assert.True(t, verdict.Valid)

		snap := e.Snapshot()
		assert.False(t, snap.PlayerTurn)
		assert.Equal(t, "龙马精神", snap.LastWord)
		assert.Len(t, snap.History, 2)
	})

	t.Run("second move out of turn is rejected", func(t *testing.T) {
		verdict := e.SubmitPlayerMove(ctx, "神采奕奕")
		assert.False(t, verdict.Valid)
		assert.Equal(t, "现在不是你的回合", verdict.Reason)
	})

	t.Run("invalid move changes nothing", func(t *testing.T) {
		before := e.Snapshot()
		e2 := newTestEngine(t, &stubOpponent{}, "车水马龙")
		_, err := e2.Start(ctx, "车水马龙")
		require.NoError(t, err)
		verdict := e2.SubmitPlayerMove(ctx, "龙龙龙龙")
		assert.False(t, verdict.Valid)
		assert.True(t, e2.Snapshot().PlayerTurn)
		assert.Equal(t, before.History[:1], e2.Snapshot().History)
	})

	t.Run("move before start", func(t *testing.T) {
		e3 := newTestEngine(t, &stubOpponent{}, "车水马龙")
		verdict := e3.SubmitPlayerMove(ctx, "车水马龙")
		assert.Equal(t, "游戏未开始或已结束", verdict.Reason)
	})
}

func TestEngineOpponentMove(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, opp Opponent) *Engine {
		e := newTestEngine(t, opp, "车水马龙", "龙马精神", "神采奕奕", "神机妙算")
		_, err := e.Start(ctx, "车水马龙")
		require.NoError(t, err)
		require.True(t, e.SubmitPlayerMove(ctx, "龙马精神").Valid)
		return e
	}

	t.Run("valid candidate is accepted", func(t *testing.T) {
		e := setup(t, &stubOpponent{queue: []string{"神采奕奕"}})
		word, err := e.RequestOpponentMove(ctx)
		require.NoError(t, err)
		assert.Equal(t, "神采奕奕", word)

		snap := e.Snapshot()
		assert.True(t, snap.PlayerTurn)
		assert.Equal(t, 1, snap.Round, "round advances when the turn returns to the player")
	})

	t.Run("not the opponent's turn", func(t *testing.T) {
		e := newTestEngine(t, &stubOpponent{}, "车水马龙")
		_, err := e.Start(ctx, "车水马龙")
		require.NoError(t, err)
		_, err = e.RequestOpponentMove(ctx)
		assert.ErrorIs(t, err, ErrNotOpponentTurn)
	})

	t.Run("failure sentinel ends the game in the player's favor", func(t *testing.T) {
		e := setup(t, &stubOpponent{queue: []string{llm.FailureSentinel}})
		word, err := e.RequestOpponentMove(ctx)
		require.NoError(t, err)
		assert.Empty(t, word)

		snap := e.Snapshot()
		require.True(t, snap.Over)
		assert.Equal(t, WinnerPlayer, snap.Result.Winner)
		assert.Equal(t, ReasonCannotContinue, snap.Result.EndReason)
	})

	t.Run("transport error ends the game in the player's favor", func(t *testing.T) {
		e := setup(t, &stubOpponent{err: errors.New("connection refused")})
		word, err := e.RequestOpponentMove(ctx)
		require.NoError(t, err)
		assert.Empty(t, word)
		assert.Equal(t, ReasonConnectionFailed, e.Snapshot().Result.EndReason)
	})

	t.Run("rejected candidate is replaced from the lexicon", func(t *testing.T) {
		// 神机妙算 does not chain from 龙马精神; the fallback substitutes a
		// 神-leading idiom.
		e := setup(t, &stubOpponent{queue: []string{"胡言乱语不是成语"}})
		word, err := e.RequestOpponentMove(ctx)
		require.NoError(t, err)
		assert.Contains(t, []string{"神采奕奕", "神机妙算"}, word)
		assert.False(t, e.Snapshot().Over)
	})

	t.Run("rejected candidate with no fallback ends the game", func(t *testing.T) {
		e := newTestEngine(t, &stubOpponent{queue: []string{"有头无尾的话"}}, "车水马龙", "龙马精神")
		_, err := e.Start(ctx, "车水马龙")
		require.NoError(t, err)
		require.True(t, e.SubmitPlayerMove(ctx, "龙马精神").Valid)

		word, err := e.RequestOpponentMove(ctx)
		require.NoError(t, err)
		assert.Empty(t, word)
		assert.Equal(t, ReasonCannotContinue, e.Snapshot().Result.EndReason)
	})
}

func TestEngineDiscardsStaleOpponentResult(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, &stubOpponent{queue: []string{"神采奕奕"}}, "车水马龙", "龙马精神", "神采奕奕")

	// Reset the game while the opponent call is in flight; the result must
	// be discarded instead of applied to the fresh state.
	e.OnOpponentThinking = func() { e.Reset() }

	_, err := e.Start(ctx, "车水马龙")
	require.NoError(t, err)
	require.True(t, e.SubmitPlayerMove(ctx, "龙马精神").Valid)

	_, err = e.RequestOpponentMove(ctx)
	assert.ErrorIs(t, err, ErrStaleResult)
	assert.Empty(t, e.Snapshot().History)
}

func TestEngineHints(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, &stubOpponent{}, "车水马龙", "龙马精神", "龙飞凤舞")
	_, err := e.Start(ctx, "车水马龙")
	require.NoError(t, err)

	hint := e.UseHint(ctx)
	assert.Equal(t, "龙马精神", hint)
	assert.Equal(t, 2, e.Snapshot().HintsRemaining)
	assert.Equal(t, 1, e.Snapshot().HintsUsed)

	// Exhaust the remaining hints.
	e.UseHint(ctx)
	e.UseHint(ctx)
	assert.Equal(t, "", e.UseHint(ctx))
	assert.Equal(t, 0, e.Snapshot().HintsRemaining)
}

func TestEngineCheckGameOver(t *testing.T) {
	ctx := context.Background()

	t.Run("player stuck loses", func(t *testing.T) {
		e := newTestEngine(t, &stubOpponent{}, "车水马龙")
		_, err := e.Start(ctx, "车水马龙")
		require.NoError(t, err)

		winner, over := e.CheckGameOver(ctx)
		require.True(t, over)
		assert.Equal(t, WinnerOpponent, winner)
	})

	t.Run("continuation available means not over", func(t *testing.T) {
		e := newTestEngine(t, &stubOpponent{}, "车水马龙", "龙马精神")
		_, err := e.Start(ctx, "车水马龙")
		require.NoError(t, err)

		_, over := e.CheckGameOver(ctx)
		assert.False(t, over)
	})

	t.Run("llm validator cannot enumerate, never ends", func(t *testing.T) {
		st := newStubStore("车水马龙")
		e := NewEngine(DefaultConfig(), st, NewLLMValidator(&stubJudge{reply: "是"}), &stubOpponent{})
		_, err := e.Start(ctx, "车水马龙")
		require.NoError(t, err)

		_, over := e.CheckGameOver(ctx)
		assert.False(t, over)
	})
}

func TestEngineEndAndForfeit(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, &stubOpponent{}, "车水马龙", "龙马精神")
	_, err := e.Start(ctx, "车水马龙")
	require.NoError(t, err)
	require.True(t, e.SubmitPlayerMove(ctx, "龙马精神").Valid)

	r := e.Forfeit()
	assert.Equal(t, WinnerOpponent, r.Winner)
	assert.Equal(t, ReasonForfeit, r.EndReason)
	assert.Equal(t, 1, r.PlayerWordCount, "start word counts as a player move")

	t.Run("end is idempotent", func(t *testing.T) {
		again := e.End(WinnerPlayer, ReasonCannotContinue)
		assert.Equal(t, r, again, "a finished game keeps its first result")
	})

	t.Run("moves after the end are rejected", func(t *testing.T) {
		verdict := e.SubmitPlayerMove(ctx, "神采奕奕")
		assert.Equal(t, "游戏未开始或已结束", verdict.Reason)
		_, err := e.RequestOpponentMove(ctx)
		assert.ErrorIs(t, err, ErrNotActive)
	})
}

func TestEngineReset(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, &stubOpponent{}, "车水马龙", "龙马精神")
	_, err := e.Start(ctx, "车水马龙")
	require.NoError(t, err)
	require.True(t, e.SubmitPlayerMove(ctx, "龙马精神").Valid)

	e.Reset()
	snap := e.Snapshot()
	assert.False(t, snap.Started)
	assert.Empty(t, snap.History)
	assert.Empty(t, snap.LastWord)
	assert.Nil(t, snap.Result)

	// A fresh start works after the reset.
	_, err = e.Start(ctx, "车水马龙")
	require.NoError(t, err)
	assert.True(t, e.Snapshot().Started)
}

func TestEngineReplayIsDeterministic(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, &stubOpponent{}, "车水马龙", "龙马精神", "神采奕奕")
	moves := []string{"龙马精神", "龙马精神", "不存在的词", "神采奕奕"}

	play := func() []Verdict {
		_, err := e.Start(ctx, "车水马龙")
		require.NoError(t, err)
		out := make([]Verdict, 0, len(moves))
		for _, m := range moves {
			v := e.SubmitPlayerMove(ctx, m)
			out = append(out, v)
			if v.Valid {
				// Hand the turn back so the next input is judged the same way.
				e.mu.Lock()
				e.playerTurn = true
				e.mu.Unlock()
			}
		}
		return out
	}

	first := play()
	e.Reset()
	second := play()
	assert.Equal(t, first, second)
}

func TestEngineFinalScore(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, &stubOpponent{}, "车水马龙", "龙马精神")
	_, err := e.Start(ctx, "车水马龙")
	require.NoError(t, err)

	assert.Zero(t, e.FinalScore().TotalScore, "no score before the game ends")

	e.End(WinnerPlayer, ReasonCannotContinue)
	score := e.FinalScore()
	assert.True(t, score.IsWinner)
	assert.Positive(t, score.TotalScore)
}

func TestEngineCallbacks(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, &stubOpponent{queue: []string{"神采奕奕"}}, "车水马龙", "龙马精神", "神采奕奕")

	var thinking, moved, stateChanges int
	var lastMove string
	e.OnStateChange = func() { stateChanges++ }
	e.OnOpponentThinking = func() { thinking++ }
	e.OnOpponentMove = func(w string) { moved++; lastMove = w }

	_, err := e.Start(ctx, "车水马龙")
	require.NoError(t, err)
	require.True(t, e.SubmitPlayerMove(ctx, "龙马精神").Valid)

	_, err = e.RequestOpponentMove(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, thinking)
	assert.Equal(t, 1, moved)
	assert.Equal(t, "神采奕奕", lastMove)
	assert.Equal(t, 3, stateChanges, "start, player move, opponent move")
}
