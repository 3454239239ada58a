package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackSelector(t *testing.T) {
	// Store order stands in for frequency DESC, difficulty ASC.
	st := newStubStore("龙马精神", "龙飞凤舞", "龙潭虎穴")
	ctx := context.Background()
	none := map[string]bool{}

	t.Run("easy picks the most common", func(t *testing.T) {
		w, err := NewFallbackSelector(st, DifficultyEasy).Select(ctx, "龙", none)
		require.NoError(t, err)
		assert.Equal(t, "龙马精神", w)
	})

	t.Run("hard picks the most obscure", func(t *testing.T) {
		w, err := NewFallbackSelector(st, DifficultyHard).Select(ctx, "龙", none)
		require.NoError(t, err)
		assert.Equal(t, "龙潭虎穴", w)
	})

	t.Run("normal picks some candidate", func(t *testing.T) {
		w, err := NewFallbackSelector(st, DifficultyNormal).Select(ctx, "龙", none)
		require.NoError(t, err)
		assert.Contains(t, []string{"龙马精神", "龙飞凤舞", "龙潭虎穴"}, w)
	})

	t.Run("used words are excluded", func(t *testing.T) {
		used := map[string]bool{"龙马精神": true}
		w, err := NewFallbackSelector(st, DifficultyEasy).Select(ctx, "龙", used)
		require.NoError(t, err)
		assert.Equal(t, "龙飞凤舞", w)
	})

	t.Run("no candidate returns empty", func(t *testing.T) {
		w, err := NewFallbackSelector(st, DifficultyEasy).Select(ctx, "凤", none)
		require.NoError(t, err)
		assert.Equal(t, "", w)
	})

	t.Run("store error propagates", func(t *testing.T) {
		_, err := NewFallbackSelector(failingStore{}, DifficultyEasy).Select(ctx, "龙", none)
		assert.Error(t, err)
	})
}
