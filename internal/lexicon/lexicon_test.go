package lexicon

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuchen-lin/jielong/internal/idiom"
)

// openTestStore builds an in-memory lexicon seeded with a small chain
// neighbourhood around 龙.
func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(t.TempDir() + "/lexicon.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	seed := []idiom.Idiom{
		{Word: "车水马龙", Frequency: 0.9, Difficulty: 1},
		{Word: "龙马精神", Frequency: 0.8, Difficulty: 1},
		{Word: "龙飞凤舞", Frequency: 0.6, Difficulty: 2},
		{Word: "龙潭虎穴", Frequency: 0.3, Difficulty: 3},
		{Word: "神采奕奕", Frequency: 0.5, Difficulty: 2},
	}
	for i := range seed {
		it := seed[i]
		it.Pinyin = idiom.Reading(it.Word)
		it.FirstChar = idiom.FirstRune(it.Word)
		it.LastChar = idiom.LastRune(it.Word)
		it.FirstPinyin = idiom.CharReading(it.FirstChar)
		it.LastPinyin = idiom.CharReading(it.LastChar)
		added, err := s.Add(context.Background(), it)
		require.NoError(t, err)
		require.True(t, added)
	}
	return s
}

func TestAddIgnoresDuplicates(t *testing.T) {
	s := openTestStore(t)
	added, err := s.Add(context.Background(), idiom.Idiom{
		Word: "车水马龙", Pinyin: "x", FirstChar: "车", LastChar: "龙",
		FirstPinyin: "chē", LastPinyin: "lóng",
	})
	require.NoError(t, err)
	assert.False(t, added)

	n, err := s.TotalCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestExistsAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ok, err := s.Exists(ctx, "车水马龙")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(ctx, "胡言乱语")
	require.NoError(t, err)
	assert.False(t, ok)

	it, err := s.Get(ctx, "龙马精神")
	require.NoError(t, err)
	assert.Equal(t, "龙", it.FirstChar)
	assert.Equal(t, "神", it.LastChar)
	assert.NotEmpty(t, it.Pinyin)

	_, err = s.Get(ctx, "胡言乱语")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestByLeadingCharOrdering(t *testing.T) {
	s := openTestStore(t)
	out, err := s.ByLeadingChar(context.Background(), "龙")
	require.NoError(t, err)
	require.Len(t, out, 3)
	// frequency DESC, difficulty ASC
	assert.Equal(t, "龙马精神", out[0].Word)
	assert.Equal(t, "龙飞凤舞", out[1].Word)
	assert.Equal(t, "龙潭虎穴", out[2].Word)
}

func TestRandom(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	it, err := s.Random(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, idiom.Length, idiom.RuneLen(it.Word))

	it, err = s.Random(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "龙潭虎穴", it.Word)

	_, err = s.Random(ctx, 5)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSearch(t *testing.T) {
	s := openTestStore(t)
	out, err := s.Search(context.Background(), "龙", 10)
	require.NoError(t, err)
	assert.Len(t, out, 4)
	assert.Equal(t, "车水马龙", out[0].Word, "most frequent match first")

	out, err = s.Search(context.Background(), "龙", 2)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestFollowingExcludesUsed(t *testing.T) {
	s := openTestStore(t)
	used := map[string]bool{"龙马精神": true}
	out, err := Following(context.Background(), s, "龙", used)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "龙飞凤舞", out[0].Word)
}

func TestHints(t *testing.T) {
	s := openTestStore(t)
	hints, err := Hints(context.Background(), s, "龙", 2, map[string]bool{})
	require.NoError(t, err)
	assert.Equal(t, []string{"龙马精神", "龙飞凤舞"}, hints)

	hints, err = Hints(context.Background(), s, "凤", 3, map[string]bool{})
	require.NoError(t, err)
	assert.Empty(t, hints)
}

func TestParseLine(t *testing.T) {
	t.Run("full line", func(t *testing.T) {
		it, ok := ParseLine("一帆风顺,yī fān fēng shùn,旅途平安,祝你一帆风顺")
		require.True(t, ok)
		assert.Equal(t, "一帆风顺", it.Word)
		assert.Equal(t, "yī fān fēng shùn", it.Pinyin)
		assert.Equal(t, "旅途平安", it.Explanation)
		assert.Equal(t, "祝你一帆风顺", it.Example)
		assert.Equal(t, "一", it.FirstChar)
		assert.Equal(t, "顺", it.LastChar)
	})
	t.Run("word only derives pinyin", func(t *testing.T) {
		it, ok := ParseLine("画蛇添足")
		require.True(t, ok)
		assert.NotEmpty(t, it.Pinyin)
		assert.Equal(t, 1, it.Difficulty)
	})
	t.Run("wrong length rejected", func(t *testing.T) {
		_, ok := ParseLine("龙")
		assert.False(t, ok)
		_, ok = ParseLine("五十步笑百步")
		assert.False(t, ok)
	})
}

func TestImportLines(t *testing.T) {
	s := openTestStore(t)
	tmp := t.TempDir() + "/idioms.txt"
	content := "# comment\n一帆风顺\n\n龙\n胸有成竹,xiōng yǒu chéng zhú\n车水马龙\n"
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0o644))

	added, err := s.ImportFile(context.Background(), tmp)
	require.NoError(t, err)
	// 一帆风顺 and 胸有成竹 are new; 龙 is too short; 车水马龙 already exists.
	assert.Equal(t, 2, added)
}
