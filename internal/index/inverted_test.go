package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/phonetic"
)

func pron(t *testing.T, s string) phonetic.Pronunciation {
	t.Helper()
	p, err := phonetic.ParsePronunciation(s)
	require.NoError(t, err)
	return p
}

func testTable(t *testing.T) *phonetic.Table {
	return phonetic.NewTable(map[string][]phonetic.Pronunciation{
		"here":   {pron(t, "HH IY1 R")},
		"hear":   {pron(t, "HH IY1 R")},
		"i":      {pron(t, "AY1")},
		"eye":    {pron(t, "AY1")},
		"ice":    {pron(t, "AY1 S")},
		"scream": {pron(t, "S K R IY1 M")},
		"cream":  {pron(t, "K R IY1 M")},
		"either": {pron(t, "IY1 DH ER0"), pron(t, "AY1 DH ER0")},
	})
}

func TestBuildBucketsMatchTable(t *testing.T) {
	table := testTable(t)
	inv := Build(table)

	assert.Equal(t, table.PronunciationCount(), inv.Pairs())
	assert.Equal(t, 7, inv.Size())
	assert.Equal(t, 5, inv.LongestPronunciation())

	// Every table pair is findable, and every bucket word really has that
	// pronunciation.
	table.Each(func(word string, p phonetic.Pronunciation) bool {
		words, ok := inv.Lookup(p)
		require.True(t, ok, word)
		assert.Contains(t, words, word)
		for _, w := range words {
			prons, err := table.Lookup(w)
			require.NoError(t, err)
			found := false
			for _, wp := range prons {
				found = found || wp.Equal(p)
			}
			assert.True(t, found, "%s listed under %s", w, p)
		}
		return true
	})
}

func TestLookupSharedPronunciation(t *testing.T) {
	inv := Build(testTable(t))

	words, ok := inv.Lookup(pron(t, "HH IY1 R"))
	require.True(t, ok)
	assert.Equal(t, []string{"hear", "here"}, words)

	words, ok = inv.Lookup(pron(t, "AY1 DH ER0"))
	require.True(t, ok)
	assert.Equal(t, []string{"either"}, words)
}

func TestLookupMiss(t *testing.T) {
	inv := Build(testTable(t))

	words, ok := inv.Lookup(pron(t, "S K"))
	assert.False(t, ok)
	assert.Nil(t, words)

	_, ok = inv.Lookup(nil)
	assert.False(t, ok)

	_, ok = inv.Lookup(pron(t, "AY1 S K R IY1 M"))
	assert.False(t, ok, "longer than any entry")
}

func TestHomophones(t *testing.T) {
	buckets := Build(testTable(t)).Homophones()
	require.Len(t, buckets, 2)
	assert.Equal(t, "AY1", buckets[0].Pronunciation.Key())
	assert.Equal(t, []string{"eye", "i"}, buckets[0].Words)
	assert.Equal(t, "HH IY1 R", buckets[1].Pronunciation.Key())
}

func TestHomophonesKeepBuiltPronunciation(t *testing.T) {
	// Symbols assembled in code skip ParsePronunciation; the bucket still
	// carries the sequence it was built from.
	lower := phonetic.Pronunciation{"ay1"}
	inv := Build(phonetic.NewTable(map[string][]phonetic.Pronunciation{
		"eye": {lower},
		"i":   {lower},
		"ice": {pron(t, "AY1 S")},
	}))

	buckets := inv.Homophones()
	require.Len(t, buckets, 1)
	assert.Equal(t, lower, buckets[0].Pronunciation)
	assert.Equal(t, []string{"eye", "i"}, buckets[0].Words)
}
