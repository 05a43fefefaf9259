package phonetic

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/errors"
)

func mustParse(t *testing.T, s string) Pronunciation {
	t.Helper()
	p, err := ParsePronunciation(s)
	require.NoError(t, err)
	return p
}

func TestPhonemeValid(t *testing.T) {
	for _, ok := range []string{"AH0", "K", "IY1", "ZH"} {
		assert.True(t, Phoneme(ok).Valid(), ok)
	}
	for _, bad := range []string{"", "0", "ah0", "A H", "AH10", "A-1"} {
		assert.False(t, Phoneme(bad).Valid(), bad)
	}
}

func TestParsePronunciation(t *testing.T) {
	p := mustParse(t, "  hh  iy1 r ")
	assert.Equal(t, Pronunciation{"HH", "IY1", "R"}, p)
	assert.Equal(t, "HH IY1 R", p.Key())

	_, err := ParsePronunciation("   ")
	assert.Error(t, err)
	_, err = ParsePronunciation("HH I-Y R")
	assert.Error(t, err)
}

func TestPronunciationKeyIsOrderSensitive(t *testing.T) {
	a := Pronunciation{"S", "K"}
	b := Pronunciation{"K", "S"}
	assert.NotEqual(t, a.Key(), b.Key())
	assert.True(t, a.Equal(Pronunciation{"S", "K"}))
	assert.False(t, a.Equal(b))
	assert.Equal(t, "", Pronunciation{}.Key())
}

func TestTableLookup(t *testing.T) {
	table := NewTable(map[string][]Pronunciation{
		"here":    {mustParse(t, "HH IY1 R")},
		"pajamas": {mustParse(t, "P AH0 JH AA1 M AH0 Z"), mustParse(t, "P AH0 JH AE1 M AH0 Z")},
		"empty":   {},
	})

	prons, err := table.Lookup("pajamas")
	require.NoError(t, err)
	require.Len(t, prons, 2)
	assert.Equal(t, Phoneme("AA1"), prons[0][3])
	assert.Equal(t, Phoneme("AE1"), prons[1][3])

	_, err = table.Lookup("xyzzy")
	var unknown *UnknownWordError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "xyzzy", unknown.Word)
	assert.True(t, errors.Is(err, apperrors.ErrUnknownWord))

	assert.False(t, table.Has("empty"))
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, 3, table.PronunciationCount())
	assert.Equal(t, []string{"here", "pajamas"}, table.Words())
}

func TestTableCopiesInput(t *testing.T) {
	src := map[string][]Pronunciation{"a": {{"AH0"}}}
	table := NewTable(src)
	src["a"][0][0] = "EY1"

	prons, err := table.Lookup("a")
	require.NoError(t, err)
	assert.Equal(t, Phoneme("AH0"), prons[0][0])
}

func TestTableEachVisitsEveryPair(t *testing.T) {
	table := NewTable(map[string][]Pronunciation{
		"b": {{"B", "IY1"}},
		"a": {{"AH0"}, {"EY1"}},
	})
	var got []string
	table.Each(func(word string, p Pronunciation) bool {
		got = append(got, word+":"+p.Key())
		return true
	})
	assert.Equal(t, []string{"a:AH0", "a:EY1", "b:B IY1"}, got)

	visits := 0
	table.Each(func(string, Pronunciation) bool {
		visits++
		return false
	})
	assert.Equal(t, 1, visits)
}
