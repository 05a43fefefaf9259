package homophone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/phonetic"
)

func TestExpandTwoPronunciationsTimesOne(t *testing.T) {
	perWord := [][]phonetic.Pronunciation{
		{pron(t, "P AH0 JH AA1 M AH0 Z"), pron(t, "P AH0 JH AE1 M AH0 Z")},
		{pron(t, "HH IY1 R")},
	}
	got := Expand(perWord)
	require.Len(t, got, 2)
	assert.Equal(t, "P AH0 JH AA1 M AH0 Z HH IY1 R", got[0].Key())
	assert.Equal(t, "P AH0 JH AE1 M AH0 Z HH IY1 R", got[1].Key())
}

func TestExpandSingleWord(t *testing.T) {
	got := Expand([][]phonetic.Pronunciation{{pron(t, "HH IY1 R")}})
	require.Len(t, got, 1)
	assert.Equal(t, "HH IY1 R", got[0].Key())
}

func TestExpandCountIsProduct(t *testing.T) {
	perWord := [][]phonetic.Pronunciation{
		{pron(t, "IY1 DH ER0"), pron(t, "AY1 DH ER0")},
		{pron(t, "AY1")},
		{pron(t, "IY1 DH ER0"), pron(t, "AY1 DH ER0")},
	}
	assert.Len(t, Expand(perWord), 4)
	assert.Equal(t, 4, ExpandCount(perWord))
}

func TestExpandDoesNotAliasInput(t *testing.T) {
	src := pron(t, "HH IY1 R")
	got := Expand([][]phonetic.Pronunciation{{src}})
	got[0][0] = "K"
	assert.Equal(t, phonetic.Phoneme("HH"), src[0])
}

func TestExpandEmpty(t *testing.T) {
	assert.Nil(t, Expand(nil))
	assert.Nil(t, Expand([][]phonetic.Pronunciation{{pron(t, "AY1")}, {}}))
	assert.Zero(t, ExpandCount(nil))
	assert.Zero(t, ExpandCount([][]phonetic.Pronunciation{{pron(t, "AY1")}, {}}))
}
