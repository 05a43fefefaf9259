package homophone

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/phonetic"
)

func pron(t testing.TB, s string) phonetic.Pronunciation {
	t.Helper()
	p, err := phonetic.ParsePronunciation(s)
	require.NoError(t, err)
	return p
}

// fixtureLexicon is a small slice of the CMU dictionary.
func fixtureLexicon(t testing.TB) *Lexicon {
	t.Helper()
	entries := map[string][]string{
		"ice":     {"AY1 S"},
		"cream":   {"K R IY1 M"},
		"creme":   {"K R IY1 M"},
		"scream":  {"S K R IY1 M"},
		"i":       {"AY1"},
		"eye":     {"AY1"},
		"aye":     {"AY1"},
		"ay":      {"AY1"},
		"here":    {"HH IY1 R"},
		"hear":    {"HH IY1 R"},
		"pajamas": {"P AH0 JH AA1 M AH0 Z", "P AH0 JH AE1 M AH0 Z"},
		"either":  {"IY1 DH ER0", "AY1 DH ER0"},
	}
	table := make(map[string][]phonetic.Pronunciation, len(entries))
	for w, ps := range entries {
		for _, p := range ps {
			table[w] = append(table[w], pron(t, p))
		}
	}
	return NewLexicon(phonetic.NewTable(table))
}

// chainLexicon has single-phoneme and two-phoneme words over B and AA1, so
// long phrases have many matching partitions.
func chainLexicon(t testing.TB) *Lexicon {
	t.Helper()
	return NewLexicon(phonetic.NewTable(map[string][]phonetic.Pronunciation{
		"b":  {pron(t, "B")},
		"ah": {pron(t, "AA1")},
		"ba": {pron(t, "B AA1")},
		"ab": {pron(t, "AA1 B")},
	}))
}
