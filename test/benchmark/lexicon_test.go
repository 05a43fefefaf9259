// Package benchmark measures the hot paths of homophone search: partition
// enumeration, reconstruction against the inverted index, index build and
// tokenization.
//
// Run with:
//
//	go test -bench=. -benchmem ./test/benchmark/...
package benchmark

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/phonetic"
)

var symbols = []phonetic.Phoneme{
	"AA1", "AE1", "AH0", "AY1", "B", "D", "EH1", "ER0", "IY1", "K",
	"L", "M", "N", "OW1", "P", "R", "S", "T", "UW1", "Z",
}

// syntheticTable builds words random pronunciations of one to four
// phonemes from a fixed seed, so every run sees the same dictionary.
func syntheticTable(words int) *phonetic.Table {
	rng := rand.New(rand.NewPCG(42, 7))
	entries := make(map[string][]phonetic.Pronunciation, words)
	for i := range words {
		n := 1 + rng.IntN(4)
		p := make(phonetic.Pronunciation, n)
		for j := range p {
			p[j] = symbols[rng.IntN(len(symbols))]
		}
		entries[fmt.Sprintf("w%d", i)] = []phonetic.Pronunciation{p}
	}
	return phonetic.NewTable(entries)
}

func mustPron(b *testing.B, s string) phonetic.Pronunciation {
	b.Helper()
	p, err := phonetic.ParsePronunciation(s)
	if err != nil {
		b.Fatal(err)
	}
	return p
}
