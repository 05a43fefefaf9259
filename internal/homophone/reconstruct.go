package homophone

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/phonetic"
)

// WordIndex resolves a phoneme block to the words pronounced exactly that
// way. ok == false means no word matches.
type WordIndex interface {
	Lookup(block phonetic.Pronunciation) (words []string, ok bool)
}

// Reconstruct turns one partition into phrases: the cross product of the
// words matching each block, joined with single spaces. A block without any
// matching word makes the whole partition contribute nothing.
func Reconstruct(p Partition, idx WordIndex) []string {
	phrases, _ := appendPhrases(nil, nil, p, idx)
	return phrases
}

// appendPhrases is Reconstruct with caller-owned buffers for the hot loop.
// It returns the grown dst and the scratch slice for reuse.
func appendPhrases(dst []string, scratch [][]string, p Partition, idx WordIndex) ([]string, [][]string) {
	scratch = scratch[:0]
	for block := range p.Blocks() {
		words, ok := idx.Lookup(block)
		if !ok || len(words) == 0 {
			return dst, scratch
		}
		scratch = append(scratch, words)
	}
	if len(scratch) == 1 {
		return append(dst, scratch[0]...), scratch
	}
	var b strings.Builder
	product(scratch, func(combo []string) {
		b.Reset()
		for i, w := range combo {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(w)
		}
		dst = append(dst, b.String())
	})
	return dst, scratch
}
