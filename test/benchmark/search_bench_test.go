package benchmark

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/homophone"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/phonetic"
)

// BenchmarkPartitions measures bare enumeration of every partition for
// sequences of increasing length.
func BenchmarkPartitions(b *testing.B) {
	for _, n := range []int{8, 12, 16, 20} {
		seq := make(phonetic.Pronunciation, n)
		for i := range seq {
			seq[i] = symbols[i%len(symbols)]
		}
		b.Run(fmt.Sprintf("phonemes_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				var blocks int
				for p := range homophone.Partitions(seq) {
					blocks += p.Len()
				}
				_ = blocks
			}
		})
	}
}

// BenchmarkReconstruct measures reconstruction of the finest partition,
// where every block is a single phoneme.
func BenchmarkReconstruct(b *testing.B) {
	lex := homophone.NewLexicon(syntheticTable(20000))
	seq := mustPron(b, "K R IY1 M S T")
	finest := homophone.NewPartition(seq, homophone.PartitionCount(len(seq))-1)
	b.ReportAllocs()
	for b.Loop() {
		_ = homophone.Reconstruct(finest, lex.Index)
	}
}

// BenchmarkSearch compares sequential and sharded search over a synthetic
// dictionary.
func BenchmarkSearch(b *testing.B) {
	table := syntheticTable(20000)
	lex := homophone.NewLexicon(table)

	// Build a query from real table words totalling about 16 phonemes.
	var words []string
	total := 0
	for _, w := range table.Words() {
		prons, _ := table.Lookup(w)
		if total+len(prons[0]) > 16 {
			continue
		}
		words = append(words, w)
		total += len(prons[0])
		if total >= 14 {
			break
		}
	}
	b.Logf("query %q, %d phonemes", strings.Join(words, " "), total)

	for _, workers := range []int{1, 4, 8} {
		s := homophone.NewSearcher(lex, homophone.Config{Workers: workers})
		b.Run(fmt.Sprintf("workers_%d", workers), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				if _, err := s.Search(context.Background(), words); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
