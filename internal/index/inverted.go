// Package index builds the pronunciation -> words inverted index used to turn
// phoneme blocks back into spellings.
package index

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/phonetic"
)

// Bucket is one inverted-index entry: every word sharing a pronunciation.
type Bucket struct {
	Pronunciation phonetic.Pronunciation
	Words         []string
}

// Inverted maps a pronunciation key to the words that have it. It is built
// once from a full table scan and is read-only afterwards.
type Inverted struct {
	buckets map[string]*Bucket
	pairs   int
	longest int
}

// Build scans every (word, pronunciation) pair of the table exactly once.
// Within a bucket words keep table order (sorted), so lookups are
// deterministic.
func Build(table *phonetic.Table) *Inverted {
	inv := &Inverted{
		buckets: make(map[string]*Bucket, table.PronunciationCount()),
	}
	table.Each(func(word string, p phonetic.Pronunciation) bool {
		key := p.Key()
		b, ok := inv.buckets[key]
		if !ok {
			b = &Bucket{Pronunciation: p}
			inv.buckets[key] = b
		}
		b.Words = append(b.Words, word)
		inv.pairs++
		if len(p) > inv.longest {
			inv.longest = len(p)
		}
		return true
	})
	return inv
}

// Lookup returns the words pronounced exactly as block. ok is false when no
// word matches, which is the common case for arbitrary blocks.
func (inv *Inverted) Lookup(block phonetic.Pronunciation) (words []string, ok bool) {
	if len(block) == 0 || len(block) > inv.longest {
		return nil, false
	}
	return inv.LookupKey(block.Key())
}

// LookupKey is Lookup for a precomputed key.
func (inv *Inverted) LookupKey(key string) ([]string, bool) {
	b, ok := inv.buckets[key]
	if !ok {
		return nil, false
	}
	return b.Words, true
}

// Size is the number of distinct pronunciations.
func (inv *Inverted) Size() int {
	return len(inv.buckets)
}

// Pairs is the number of (word, pronunciation) pairs indexed.
func (inv *Inverted) Pairs() int {
	return inv.pairs
}

// LongestPronunciation is the phoneme count of the longest indexed entry.
// Blocks longer than this can never match.
func (inv *Inverted) LongestPronunciation() int {
	return inv.longest
}

// Homophones returns the buckets holding more than one word, sorted by key.
// The Words slices are shared with the index and must not be modified.
func (inv *Inverted) Homophones() []Bucket {
	keys := make([]string, 0)
	for key, b := range inv.buckets {
		if len(b.Words) > 1 {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	result := make([]Bucket, len(keys))
	for i, key := range keys {
		result[i] = *inv.buckets[key]
	}
	return result
}
