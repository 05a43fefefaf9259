// Package phonetic holds the pronunciation data model: phoneme symbols,
// pronunciations and the read-only word -> pronunciations table.
package phonetic

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/errors"
)

// Phoneme is an ARPAbet-style symbol such as "AH0" or "K".
type Phoneme string

// Valid reports whether p is an uppercase code with an optional trailing
// stress digit.
func (p Phoneme) Valid() bool {
	if len(p) == 0 {
		return false
	}
	s := string(p)
	if last := s[len(s)-1]; last >= '0' && last <= '9' {
		s = s[:len(s)-1]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

// Pronunciation is an ordered phoneme sequence.
type Pronunciation []Phoneme

// Key returns the hashable form of the sequence. Valid symbols never
// contain spaces, so over valid symbols joining on a single space is
// injective.
func (p Pronunciation) Key() string {
	switch len(p) {
	case 0:
		return ""
	case 1:
		return string(p[0])
	}
	n := len(p) - 1
	for _, ph := range p {
		n += len(ph)
	}
	var b strings.Builder
	b.Grow(n)
	b.WriteString(string(p[0]))
	for _, ph := range p[1:] {
		b.WriteByte(' ')
		b.WriteString(string(ph))
	}
	return b.String()
}

func (p Pronunciation) String() string {
	return p.Key()
}

// Equal compares two pronunciations elementwise.
func (p Pronunciation) Equal(other Pronunciation) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// ParsePronunciation splits a space separated symbol list.
func ParsePronunciation(s string) (Pronunciation, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty pronunciation")
	}
	p := make(Pronunciation, len(fields))
	for i, f := range fields {
		ph := Phoneme(strings.ToUpper(f))
		if !ph.Valid() {
			return nil, fmt.Errorf("invalid phoneme symbol %q", f)
		}
		p[i] = ph
	}
	return p, nil
}

// UnknownWordError reports a query word with no table entry.
type UnknownWordError struct {
	Word string
}

func (e *UnknownWordError) Error() string {
	return fmt.Sprintf("unknown word %q", e.Word)
}

func (e *UnknownWordError) Unwrap() error {
	return apperrors.ErrUnknownWord
}

// Table maps lowercase words to their pronunciations. It is built once and
// never mutated afterwards, so concurrent readers need no locking.
type Table struct {
	entries map[string][]Pronunciation
	words   []string
	total   int
}

// NewTable copies entries into a Table. Words are expected to be already
// lowercased; empty pronunciation lists are dropped.
func NewTable(entries map[string][]Pronunciation) *Table {
	t := &Table{entries: make(map[string][]Pronunciation, len(entries))}
	for word, prons := range entries {
		if len(prons) == 0 {
			continue
		}
		cp := make([]Pronunciation, len(prons))
		for i, p := range prons {
			cp[i] = append(Pronunciation(nil), p...)
		}
		t.entries[word] = cp
		t.words = append(t.words, word)
		t.total += len(cp)
	}
	sort.Strings(t.words)
	return t
}

// Lookup returns every pronunciation of word, in corpus order.
func (t *Table) Lookup(word string) ([]Pronunciation, error) {
	prons, ok := t.entries[word]
	if !ok {
		return nil, &UnknownWordError{Word: word}
	}
	return prons, nil
}

// Has reports whether word has an entry.
func (t *Table) Has(word string) bool {
	_, ok := t.entries[word]
	return ok
}

// Words returns all words in sorted order. The slice must not be modified.
func (t *Table) Words() []string {
	return t.words
}

// Len is the number of words.
func (t *Table) Len() int {
	return len(t.words)
}

// PronunciationCount is the number of (word, pronunciation) pairs.
func (t *Table) PronunciationCount() int {
	return t.total
}

// Each visits every (word, pronunciation) pair exactly once, words in sorted
// order and pronunciations in corpus order. Returning false stops the walk.
func (t *Table) Each(fn func(word string, p Pronunciation) bool) {
	for _, w := range t.words {
		for _, p := range t.entries[w] {
			if !fn(w, p) {
				return
			}
		}
	}
}
