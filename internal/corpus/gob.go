package corpus

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"

	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/phonetic"
)

// gobDictionary is the on-disk gob shape: word -> pronunciations -> symbols.
type gobDictionary map[string][][]string

// ParseGob decodes a dictionary written by WriteGob.
func ParseGob(r io.Reader) (*phonetic.Table, error) {
	var dict gobDictionary
	if err := gob.NewDecoder(r).Decode(&dict); err != nil {
		return nil, &LoadError{Source: "gob", Err: fmt.Errorf("decode gob: %w", err)}
	}
	if len(dict) == 0 {
		return nil, &LoadError{Source: "gob", Err: errors.New("no entries")}
	}

	entries := make(map[string][]phonetic.Pronunciation, len(dict))
	for word, prons := range dict {
		for _, symbols := range prons {
			if len(symbols) == 0 {
				return nil, &LoadError{Source: "gob", Err: fmt.Errorf("word %q: empty pronunciation", word)}
			}
			p := make(phonetic.Pronunciation, len(symbols))
			for i, s := range symbols {
				p[i] = phonetic.Phoneme(s)
				if !p[i].Valid() {
					return nil, &LoadError{Source: "gob", Err: fmt.Errorf("word %q: invalid phoneme %q", word, s)}
				}
			}
			entries[word] = append(entries[word], p)
		}
	}
	return phonetic.NewTable(entries), nil
}

// WriteGob snapshots a table for fast startup.
func WriteGob(w io.Writer, table *phonetic.Table) error {
	dict := make(gobDictionary, table.Len())
	table.Each(func(word string, p phonetic.Pronunciation) bool {
		symbols := make([]string, len(p))
		for i, ph := range p {
			symbols[i] = string(ph)
		}
		dict[word] = append(dict[word], symbols)
		return true
	})
	if err := gob.NewEncoder(w).Encode(dict); err != nil {
		return fmt.Errorf("encode gob: %w", err)
	}
	return nil
}
