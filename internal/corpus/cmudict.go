package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/phonetic"
)

// ParseCMU reads the CMU Pronouncing Dictionary text format. Both layouts
// are accepted:
//
//	ABANDON  AH0 B AE1 N D AH0 N      classic, ";;;" comments
//	abandon(2) ah0 b ae1 n d ah0 n # x  modern, "#" trailing comments
//
// Words are lowercased and their "(n)" variant suffix removed. The order of
// pronunciations per word is the order of appearance.
func ParseCMU(r io.Reader) (*phonetic.Table, error) {
	entries := make(map[string][]phonetic.Pronunciation)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		word, pron, err := parseCMULine(scanner.Text())
		if err != nil {
			return nil, &LoadError{Source: "cmudict", Line: lineNum, Err: err}
		}
		if word == "" {
			continue
		}
		entries[word] = append(entries[word], pron)
	}
	if err := scanner.Err(); err != nil {
		return nil, &LoadError{Source: "cmudict", Line: lineNum, Err: err}
	}
	if len(entries) == 0 {
		return nil, &LoadError{Source: "cmudict", Err: errors.New("no entries")}
	}
	return phonetic.NewTable(entries), nil
}

// parseCMULine returns an empty word for blank and comment lines.
func parseCMULine(line string) (string, phonetic.Pronunciation, error) {
	if strings.HasPrefix(line, ";;;") {
		return "", nil, nil
	}
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, nil
	}
	if len(fields) == 1 {
		return "", nil, fmt.Errorf("word %q has no phonemes", fields[0])
	}

	word := strings.ToLower(stripVariant(fields[0]))
	pron := make(phonetic.Pronunciation, len(fields)-1)
	for i, f := range fields[1:] {
		ph := phonetic.Phoneme(strings.ToUpper(f))
		if !ph.Valid() {
			return "", nil, fmt.Errorf("word %q: invalid phoneme %q", word, f)
		}
		pron[i] = ph
	}
	return word, pron, nil
}

// stripVariant turns "word(2)" into "word". A bare "(" word is left alone.
func stripVariant(w string) string {
	if !strings.HasSuffix(w, ")") {
		return w
	}
	open := strings.LastIndexByte(w, '(')
	if open <= 0 {
		return w
	}
	for _, c := range w[open+1 : len(w)-1] {
		if c < '0' || c > '9' {
			return w
		}
	}
	return w[:open]
}
