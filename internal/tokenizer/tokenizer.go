// Package tokenizer turns a free-text phrase into the lowercase words the
// pronouncing dictionary is keyed by. Word boundaries follow Unicode text
// segmentation, so "don't" stays one word and "ice-cream" becomes two.
package tokenizer

import (
	"bytes"
	"iter"
	"strings"

	"github.com/blevesearch/segment"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Token is one word and its byte span in the normalized input.
type Token struct {
	Term  string
	Start int
	End   int
}

var apostrophes = strings.NewReplacer("’", "'", "ʼ", "'", "‘", "'")

// Scan yields the word tokens of text after NFC normalization. Punctuation,
// whitespace and symbols are skipped.
func Scan(text string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		normalized := norm.NFC.String(text)
		lower := cases.Lower(language.Und)
		seg := segment.NewWordSegmenter(bytes.NewReader([]byte(normalized)))
		offset := 0
		for seg.Segment() {
			raw := seg.Bytes()
			start := offset
			offset += len(raw)
			switch seg.Type() {
			case segment.Letter, segment.Number, segment.Kana, segment.Ideo:
			default:
				continue
			}
			term := apostrophes.Replace(lower.String(string(raw)))
			term = strings.Trim(term, "'")
			if term == "" {
				continue
			}
			if !yield(Token{Term: term, Start: start, End: offset}) {
				return
			}
		}
	}
}

// Tokenize returns the words of text in order.
func Tokenize(text string) []string {
	var words []string
	for t := range Scan(text) {
		words = append(words, t.Term)
	}
	return words
}
