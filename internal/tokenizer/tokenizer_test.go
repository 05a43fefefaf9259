package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"ice cream", []string{"ice", "cream"}},
		{"  Ice   CREAM!  ", []string{"ice", "cream"}},
		{"I scream, you scream.", []string{"i", "scream", "you", "scream"}},
		{"don't stop", []string{"don't", "stop"}},
		{"don’t stop", []string{"don't", "stop"}},
		{"ice-cream", []string{"ice", "cream"}},
		{"Café", []string{"café"}},
		{"route 66", []string{"route", "66"}},
		{"", nil},
		{"?!...", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

func TestScanOffsets(t *testing.T) {
	var got []Token
	for tok := range Scan("Hear, here") {
		got = append(got, tok)
	}
	assert.Equal(t, []Token{
		{Term: "hear", Start: 0, End: 4},
		{Term: "here", Start: 6, End: 10},
	}, got)
}

func TestScanStopsEarly(t *testing.T) {
	n := 0
	for range Scan("one two three") {
		n++
		break
	}
	assert.Equal(t, 1, n)
}
