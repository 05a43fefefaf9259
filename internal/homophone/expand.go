package homophone

import "github.com/Adithya-Monish-Kumar-K/wordsmith/internal/phonetic"

// Expand returns every whole-phrase pronunciation obtainable by choosing one
// pronunciation per word and concatenating the choices in word order. The
// result has one entry per combination, so its length is the product of the
// per-word counts.
func Expand(perWord [][]phonetic.Pronunciation) []phonetic.Pronunciation {
	size := productSize(perWord)
	if size == 0 {
		return nil
	}
	result := make([]phonetic.Pronunciation, 0, size)
	product(perWord, func(combo []phonetic.Pronunciation) {
		n := 0
		for _, p := range combo {
			n += len(p)
		}
		flat := make(phonetic.Pronunciation, 0, n)
		for _, p := range combo {
			flat = append(flat, p...)
		}
		result = append(result, flat)
	})
	return result
}

// ExpandCount is len(Expand(perWord)) without building the combinations.
// It saturates at math.MaxInt.
func ExpandCount(perWord [][]phonetic.Pronunciation) int {
	return productSize(perWord)
}
