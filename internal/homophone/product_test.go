package homophone

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductOrder(t *testing.T) {
	var got []string
	product([][]string{{"a", "b"}, {"x"}, {"1", "2"}}, func(combo []string) {
		got = append(got, strings.Join(combo, ""))
	})
	assert.Equal(t, []string{"ax1", "ax2", "bx1", "bx2"}, got)
}

func TestProductEmpty(t *testing.T) {
	calls := 0
	product([][]string{{"a"}, {}}, func([]string) { calls++ })
	product([][]string{}, func([]string) { calls++ })
	assert.Zero(t, calls)
}

func TestProductSize(t *testing.T) {
	assert.Equal(t, 6, productSize([][]int{{1, 2}, {1, 2, 3}}))
	assert.Equal(t, 0, productSize([][]int{{1}, nil}))
	assert.Equal(t, 0, productSize[int](nil))
}
