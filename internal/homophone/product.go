package homophone

import "math"

// product calls emit once per element of the cartesian product of lists,
// last list varying fastest. emit receives a reused slice and must copy it
// to retain it. Nothing is emitted when any list is empty.
func product[T any](lists [][]T, emit func(combo []T)) {
	if len(lists) == 0 {
		return
	}
	for _, l := range lists {
		if len(l) == 0 {
			return
		}
	}
	idx := make([]int, len(lists))
	combo := make([]T, len(lists))
	for i, l := range lists {
		combo[i] = l[0]
	}
	for {
		emit(combo)
		k := len(lists) - 1
		for ; k >= 0; k-- {
			idx[k]++
			if idx[k] < len(lists[k]) {
				combo[k] = lists[k][idx[k]]
				break
			}
			idx[k] = 0
			combo[k] = lists[k][0]
		}
		if k < 0 {
			return
		}
	}
}

// productSize is the number of combinations product would emit, saturating
// at math.MaxInt.
func productSize[T any](lists [][]T) int {
	if len(lists) == 0 {
		return 0
	}
	size := 1
	for _, l := range lists {
		if len(l) == 0 {
			return 0
		}
		if size > math.MaxInt/len(l) {
			return math.MaxInt
		}
		size *= len(l)
	}
	return size
}
