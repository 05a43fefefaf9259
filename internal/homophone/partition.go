package homophone

import (
	"iter"
	"math/bits"

	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/phonetic"
)

// MaxSequenceLength is the longest pronunciation the partition engine can
// enumerate: its n-1 boundaries must fit in a uint64 mask.
const MaxSequenceLength = 64

// Partition is one split of a source pronunciation into contiguous nonempty
// blocks. Bit i of the mask set means "cut after symbol i"; mask 0 is the
// whole sequence as a single block.
type Partition struct {
	source phonetic.Pronunciation
	mask   uint64
}

// NewPartition returns the partition of source selected by mask. Bits at or
// above len(source)-1 are ignored.
func NewPartition(source phonetic.Pronunciation, mask uint64) Partition {
	if n := len(source); n <= 1 {
		mask = 0
	} else if n-1 < 64 {
		mask &= (uint64(1) << uint(n-1)) - 1
	}
	return Partition{source: source, mask: mask}
}

// Mask returns the boundary bitmask.
func (p Partition) Mask() uint64 {
	return p.mask
}

// Len is the number of blocks.
func (p Partition) Len() int {
	if len(p.source) == 0 {
		return 0
	}
	return bits.OnesCount64(p.mask) + 1
}

// Blocks yields the blocks left to right. Blocks alias the source and are
// capped, so appending to one never clobbers its neighbour.
func (p Partition) Blocks() iter.Seq[phonetic.Pronunciation] {
	return func(yield func(phonetic.Pronunciation) bool) {
		if len(p.source) == 0 {
			return
		}
		start := 0
		for m := p.mask; m != 0; m &= m - 1 {
			end := bits.TrailingZeros64(m) + 1
			if !yield(p.source[start:end:end]) {
				return
			}
			start = end
		}
		yield(p.source[start:len(p.source):len(p.source)])
	}
}

// Slice materializes the blocks.
func (p Partition) Slice() []phonetic.Pronunciation {
	out := make([]phonetic.Pronunciation, 0, p.Len())
	for b := range p.Blocks() {
		out = append(out, b)
	}
	return out
}

// PartitionCount is 2^(n-1) for a length-n sequence and 0 for an empty one.
// n must not exceed MaxSequenceLength.
func PartitionCount(n int) uint64 {
	if n <= 0 {
		return 0
	}
	return uint64(1) << uint(n-1)
}

// Partitions lazily yields all 2^(n-1) partitions of seq in ascending mask
// order. Sequences longer than MaxSequenceLength yield nothing; callers are
// expected to reject them first.
func Partitions(seq phonetic.Pronunciation) iter.Seq[Partition] {
	if len(seq) > MaxSequenceLength {
		return func(func(Partition) bool) {}
	}
	return PartitionsRange(seq, 0, PartitionCount(len(seq)))
}

// PartitionsRange yields the partitions with masks in [lo, hi), clamped to
// the valid range for seq. Disjoint ranges never yield the same partition,
// which is what lets the searcher shard one sequence across workers.
func PartitionsRange(seq phonetic.Pronunciation, lo, hi uint64) iter.Seq[Partition] {
	return func(yield func(Partition) bool) {
		if len(seq) == 0 || len(seq) > MaxSequenceLength {
			return
		}
		if total := PartitionCount(len(seq)); hi > total {
			hi = total
		}
		for mask := lo; mask < hi; mask++ {
			if !yield(Partition{source: seq, mask: mask}) {
				return
			}
		}
	}
}

// maskRanges splits [0, total) into at most shards contiguous half-open
// ranges of near-equal size.
func maskRanges(total uint64, shards int) [][2]uint64 {
	if total == 0 {
		return nil
	}
	if shards < 1 {
		shards = 1
	}
	if uint64(shards) > total {
		shards = int(total)
	}
	step := total / uint64(shards)
	rem := total % uint64(shards)
	ranges := make([][2]uint64, 0, shards)
	var lo uint64
	for i := 0; i < shards; i++ {
		size := step
		if uint64(i) < rem {
			size++
		}
		ranges = append(ranges, [2]uint64{lo, lo + size})
		lo += size
	}
	return ranges
}
