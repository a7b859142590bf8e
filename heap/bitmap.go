package heap

import "math/bits"

const bitsPerWord = 64

// MarkBitmap records liveness with one bit per heap word across the whole
// heap: a set bit means the word at that address is the start of a live
// object. The bitmap is built by the marking phase; compaction only reads
// it, clears region-sized ranges of it, and iterates it in ascending order.
type MarkBitmap struct {
	bits      []uint64 // One bit per heap word
	heapWords uint32   // Number of heap words covered
}

// NewMarkBitmap creates a bitmap covering heapBytes of heap.
func NewMarkBitmap(heapBytes uint32) *MarkBitmap {
	words := heapBytes / WordSize

	return &MarkBitmap{
		bits:      make([]uint64, (words+bitsPerWord-1)/bitsPerWord),
		heapWords: words,
	}
}

func (b *MarkBitmap) bitIndex(addr Address) (uint32, uint32) {
	w := uint32(addr) / WordSize

	return w / bitsPerWord, w % bitsPerWord
}

// Mark sets the liveness bit for the object starting at addr.
func (b *MarkBitmap) Mark(addr Address) {
	if !addr.Aligned() {
		fatalf("bitmap: mark of unaligned address %#x", addr)
	}
	i, off := b.bitIndex(addr)
	b.bits[i] |= 1 << off
}

// IsMarked reports whether addr is recorded as a live object start.
func (b *MarkBitmap) IsMarked(addr Address) bool {
	i, off := b.bitIndex(addr)

	return b.bits[i]&(1<<off) != 0
}

// ClearRange clears all liveness bits in [start, end).
func (b *MarkBitmap) ClearRange(start, end Address) {
	if start >= end {
		return
	}
	first := uint32(start) / WordSize
	last := uint32(end)/WordSize - 1

	fi, fo := first/bitsPerWord, first%bitsPerWord
	li, lo := last/bitsPerWord, last%bitsPerWord

	if fi == li {
		mask := (^uint64(0) << fo) & (^uint64(0) >> (bitsPerWord - 1 - lo))
		b.bits[fi] &^= mask

		return
	}
	b.bits[fi] &^= ^uint64(0) << fo
	for i := fi + 1; i < li; i++ {
		b.bits[i] = 0
	}
	b.bits[li] &^= ^uint64(0) >> (bitsPerWord - 1 - lo)
}

// IsRangeClear reports whether no bit is set in [start, end). Used by the
// cycle verifier to check eager bitmap clearing.
func (b *MarkBitmap) IsRangeClear(start, end Address) bool {
	for a := start; a < end; a += WordSize {
		if b.IsMarked(a) {
			return false
		}
	}

	return true
}

// NextMarked returns the lowest marked address in [start, limit). The bool
// result is false when the range holds no marked address. Scanning is
// word-at-a-time with a trailing-zero count, so sparse bitmaps are cheap.
func (b *MarkBitmap) NextMarked(start, limit Address) (Address, bool) {
	if start >= limit {
		return 0, false
	}
	first := uint32(start) / WordSize
	lastExcl := uint32(limit) / WordSize

	i, off := first/bitsPerWord, first%bitsPerWord
	word := b.bits[i] >> off << off // Drop bits below start

	for {
		if word != 0 {
			w := i*bitsPerWord + uint32(bits.TrailingZeros64(word))
			if w >= lastExcl {
				return 0, false
			}

			return Address(w * WordSize), true
		}
		i++
		if i*bitsPerWord >= lastExcl {
			return 0, false
		}
		word = b.bits[i]
	}
}
