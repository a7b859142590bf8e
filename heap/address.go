// Package heap provides the region-based heap model consumed by the full-GC
// compaction phase: a contiguous mmap-backed address space partitioned into
// fixed-size regions, a per-word liveness bitmap, self-describing object
// headers with forwarding support, and a lock-free region claimer for
// heap-wide parallel iteration.
package heap

// Address is a word-aligned byte offset from the heap base. The heap is a
// single contiguous mapping, so a 32-bit offset addresses up to 4GiB; the
// mark-word forwarding encoding depends on this bound.
type Address uint32

const (
	// WordSize is the heap word granularity in bytes. Object sizes,
	// addresses, and bitmap bits are all word-granular.
	WordSize = 4

	// HeaderBytes is the object header size: mark word plus class word.
	HeaderBytes = 2 * WordSize

	// MinObjectBytes is the smallest representable object (header only).
	MinObjectBytes = HeaderBytes
)

// Aligned reports whether the address is word-aligned.
func (a Address) Aligned() bool {
	return a%WordSize == 0
}

// AlignUp rounds n up to the next word boundary.
func AlignUp(n uint32) uint32 {
	return (n + WordSize - 1) &^ (WordSize - 1)
}
