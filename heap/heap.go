package heap

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/cespare/xxhash/v2"
)

const (
	// DefaultRegionBytes is the default region size.
	DefaultRegionBytes = 64 * 1024

	// MinRegionBytes bounds how small a region may be configured; below
	// this the per-region bookkeeping dwarfs the region itself.
	MinRegionBytes = 256
)

// Config sizes the heap. RegionBytes must be a power of two and HeapBytes a
// multiple of it.
type Config struct {
	HeapBytes   uint32 // Total heap size in bytes
	RegionBytes uint32 // Region size in bytes; 0 selects DefaultRegionBytes
}

// Heap is a contiguous mmap-backed address space partitioned into
// fixed-size regions. All object and bitmap addresses are byte offsets into
// the backing mapping.
type Heap struct {
	backing     []byte
	mapped      bool // Backing came from mapHeap and needs unmapping
	regionBytes uint32
	regions     []*Region
	classes     *ClassTable
	bitmap      *MarkBitmap
}

// NewHeap maps a heap of cfg.HeapBytes and carves it into regions. The
// class table is shared with the caller and must be fully registered before
// a collection cycle starts.
func NewHeap(cfg Config, classes *ClassTable) (*Heap, error) {
	if cfg.RegionBytes == 0 {
		cfg.RegionBytes = DefaultRegionBytes
	}
	if cfg.RegionBytes < MinRegionBytes || bits.OnesCount32(cfg.RegionBytes) != 1 {
		return nil, fmt.Errorf("region size %d: must be a power of two >= %d", cfg.RegionBytes, MinRegionBytes)
	}
	if cfg.HeapBytes == 0 || cfg.HeapBytes%cfg.RegionBytes != 0 {
		return nil, fmt.Errorf("heap size %d: must be a non-zero multiple of region size %d", cfg.HeapBytes, cfg.RegionBytes)
	}
	if classes == nil {
		return nil, fmt.Errorf("nil class table")
	}

	backing, mapped, err := mapHeap(int(cfg.HeapBytes))
	if err != nil {
		return nil, fmt.Errorf("mapping %d byte heap: %w", cfg.HeapBytes, err)
	}

	h := &Heap{
		backing:     backing,
		mapped:      mapped,
		regionBytes: cfg.RegionBytes,
		classes:     classes,
		bitmap:      NewMarkBitmap(cfg.HeapBytes),
	}

	count := cfg.HeapBytes / cfg.RegionBytes
	h.regions = make([]*Region, count)
	for i := uint32(0); i < count; i++ {
		bottom := Address(i * cfg.RegionBytes)
		h.regions[i] = &Region{
			index:         i,
			bottom:        bottom,
			end:           bottom + Address(cfg.RegionBytes),
			top:           bottom,
			compactionTop: bottom,
			tams:          bottom,
		}
	}

	return h, nil
}

// Close releases the heap mapping. The heap must not be used afterwards.
func (h *Heap) Close() error {
	backing := h.backing
	h.backing = nil
	if !h.mapped {
		return nil
	}

	return unmapHeap(backing)
}

// Regions returns the heap's region array, ordered by address.
func (h *Heap) Regions() []*Region { return h.regions }

// RegionCount returns the number of regions.
func (h *Heap) RegionCount() uint32 { return uint32(len(h.regions)) }

// RegionBytes returns the configured region size.
func (h *Heap) RegionBytes() uint32 { return h.regionBytes }

// Bitmap returns the heap's liveness bitmap.
func (h *Heap) Bitmap() *MarkBitmap { return h.bitmap }

// Classes returns the heap's class table.
func (h *Heap) Classes() *ClassTable { return h.classes }

// RegionContaining returns the region holding addr.
func (h *Heap) RegionContaining(addr Address) *Region {
	return h.regions[uint32(addr)/h.regionBytes]
}

func (h *Heap) word(a Address) uint32 {
	return binary.LittleEndian.Uint32(h.backing[a:])
}

func (h *Heap) setWord(a Address, v uint32) {
	binary.LittleEndian.PutUint32(h.backing[a:], v)
}

// Bytes returns a view of n heap bytes starting at addr. The view aliases
// the heap; writes through it are heap writes.
func (h *Heap) Bytes(addr Address, n uint32) []byte {
	return h.backing[addr : uint32(addr)+n]
}

// CopyWords copies n bytes from src to dst. The builtin copy has memmove
// semantics, so overlapping ranges are handled correctly even though
// destination packing avoids overlap by construction.
func (h *Heap) CopyWords(dst, src Address, n uint32) {
	copy(h.backing[dst:uint32(dst)+n], h.backing[src:uint32(src)+n])
}

// AllocateObject bump-allocates an object of the given class at the
// region's top, writing a prototype header. It returns false when the
// region lacks space. This exists so harnesses and tests can populate
// heaps; general allocation lives outside the compaction phase.
func (h *Heap) AllocateObject(r *Region, class ClassID) (Address, bool) {
	if !h.classes.Valid(class) {
		fatalf("allocate: invalid class %d", class)
	}
	size := h.classes.SizeOf(class)
	if uint32(r.top)+size > uint32(r.end) {
		return 0, false
	}
	obj := r.top
	r.top += Address(size)
	h.setWord(obj, MarkPrototype)
	h.setWord(obj+WordSize, uint32(class))

	return obj, true
}

// ApplyToMarkedObjects visits every live object start in [region.Bottom,
// region.Top) in ascending address order, without materializing a list.
// The visitor returns the object's size, which is how iteration advances
// to the next candidate address.
func (h *Heap) ApplyToMarkedObjects(r *Region, visit func(Address) uint32) {
	limit := r.Top()
	addr, ok := h.bitmap.NextMarked(r.Bottom(), limit)
	for ok {
		size := visit(addr)
		if size == 0 {
			fatalf("region %d: zero-sized object at %#x", r.index, addr)
		}
		addr, ok = h.bitmap.NextMarked(addr+Address(size), limit)
	}
}

// ParIterateFromWorkerOffset applies fn to the regions workerID claims from
// the shared claimer, sweeping the full region array starting at the
// worker's offset and wrapping. Across all workers every region is visited
// exactly once, with no locks.
func (h *Heap) ParIterateFromWorkerOffset(c *RegionClaimer, workerID uint32, fn func(*Region)) {
	count := uint32(len(h.regions))
	start := c.StartRegion(workerID)
	for k := uint32(0); k < count; k++ {
		i := start + k
		if i >= count {
			i -= count
		}
		if c.ClaimRegion(i) {
			fn(h.regions[i])
		}
	}
}

// RegionChecksum hashes the full byte extent of a region. The cycle
// verifier uses it to prove that skipped and pinned regions moved no bytes.
func (h *Heap) RegionChecksum(r *Region) uint64 {
	return xxhash.Sum64(h.backing[r.bottom:r.end])
}

// PrepareForCycle rearms every region for a new collection cycle.
func (h *Heap) PrepareForCycle() {
	for _, r := range h.regions {
		r.PrepareForCycle()
	}
}
