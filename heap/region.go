package heap

// RegionState tracks a region's progress through one collection cycle.
// Every region starts a cycle Unprocessed and reaches exactly one terminal
// state; reaching a second terminal state is a defect and halts the process.
type RegionState uint32

const (
	RegionUnprocessed RegionState = iota // Live, not yet visited this cycle
	RegionCompacted                      // Live objects relocated, top collapsed
	RegionSkipped                        // Dead space abandoned, bytes untouched
	RegionPinnedReset                    // Pinned bookkeeping restored, bytes untouched
)

// String returns the state name for diagnostics.
func (s RegionState) String() string {
	switch s {
	case RegionUnprocessed:
		return "Unprocessed"
	case RegionCompacted:
		return "Compacted"
	case RegionSkipped:
		return "Skipped"
	case RegionPinnedReset:
		return "PinnedReset"
	default:
		return "Unknown"
	}
}

// Region is a fixed-size contiguous slice of the heap, the unit of
// compaction scheduling. During a cycle each region is owned by exactly one
// worker (via its compaction queue or the region claimer), so region fields
// need no per-field synchronization.
type Region struct {
	index           uint32      // Position in the heap's region array
	bottom          Address     // First byte of the region
	end             Address     // One past the last byte
	top             Address     // Allocation top; objects live in [bottom, top)
	compactionTop   Address     // Destination packing cursor, installed upstream
	tams            Address     // Top at mark start
	state           RegionState // Cycle state
	pinned          bool        // Excluded from relocation this cycle
	humongous       bool        // Part of a multi-region object
	startsHumongous bool        // First region of a multi-region object
}

// Index returns the region's position in the heap's region array.
func (r *Region) Index() uint32 { return r.index }

// Bottom returns the first address of the region.
func (r *Region) Bottom() Address { return r.bottom }

// End returns the address one past the region.
func (r *Region) End() Address { return r.end }

// Top returns the current allocation top.
func (r *Region) Top() Address { return r.top }

// SetTop moves the allocation top. The top must stay inside the region.
func (r *Region) SetTop(top Address) {
	if top < r.bottom || top > r.end {
		fatalf("region %d: top %#x outside [%#x, %#x]", r.index, top, r.bottom, r.end)
	}
	r.top = top
}

// CompactionTop returns the destination packing cursor recorded by the
// forwarding phase. After compaction it becomes the region's new top.
func (r *Region) CompactionTop() Address { return r.compactionTop }

// SetCompactionTop records the destination packing cursor. Called by the
// forwarding phase before compaction starts.
func (r *Region) SetCompactionTop(top Address) {
	if top < r.bottom || top > r.end {
		fatalf("region %d: compaction top %#x outside [%#x, %#x]", r.index, top, r.bottom, r.end)
	}
	r.compactionTop = top
}

// TAMS returns the top-at-mark-start pointer.
func (r *Region) TAMS() Address { return r.tams }

// State returns the region's cycle state.
func (r *Region) State() RegionState { return r.state }

// Pinned reports whether the region is excluded from relocation this cycle
// because an external holder references an address inside it.
func (r *Region) Pinned() bool { return r.pinned }

// SetPinned marks or unmarks the region as pinned for the coming cycle.
func (r *Region) SetPinned(pinned bool) { r.pinned = pinned }

// Humongous reports whether the region belongs to a multi-region object.
func (r *Region) Humongous() bool { return r.humongous }

// StartsHumongous reports whether the region begins a multi-region object.
func (r *Region) StartsHumongous() bool { return r.startsHumongous }

// SetHumongous flags the region as part of a multi-region object; starts
// additionally flags it as the first region of that object.
func (r *Region) SetHumongous(starts bool) {
	r.humongous = true
	r.startsHumongous = starts
}

// PrepareForCycle rearms the region for a new collection cycle: state back
// to Unprocessed, compaction top collapsed to bottom, TAMS raised to top.
func (r *Region) PrepareForCycle() {
	r.state = RegionUnprocessed
	r.compactionTop = r.bottom
	r.tams = r.top
}

// ResetCompactedAfterFullGC flips the region to Compacted: the allocation
// top collapses to the compaction top recorded by the forwarding phase and
// TAMS drops to bottom, which is what makes a stale liveness bitmap
// irrelevant when eager clearing is disabled.
func (r *Region) ResetCompactedAfterFullGC() {
	if r.state != RegionUnprocessed {
		fatalf("region %d: compacted twice (state %s)", r.index, r.state)
	}
	r.top = r.compactionTop
	r.tams = r.bottom
	r.state = RegionCompacted
}

// ResetSkippedAfterFullGC flips the region to Skipped. The region keeps its
// objects and its top; only cycle bookkeeping is reset. Its dead space is
// abandoned under the configured dead-space tolerance.
func (r *Region) ResetSkippedAfterFullGC() {
	if r.state != RegionUnprocessed {
		fatalf("region %d: skipped after already %s", r.index, r.state)
	}
	r.tams = r.bottom
	r.state = RegionSkipped
}

// ResetPinnedAfterFullGC restores a pinned region's post-cycle bookkeeping
// without relocating anything, clearing the pin so the region is normally
// reusable next cycle. Resetting an already-reset region is a no-op.
func (r *Region) ResetPinnedAfterFullGC() {
	if r.state == RegionPinnedReset {
		return
	}
	if r.state != RegionUnprocessed {
		fatalf("region %d: pinned reset after already %s", r.index, r.state)
	}
	r.pinned = false
	r.tams = r.bottom
	r.state = RegionPinnedReset
}
