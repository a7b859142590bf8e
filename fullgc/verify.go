package fullgc

import "github.com/orizon-lang/orizon-gc/heap"

// cycleVerifier re-validates a completed cycle when VerifyAfterGC is set:
// regions that were not supposed to move bytes (skip sets, pinned regions)
// must hash identically before and after, every planned region must have
// reached its expected terminal state, and cleared bitmap ranges must
// really be clear. Violations halt the process; the heap is already wrong.
type cycleVerifier struct {
	heap *heap.Heap
	sums map[uint32]uint64 // Region index -> payload checksum at cycle start
}

func newCycleVerifier(h *heap.Heap) *cycleVerifier {
	return &cycleVerifier{heap: h, sums: make(map[uint32]uint64)}
}

// snapshot hashes every region whose bytes the cycle must not touch.
func (v *cycleVerifier) snapshot(plan *Plan) {
	for _, set := range plan.SkipSets {
		for _, r := range set {
			v.sums[r.Index()] = v.heap.RegionChecksum(r)
		}
	}
	for _, r := range v.heap.Regions() {
		if r.Pinned() {
			v.sums[r.Index()] = v.heap.RegionChecksum(r)
		}
	}
}

func (v *cycleVerifier) verify(plan *Plan, cfg Config) {
	bitmap := v.heap.Bitmap()

	for w, q := range plan.Queues {
		for _, r := range q {
			if r.State() != heap.RegionCompacted {
				fatalf("verify: worker %d queue region %d finished %s, want Compacted", w, r.Index(), r.State())
			}
			if cfg.VerifyBitmaps && !bitmap.IsRangeClear(r.Bottom(), r.End()) {
				fatalf("verify: compacted region %d has stale liveness bits", r.Index())
			}
		}
	}
	for _, r := range plan.Serial {
		if r.State() != heap.RegionCompacted {
			fatalf("verify: serial region %d finished %s, want Compacted", r.Index(), r.State())
		}
	}

	if cfg.DeadSpacePercent > 0 {
		for w, set := range plan.SkipSets {
			for _, r := range set {
				if r.State() != heap.RegionSkipped {
					fatalf("verify: worker %d skip region %d finished %s, want Skipped", w, r.Index(), r.State())
				}
				if !bitmap.IsRangeClear(r.Bottom(), r.End()) {
					fatalf("verify: skipped region %d has stale liveness bits", r.Index())
				}
			}
		}
	}

	for _, r := range v.heap.Regions() {
		want, snapshotted := v.sums[r.Index()]
		if !snapshotted || r.State() == heap.RegionCompacted {
			continue
		}
		if got := v.heap.RegionChecksum(r); got != want {
			fatalf("verify: region %d (%s) payload changed: checksum %#x, want %#x",
				r.Index(), r.State(), got, want)
		}
	}
}
