package heap

import "sync/atomic"

// RegionClaimer partitions the whole heap across workers for the pinned
// reset pass: each region is claimed by exactly one worker via a CAS on its
// claim flag, and each worker starts at a disjoint offset into the region
// array so claims rarely contend. One claimer is created per collection
// cycle and discarded with it.
type RegionClaimer struct {
	claims  []uint32 // 0 = unclaimed, 1 = claimed; CAS-guarded
	workers uint32
}

// NewRegionClaimer creates a claimer for regionCount regions shared by
// workers participants.
func NewRegionClaimer(regionCount, workers uint32) *RegionClaimer {
	if workers == 0 {
		fatalf("claimer: zero workers")
	}

	return &RegionClaimer{
		claims:  make([]uint32, regionCount),
		workers: workers,
	}
}

// ClaimRegion attempts to claim the region at index for the caller. It
// returns true for exactly one caller per region per cycle.
func (c *RegionClaimer) ClaimRegion(index uint32) bool {
	return atomic.CompareAndSwapUint32(&c.claims[index], 0, 1)
}

// StartRegion returns the region index at which workerID begins its sweep.
// Offsets are spread evenly over the region array so concurrent workers
// touch disjoint stretches until the tail of the pass.
func (c *RegionClaimer) StartRegion(workerID uint32) uint32 {
	if len(c.claims) == 0 {
		return 0
	}

	return uint32(uint64(workerID) * uint64(len(c.claims)) / uint64(c.workers))
}
