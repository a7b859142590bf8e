package fullgc

import "time"

// WorkerStats records one worker's contribution to a compaction cycle.
type WorkerStats struct {
	RegionsCompacted uint64        // Regions drained from this worker's queue
	RegionsSkipped   uint64        // Regions processed from this worker's skip set
	PinnedResets     uint64        // Pinned regions this worker claimed and reset
	ObjectsVisited   uint64        // Live objects visited, moving or not
	ObjectsRelocated uint64        // Live objects physically copied
	BytesRelocated   uint64        // Bytes copied to destinations
	Elapsed          time.Duration // Wall time of this worker's Work call
}

// CompactionStats aggregates a whole cycle: all parallel workers plus the
// serial rebalancing pass.
type CompactionStats struct {
	Workers       []WorkerStats // Per-worker records, indexed by worker ID
	Serial        WorkerStats   // The serial pass, recorded in the same shape
	TotalElapsed  time.Duration // Wall time of the whole cycle
	SerialRegions uint64        // Regions drained by the serial pass
}

// TotalRelocated sums bytes moved across all workers and the serial pass.
func (s *CompactionStats) TotalRelocated() uint64 {
	total := s.Serial.BytesRelocated
	for i := range s.Workers {
		total += s.Workers[i].BytesRelocated
	}

	return total
}

// TotalRegions sums regions reaching a terminal state through this task.
func (s *CompactionStats) TotalRegions() uint64 {
	total := s.SerialRegions
	for i := range s.Workers {
		total += s.Workers[i].RegionsCompacted + s.Workers[i].RegionsSkipped + s.Workers[i].PinnedResets
	}

	return total
}
