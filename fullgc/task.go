package fullgc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/orizon-lang/orizon-gc/heap"
)

// CompactTask executes one compaction cycle over a heap according to a
// Plan. Parallel workers drain their private queues without
// synchronization (queues are disjoint by construction), share only the
// region claimer during the pinned reset pass, and join at a hard barrier
// before the serial rebalancing pass runs. A task is single-use: one
// claimer, one set of stats, one cycle.
type CompactTask struct {
	heap     *heap.Heap
	bitmap   *heap.MarkBitmap
	plan     *Plan
	cfg      Config
	claimer  *heap.RegionClaimer
	stats    CompactionStats
	log      *slog.Logger
	verifier *cycleVerifier
	started  bool
}

// NewCompactTask prepares a compaction cycle. The plan must carry exactly
// one compaction queue per configured worker and must not assign any region
// twice.
func NewCompactTask(h *heap.Heap, plan *Plan, cfg Config) (*CompactTask, error) {
	if h == nil {
		return nil, fmt.Errorf("nil heap")
	}
	if plan == nil {
		return nil, fmt.Errorf("nil plan")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := plan.validate(cfg.Workers); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}

	t := &CompactTask{
		heap:    h,
		bitmap:  h.Bitmap(),
		plan:    plan,
		cfg:     cfg,
		claimer: heap.NewRegionClaimer(h.RegionCount(), uint32(cfg.Workers)),
		log:     cfg.Logger,
	}
	t.stats.Workers = make([]WorkerStats, cfg.Workers)
	if cfg.VerifyAfterGC {
		t.verifier = newCycleVerifier(h)
	}

	return t, nil
}

// Run executes the full cycle: all parallel workers, the join barrier, then
// the serial rebalancing pass. The context is consulted only before the
// cycle starts; once relocation begins the cycle must run to completion,
// since a partially compacted heap is not a recoverable state.
func (t *CompactTask) Run(ctx context.Context) error {
	if t.started {
		return fmt.Errorf("compact task already run")
	}
	t.started = true
	if err := ctx.Err(); err != nil {
		return err
	}

	if t.verifier != nil {
		t.verifier.snapshot(t.plan)
	}

	start := time.Now()
	g, _ := errgroup.WithContext(ctx)
	for w := 0; w < t.cfg.Workers; w++ {
		w := w
		g.Go(func() error {
			t.Work(uint32(w))

			return nil
		})
	}
	// Hard barrier: the serial pass may touch regions physically adjacent
	// to parallel targets and must observe all of them as complete.
	if err := g.Wait(); err != nil {
		return err
	}

	t.SerialCompaction()
	t.stats.TotalElapsed = time.Since(start)

	if t.verifier != nil {
		t.verifier.verify(t.plan, t.cfg)
	}

	return nil
}

// Work is the per-worker entry point. Strictly ordered steps: drain this
// worker's compaction queue in queue order, drain its skip set when the
// dead-space tolerance enables skipping, then claim and reset pinned
// regions over this worker's heap-wide offset slice.
func (t *CompactTask) Work(workerID uint32) {
	ws := &t.stats.Workers[workerID]
	start := time.Now()

	for _, r := range t.plan.Queues[workerID] {
		t.compactRegion(r, ws)
	}

	if t.cfg.DeadSpacePercent > 0 && len(t.plan.SkipSets) > 0 {
		for _, r := range t.plan.SkipSets[workerID] {
			t.skipRegion(r, ws)
		}
	}

	t.heap.ParIterateFromWorkerOffset(t.claimer, workerID, func(r *heap.Region) {
		t.resetPinned(r, ws)
	})

	ws.Elapsed = time.Since(start)
	t.log.Debug("compaction task",
		"worker", workerID,
		"regions", ws.RegionsCompacted,
		"skipped", ws.RegionsSkipped,
		"pinned_resets", ws.PinnedResets,
		"bytes_relocated", ws.BytesRelocated,
		"elapsed", ws.Elapsed)
}

// SerialCompaction drains the residual queue single-threaded, after all
// parallel workers have joined. It reuses the region compaction logic
// unchanged; the queue exists to absorb whatever imbalance is left after
// greedily packing the parallel queues.
func (t *CompactTask) SerialCompaction() {
	ws := &t.stats.Serial
	start := time.Now()

	for _, r := range t.plan.Serial {
		t.compactRegion(r, ws)
	}

	t.stats.SerialRegions = ws.RegionsCompacted
	ws.Elapsed = time.Since(start)
	t.log.Debug("serial compaction",
		"regions", ws.RegionsCompacted,
		"bytes_relocated", ws.BytesRelocated,
		"elapsed", ws.Elapsed)
}

// Stats returns the cycle's statistics. Valid once Run has returned.
func (t *CompactTask) Stats() *CompactionStats {
	return &t.stats
}

// relocate copies one live object to its forwarded destination and
// reinstalls the prototype mark there. Stationary objects (no forwarding
// recorded) are left untouched. The returned size drives iteration to the
// next object; the operation itself cannot fail under valid preconditions.
func (t *CompactTask) relocate(obj heap.Address, ws *WorkerStats) uint32 {
	size := t.heap.SizeOf(obj)
	ws.ObjectsVisited++

	dst, forwarded := t.heap.Forwardee(obj)
	if !forwarded {
		// Object not moving.
		return size
	}

	debugAssert(dst != obj, "object %#x forwarded to its own address", obj)

	// The class word rides along in the copied bytes; only the mark word
	// needs reinitializing at the destination.
	t.heap.CopyWords(dst, obj, size)
	t.heap.InitMark(dst)

	debugAssert(t.heap.Classes().Valid(t.heap.ClassOf(dst)),
		"relocated object %#x has invalid class", dst)

	ws.ObjectsRelocated++
	ws.BytesRelocated += uint64(size)

	return size
}

// compactRegion relocates every live object in the region in ascending
// bitmap order, then flips the region to its compacted terminal state.
func (t *CompactTask) compactRegion(r *heap.Region, ws *WorkerStats) {
	if r.Pinned() {
		fatalf("pinned region %d in compaction queue", r.Index())
	}
	if r.Humongous() {
		fatalf("humongous region %d in compaction queue", r.Index())
	}

	t.heap.ApplyToMarkedObjects(r, func(obj heap.Address) uint32 {
		return t.relocate(obj, ws)
	})

	// Clear the liveness bits only when bitmap verification will look at
	// them later; otherwise the TAMS reset below makes the stale bits
	// irrelevant.
	if t.cfg.VerifyBitmaps {
		t.bitmap.ClearRange(r.Bottom(), r.End())
	}
	r.ResetCompactedAfterFullGC()
	ws.RegionsCompacted++
}

// skipRegion reclaims a region logically: its liveness bits are meaningless
// once the cycle's compaction is done, so they are cleared unconditionally,
// and the region state records it as cycle-processed without compaction.
// No object bytes move.
func (t *CompactTask) skipRegion(r *heap.Region, ws *WorkerStats) {
	t.bitmap.ClearRange(r.Bottom(), r.End())
	r.ResetSkippedAfterFullGC()
	ws.RegionsSkipped++
}

// resetPinned restores a pinned region's post-cycle bookkeeping. Applied to
// every heap region through the claimer, regardless of queue ownership;
// non-pinned regions are left alone.
func (t *CompactTask) resetPinned(r *heap.Region, ws *WorkerStats) {
	if !r.Pinned() {
		return
	}
	if r.StartsHumongous() && !t.bitmap.IsMarked(r.Bottom()) {
		// A pinned multi-region object must have been marked live, or it
		// would have been reclaimed earlier. An unmarked start means the
		// upstream phases are broken.
		fatalf("pinned humongous start region %d has unmarked first object", r.Index())
	}
	r.ResetPinnedAfterFullGC()
	ws.PinnedResets++
}
