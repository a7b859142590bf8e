// Command compactstress exercises the full compaction phase end to end on a
// synthetic heap: it allocates objects of mixed sizes across every region,
// marks a configurable fraction live, computes sliding forwarding addresses
// per queue, partitions queues across workers, and runs the parallel
// compaction task. The marking and forwarding here are harness scaffolding;
// the library only executes the plan.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"github.com/orizon-lang/orizon-gc/fullgc"
	"github.com/orizon-lang/orizon-gc/heap"
)

func main() {
	var (
		heapBytes   = flag.Uint("heap", 64*1024*1024, "heap size in bytes")
		regionBytes = flag.Uint("region", 64*1024, "region size in bytes")
		workers     = flag.Int("workers", 0, "parallel workers (0 = GOMAXPROCS)")
		liveFrac    = flag.Float64("live", 0.4, "fraction of objects marked live")
		skipFrac    = flag.Float64("skip", 0.1, "fraction of regions sent to skip sets")
		pinFrac     = flag.Float64("pin", 0.05, "fraction of regions pinned")
		serialFrac  = flag.Float64("serial", 0.05, "fraction of regions reserved for the serial pass")
		cycles      = flag.Int("cycles", 1, "number of independent cycles to run")
		seed        = flag.Int64("seed", 1, "PRNG seed")
		verify      = flag.Bool("verify", false, "enable bitmap clearing and post-cycle verification")
		verbose     = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	for c := 0; c < *cycles; c++ {
		if err := runCycle(log, cycleParams{
			heapBytes:   uint32(*heapBytes),
			regionBytes: uint32(*regionBytes),
			workers:     *workers,
			liveFrac:    *liveFrac,
			skipFrac:    *skipFrac,
			pinFrac:     *pinFrac,
			serialFrac:  *serialFrac,
			seed:        *seed + int64(c),
			verify:      *verify,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "compactstress: cycle %d: %v\n", c, err)
			os.Exit(1)
		}
	}
}

type cycleParams struct {
	heapBytes   uint32
	regionBytes uint32
	workers     int
	liveFrac    float64
	skipFrac    float64
	pinFrac     float64
	serialFrac  float64
	seed        int64
	verify      bool
}

func runCycle(log *slog.Logger, p cycleParams) error {
	classes := heap.NewClassTable()
	var ids []heap.ClassID
	for _, size := range []uint32{8, 16, 24, 48, 96, 256} {
		id, err := classes.Register(fmt.Sprintf("c%d", size), size)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	h, err := heap.NewHeap(heap.Config{HeapBytes: p.heapBytes, RegionBytes: p.regionBytes}, classes)
	if err != nil {
		return err
	}
	defer h.Close()

	rng := rand.New(rand.NewSource(p.seed))

	// Populate every region and mark a fraction of its objects live.
	for _, r := range h.Regions() {
		for {
			obj, ok := h.AllocateObject(r, ids[rng.Intn(len(ids))])
			if !ok {
				break
			}
			if size := h.SizeOf(obj); size > heap.HeaderBytes {
				rng.Read(h.Bytes(obj+heap.HeaderBytes, size-heap.HeaderBytes))
			}
			if rng.Float64() < p.liveFrac {
				h.Bitmap().Mark(obj)
			}
		}
	}

	cfg := fullgc.Config{
		Workers:          p.workers,
		DeadSpacePercent: fullgc.DefaultDeadSpacePercent,
		VerifyBitmaps:    p.verify,
		VerifyAfterGC:    p.verify,
		Logger:           log,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	plan := partition(h, rng, cfg.Workers, p)
	for _, q := range plan.Queues {
		forwardQueue(h, q)
	}
	forwardQueue(h, plan.Serial)

	task, err := fullgc.NewCompactTask(h, plan, cfg)
	if err != nil {
		return err
	}
	if err := task.Run(context.Background()); err != nil {
		return err
	}

	stats := task.Stats()
	log.Info("cycle complete",
		"seed", p.seed,
		"regions", stats.TotalRegions(),
		"bytes_relocated", stats.TotalRelocated(),
		"serial_regions", stats.SerialRegions,
		"elapsed", stats.TotalElapsed)

	return nil
}

// partition assigns every region a role for the cycle: pinned, skip set,
// serial residual, or a worker's compaction queue (round-robin).
func partition(h *heap.Heap, rng *rand.Rand, workers int, p cycleParams) *fullgc.Plan {
	plan := &fullgc.Plan{
		Queues:   make([][]*heap.Region, workers),
		SkipSets: make([][]*heap.Region, workers),
	}

	next := 0
	for _, r := range h.Regions() {
		roll := rng.Float64()
		switch {
		case roll < p.pinFrac:
			r.SetPinned(true)
		case roll < p.pinFrac+p.skipFrac:
			w := next % workers
			plan.SkipSets[w] = append(plan.SkipSets[w], r)
			next++
		case roll < p.pinFrac+p.skipFrac+p.serialFrac:
			plan.Serial = append(plan.Serial, r)
		default:
			w := next % workers
			plan.Queues[w] = append(plan.Queues[w], r)
			next++
		}
	}

	return plan
}

// forwardQueue computes sliding forwarding for one ordered queue: marked
// objects pack toward the front of the queue's regions, and each region's
// compaction top records where its packed data ends.
func forwardQueue(h *heap.Heap, queue []*heap.Region) {
	if len(queue) == 0 {
		return
	}
	di := 0
	cursor := queue[0].Bottom()
	for _, r := range queue {
		h.ApplyToMarkedObjects(r, func(obj heap.Address) uint32 {
			size := h.SizeOf(obj)
			for uint32(cursor)+size > uint32(queue[di].End()) {
				queue[di].SetCompactionTop(cursor)
				di++
				cursor = queue[di].Bottom()
			}
			if cursor != obj {
				h.SetForwardee(obj, cursor)
			}
			cursor += heap.Address(size)

			return size
		})
	}
	queue[di].SetCompactionTop(cursor)
	for i := di + 1; i < len(queue); i++ {
		queue[i].SetCompactionTop(queue[i].Bottom())
	}
}
