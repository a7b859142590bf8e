package heap

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestClaimRegionExactlyOnce(t *testing.T) {
	c := NewRegionClaimer(8, 2)

	if !c.ClaimRegion(3) {
		t.Fatal("first claim should succeed")
	}
	if c.ClaimRegion(3) {
		t.Error("second claim of the same region should fail")
	}
}

func TestClaimerStartRegionDisjointOffsets(t *testing.T) {
	const regions, workers = 100, 4
	c := NewRegionClaimer(regions, workers)

	starts := make(map[uint32]bool)
	prev := int64(-1)
	for w := uint32(0); w < workers; w++ {
		s := c.StartRegion(w)
		if s >= regions {
			t.Fatalf("worker %d start %d out of range", w, s)
		}
		if int64(s) <= prev {
			t.Fatalf("worker %d start %d not increasing", w, s)
		}
		prev = int64(s)
		starts[s] = true
	}
	if len(starts) != workers {
		t.Errorf("workers share start offsets: %v", starts)
	}
}

func TestParIterateCoversHeapExactlyOnce(t *testing.T) {
	classes := NewClassTable()
	h, err := NewHeap(Config{HeapBytes: 64 * 1024, RegionBytes: 1024}, classes)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	const workers = 7
	c := NewRegionClaimer(h.RegionCount(), workers)

	visits := make([]uint32, h.RegionCount())
	var wg sync.WaitGroup
	for w := uint32(0); w < workers; w++ {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.ParIterateFromWorkerOffset(c, w, func(r *Region) {
				atomic.AddUint32(&visits[r.Index()], 1)
			})
		}()
	}
	wg.Wait()

	for i, n := range visits {
		if n != 1 {
			t.Errorf("region %d visited %d times, want exactly once", i, n)
		}
	}
}

func BenchmarkClaimRegion(b *testing.B) {
	for i := 0; i < b.N; i++ {
		c := NewRegionClaimer(256, 4)
		for r := uint32(0); r < 256; r++ {
			c.ClaimRegion(r)
		}
	}
}
