package fullgc

import (
	"fmt"

	"github.com/orizon-lang/orizon-gc/heap"
)

// Plan is the relocation plan produced upstream by the forwarding phase:
// per-worker ordered compaction queues, per-worker skip-compaction sets,
// and the residual queue reserved for the serial rebalancing pass.
//
// Queue order is significant. It encodes the destination-address packing
// computed during forwarding, and the task processes each queue strictly in
// that order; reordering would copy objects onto addresses still holding
// unread source data.
type Plan struct {
	Queues   [][]*heap.Region // Ordered compaction queue per worker
	SkipSets [][]*heap.Region // Skip-compaction set per worker; order free
	Serial   []*heap.Region   // Ordered residual queue for the serial pass
}

// validate checks the plan's structural preconditions: queue counts match
// the worker count and no region appears in more than one queue or set.
// Disjointness is what lets workers compact without synchronization.
func (p *Plan) validate(workers int) error {
	if len(p.Queues) != workers {
		return fmt.Errorf("plan has %d compaction queues for %d workers", len(p.Queues), workers)
	}
	if len(p.SkipSets) != 0 && len(p.SkipSets) != workers {
		return fmt.Errorf("plan has %d skip sets for %d workers", len(p.SkipSets), workers)
	}

	seen := make(map[uint32]string)
	note := func(r *heap.Region, where string) error {
		if prev, dup := seen[r.Index()]; dup {
			return fmt.Errorf("region %d assigned to both %s and %s", r.Index(), prev, where)
		}
		seen[r.Index()] = where

		return nil
	}

	for w, q := range p.Queues {
		for _, r := range q {
			if err := note(r, fmt.Sprintf("worker %d queue", w)); err != nil {
				return err
			}
		}
	}
	for w, s := range p.SkipSets {
		for _, r := range s {
			if err := note(r, fmt.Sprintf("worker %d skip set", w)); err != nil {
				return err
			}
		}
	}
	for _, r := range p.Serial {
		if err := note(r, "serial queue"); err != nil {
			return err
		}
	}

	return nil
}
