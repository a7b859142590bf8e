// Package fullgc implements the compaction phase of the region-based
// parallel mark-compact collector: it executes a previously computed
// relocation plan, moving every live object to its forwarded destination,
// reclaiming skipped and pinned regions logically, and restoring every
// region to a consistent post-collection state. Marking, forwarding-address
// computation, and queue partitioning happen upstream; this package only
// executes their output.
package fullgc

import (
	"fmt"
	"log/slog"
	"runtime"
)

// Default configuration values.
const (
	// DefaultDeadSpacePercent is the default dead-space tolerance: regions
	// whose dead fraction is at or below this are queued for skipping
	// rather than compaction. Zero disables skip processing entirely.
	DefaultDeadSpacePercent = 5
)

// Config configures one compaction cycle.
type Config struct {
	Workers          int          // Parallel worker count; 0 selects GOMAXPROCS
	DeadSpacePercent uint         // Dead-space tolerance; 0 disables the skip pass
	VerifyBitmaps    bool         // Eagerly clear compacted regions' bitmaps for later verification
	VerifyAfterGC    bool         // Checksum skip/pinned regions and re-validate post-cycle
	Logger           *slog.Logger // Structured logger; nil selects slog.Default
}

// Validate checks the configuration and fills in defaults: zero Workers
// becomes GOMAXPROCS and a nil Logger becomes slog.Default. NewCompactTask
// calls it on its own copy; callers that need the resolved worker count
// before building a plan can call it themselves.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("negative worker count %d", c.Workers)
	}
	if c.Workers == 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	return nil
}
