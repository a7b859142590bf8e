package heap

import "fmt"

// fatalf halts the process with diagnostic context. Invariant violations in
// the compaction phase are defects established upstream, not recoverable
// runtime conditions: a half-processed heap has no safe degraded mode.
func fatalf(format string, args ...any) {
	panic("heap: " + fmt.Sprintf(format, args...))
}
