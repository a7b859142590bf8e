package fullgc

import "fmt"

// fatalf halts the process with diagnostic context. This phase assumes its
// preconditions were established upstream; a violated invariant is a defect
// with no safe degraded mode, since adjacent bytes may already have been
// overwritten by the time it is detected.
func fatalf(format string, args ...any) {
	panic("fullgc: " + fmt.Sprintf(format, args...))
}
