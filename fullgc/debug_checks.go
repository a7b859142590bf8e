//go:build gcdebug

package fullgc

import "fmt"

// In gcdebug builds, precondition checks that production builds elide are
// enforced and halt the process on violation.

func debugAssert(cond bool, format string, args ...any) {
	if !cond {
		panic("fullgc: debug: " + fmt.Sprintf(format, args...))
	}
}
