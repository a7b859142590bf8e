//go:build !gcdebug

package fullgc

// debugAssert enforces relocation preconditions in gcdebug builds. No-op in
// normal builds.
func debugAssert(cond bool, format string, args ...any) {}
