//go:build !unix

package heap

// mapHeap falls back to an ordinary slice where mmap is unavailable.
func mapHeap(size int) ([]byte, bool, error) {
	return make([]byte, size), false, nil
}

func unmapHeap(b []byte) error {
	return nil
}
