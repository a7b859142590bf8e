//go:build unix

package heap

import "golang.org/x/sys/unix"

// mapHeap reserves the heap backing with an anonymous private mapping so
// the heap starts zeroed and page-aligned without touching the Go heap.
func mapHeap(size int) ([]byte, bool, error) {
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, false, err
	}

	return b, true, nil
}

func unmapHeap(b []byte) error {
	return unix.Munmap(b)
}
