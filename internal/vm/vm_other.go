//go:build !linux && !windows

package vm

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

func pageSize() int {
	return os.Getpagesize()
}

func reserve(n uintptr) (uintptr, error) {
	b, err := unix.Mmap(-1, 0, int(n), unix.PROT_NONE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return 0, ErrReserveFailed
	}
	return uintptr(unsafe.Pointer(&b[0])), nil
}

func commit(p, n uintptr) error {
	b := unsafe.Slice((*byte)(unsafe.Pointer(p)), n)
	if err := unix.Mprotect(b, unix.PROT_READ|unix.PROT_WRITE); err != nil {
		return ErrCommitFailed
	}
	return nil
}

func release(p, n uintptr) error {
	b := unsafe.Slice((*byte)(unsafe.Pointer(p)), n)
	return unix.Munmap(b)
}

// mapAnon degrades to a regular mapping: huge pages and NUMA binding are
// implemented only for Linux and Windows in this package (spec.md §4.1, "where the platform lacks node
// binding, bind_pages and alloc_on_node degrade to node-oblivious mappings").
func mapAnon(n uintptr, hugePreferred bool) (uintptr, bool, error) {
	b, err := unix.Mmap(-1, 0, int(n), unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return 0, false, ErrMapFailed
	}
	return uintptr(unsafe.Pointer(&b[0])), false, nil
}

func bindPages(p, n uintptr, node int) {
	// No-op: this platform has no NUMA-binding facility (spec.md §4.1).
}
