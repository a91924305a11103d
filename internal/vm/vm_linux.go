//go:build linux

package vm

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

func pageSize() int {
	return unix.Getpagesize()
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

func mapAnon(n uintptr, hugePreferred bool) (uintptr, bool, error) {
	flags := unix.MAP_ANON | unix.MAP_PRIVATE
	if hugePreferred {
		b, err := unix.Mmap(-1, 0, int(n), unix.PROT_READ|unix.PROT_WRITE,
			flags|unix.MAP_HUGETLB)
		if err == nil {
			return uintptr(unsafe.Pointer(&b[0])), true, nil
		}
		// fall through to the regular mapping below.
	}
	b, err := unix.Mmap(-1, 0, int(n), unix.PROT_READ|unix.PROT_WRITE, flags)
	if err != nil {
		return 0, false, ErrMapFailed
	}
	return uintptr(unsafe.Pointer(&b[0])), false, nil
}

// bindPages requests placement of [p, p+n) on node via mbind(2). x/sys/unix
// has no mbind wrapper, so the raw syscall is issued directly — the same
// technique 23skdu-longbow's memory_linux.go uses to reach move_pages(2),
// which x/sys/unix also lacks on some platform/version combinations.
func bindPages(p, n uintptr, node int) {
	if node < 0 {
		return
	}
	const (
		mplBindMode = 2 // MPOL_BIND
		mbindStrict = 1 // MPOL_MF_STRICT
	)
	// nodemask is a bitmask of unsigned long; one word covers node IDs 0..63,
	// which comfortably covers every topology this package will ever see in
	// practice. Binding to a wider mask is a future extension, not a
	// correctness requirement: mbind is best-effort by contract (spec.md §4.1).
	var mask uint64
	if node < 64 {
		mask = 1 << uint(node)
	}
	unix.Syscall6(
		unix.SYS_MBIND,
		p, uintptr(n),
		uintptr(mplBindMode),
		uintptr(unsafe.Pointer(&mask)), 64,
		uintptr(mbindStrict),
	)
	// Errors are intentionally discarded: bind_pages never fails the caller.
}
