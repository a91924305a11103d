//go:build windows

package vm

import (
	"golang.org/x/sys/windows"
)

func pageSize() int {
	var info windows.SystemInfo
	windows.GetSystemInfo(&info)
	return int(info.PageSize)
}

func reserve(n uintptr) (uintptr, error) {
	addr, err := windows.VirtualAlloc(0, n, windows.MEM_RESERVE, windows.PAGE_NOACCESS)
	if err != nil {
		return 0, ErrReserveFailed
	}
	return addr, nil
}

func commit(p, n uintptr) error {
	if _, err := windows.VirtualAlloc(p, n, windows.MEM_COMMIT, windows.PAGE_READWRITE); err != nil {
		return ErrCommitFailed
	}
	return nil
}

func release(p, n uintptr) error {
	return windows.VirtualFree(p, 0, windows.MEM_RELEASE)
}

func mapAnon(n uintptr, hugePreferred bool) (uintptr, bool, error) {
	if hugePreferred {
		addr, err := windows.VirtualAlloc(0, n,
			windows.MEM_RESERVE|windows.MEM_COMMIT|windows.MEM_LARGE_PAGES,
			windows.PAGE_READWRITE)
		if err == nil {
			return addr, true, nil
		}
	}
	addr, err := windows.VirtualAlloc(0, n, windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
	if err != nil {
		return 0, false, ErrMapFailed
	}
	return addr, false, nil
}

// bindPages uses VirtualAllocExNuma on the current process to request
// node-local placement, mirroring
// other_examples/momentics-hioload-ws__bufferpool_windows_numa.go. It is
// best-effort: a failure here never propagates to the caller.
func bindPages(p, n uintptr, node int) {
	if node < 0 {
		return
	}
	proc := windows.NewLazySystemDLL("kernel32.dll").NewProc("VirtualAllocExNuma")
	proc.Call(
		uintptr(windows.CurrentProcess()),
		p,
		n,
		uintptr(windows.MEM_RESERVE|windows.MEM_COMMIT),
		uintptr(windows.PAGE_READWRITE),
		uintptr(node),
	)
}
