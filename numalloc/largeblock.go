package numalloc

import (
	"unsafe"

	"github.com/noahbean33/memory-allocator/internal/vm"
)

// allocLarge services a request too big for any size class (spec.md §4.6):
// m = n + headerSize, rounded up to the huge-page size once m reaches it,
// otherwise to the system page size, mapped via vm.MapAnon (huge pages
// preferred past the threshold), node-bound best-effort, and tagged with a
// header carrying the *mapping* size so free can recover exactly how much
// to unmap.
func allocLarge(n int64, homeNode int32) (unsafe.Pointer, error) {
	m := n + int64(headerSize)
	var rounded int64
	if m >= vm.HugePageSize {
		rounded = int64(vm.RoundUp(uintptr(m), vm.HugePageSize))
	} else {
		rounded = int64(vm.RoundUp(uintptr(m), uintptr(vm.PageSize())))
	}

	base, _, err := vm.MapAnon(uintptr(rounded), rounded >= vm.HugePageSize)
	if err != nil {
		return nil, ErrAllocFailed
	}
	vm.BindPages(base, uintptr(rounded), int(homeNode))
	return writeHeader(base, rounded, largeSentinel, homeNode), nil
}

// freeLarge recovers the mapping base and length from p's header and
// releases it (spec.md §4.6, §4.7: "size field must be the mapping length
// for large blocks").
func freeLarge(p unsafe.Pointer) {
	h := headerOf(p)
	base := uintptr(p) - headerSize
	vm.Release(base, uintptr(h.size))
}
