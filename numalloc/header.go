package numalloc

import "unsafe"

// blockHeader is the fixed preamble stored immediately before every user
// pointer (spec.md §3, §4.7). size is the mapping length for large blocks
// and the class size for small blocks; class is largeSentinel for large
// blocks; homeNode is the node the block was allocated against.
//
// Classification at free time is a single header read — no address-range
// lookup, the tradeoff spec.md's Design Notes (§9 "Header-based
// classification") call out explicitly.
type blockHeader struct {
	size     int64
	class    int32
	homeNode int32
}

const headerSize = unsafe.Sizeof(blockHeader{})

// writeHeader stores a header at base and returns the user pointer that
// follows it.
func writeHeader(base uintptr, size int64, class int32, homeNode int32) unsafe.Pointer {
	h := (*blockHeader)(unsafe.Pointer(base))
	h.size, h.class, h.homeNode = size, class, homeNode
	return unsafe.Pointer(base + headerSize)
}

// headerOf recovers the header immediately preceding the user pointer p.
// The core trusts this blindly (spec.md §7, §9): it does not detect
// double-free, foreign-pointer free, or use-after-free.
func headerOf(p unsafe.Pointer) *blockHeader {
	return (*blockHeader)(unsafe.Pointer(uintptr(p) - headerSize))
}

func (h *blockHeader) isLarge() bool {
	return h.class == largeSentinel
}
