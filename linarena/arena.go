// Package linarena implements the linear (bump) arena: a second, simpler
// allocator sharing numalloc's virtual-memory substrate (spec.md §4.9). It
// trades the NUMA allocator's per-object reuse for bulk scoped lifetime —
// one reservation, a monotone watermark, and O(1) reclamation of an entire
// phase via reset or set_position.
package linarena

import (
	"errors"
	"unsafe"

	"github.com/noahbean33/memory-allocator/internal/vm"
)

// ErrOutOfReserve is returned when an allocation would exceed the arena's
// reserved address range (spec.md §4.9, §7).
var ErrOutOfReserve = errors.New("linarena.outofreserve")

// ErrArenaCreateFailed is returned when any VM step of Create fails
// (spec.md §7).
var ErrArenaCreateFailed = errors.New("linarena.arenacreatefailed")

// arenaHeader occupies the first headerSize bytes of the committed prefix,
// grounded on the same header-before-payload placement numalloc's block
// header uses, here describing the arena itself rather than a user block.
type arenaHeader struct {
	reserve   int64
	growBy    int64
	committed int64
}

const headerSize = int64(unsafe.Sizeof(arenaHeader{}))

// Arena is a single reserved virtual-memory range with a monotone bump
// pointer (spec.md §4.9). It is not safe for concurrent use by multiple
// goroutines without external synchronization — the spec makes no
// concurrency promise for a single arena instance, unlike the node pool's
// mutex-guarded watermark.
type Arena struct {
	base      uintptr
	reserve   int64
	growBy    int64
	committed int64
	position  int64
}

// Create reserves reserveR bytes of address space, commits the first
// commitG of it, and places the arena's own header in the committed
// prefix (spec.md §4.9). Both arguments are rounded up to the page size;
// if commitG exceeds reserveR after rounding, it is clamped down to
// reserveR.
func Create(reserveR, commitG int64) (*Arena, error) {
	pageSize := int64(vm.PageSize())
	reserveR = int64(vm.RoundUp(uintptr(reserveR), uintptr(pageSize)))
	commitG = int64(vm.RoundUp(uintptr(commitG), uintptr(pageSize)))
	if commitG > reserveR {
		commitG = reserveR
	}

	base, err := vm.Reserve(uintptr(reserveR))
	if err != nil {
		return nil, ErrArenaCreateFailed
	}
	if err := vm.Commit(base, uintptr(commitG)); err != nil {
		vm.Release(base, uintptr(reserveR))
		return nil, ErrArenaCreateFailed
	}

	h := (*arenaHeader)(unsafe.Pointer(base))
	h.reserve, h.growBy, h.committed = reserveR, commitG, commitG

	return &Arena{
		base:      base,
		reserve:   reserveR,
		growBy:    commitG,
		committed: commitG,
		position:  headerSize,
	}, nil
}

// wordSize is the platform pointer alignment default for AllocAligned.
const wordSize = int64(unsafe.Sizeof(uintptr(0)))

// Alloc reserves n zero-filled bytes aligned to the platform word size
// (spec.md §4.9).
func (ar *Arena) Alloc(n int64) (unsafe.Pointer, error) {
	return ar.AllocAligned(n, wordSize)
}

// AllocAligned reserves n zero-filled bytes aligned to a, which must be a
// power of two (spec.md §4.9). Growth beyond the committed range commits
// further whole multiples of the arena's original growBy, clamped to the
// reserved range; growth beyond the reserved range fails with
// ErrOutOfReserve without mutating position.
func (ar *Arena) AllocAligned(n, a int64) (unsafe.Pointer, error) {
	if a <= 0 || a&(a-1) != 0 {
		a = wordSize
	}

	q := alignUp(ar.position, a)
	if q+n > ar.reserve {
		return nil, ErrOutOfReserve
	}

	if q+n > ar.committed {
		needed := q + n - ar.committed
		steps := (needed + ar.growBy - 1) / ar.growBy
		grow := steps * ar.growBy
		newCommitted := ar.committed + grow
		if newCommitted > ar.reserve {
			newCommitted = ar.reserve
		}
		if err := vm.Commit(ar.base+uintptr(ar.committed), uintptr(newCommitted-ar.committed)); err != nil {
			return nil, ErrArenaCreateFailed
		}
		ar.committed = newCommitted
		h := (*arenaHeader)(unsafe.Pointer(ar.base))
		h.committed = newCommitted
	}

	slot := unsafe.Pointer(ar.base + uintptr(q))
	b := unsafe.Slice((*byte)(slot), int(n))
	for i := range b {
		b[i] = 0
	}

	ar.position = q + n
	return slot, nil
}

// Reset rewinds position to just past the header without decommitting any
// pages (spec.md §4.9); the next Alloc reuses the already-committed range
// before growing it further.
func (ar *Arena) Reset() {
	ar.position = headerSize
}

// GetPosition returns the current watermark, suitable for a later
// SetPosition to release everything allocated since (spec.md §4.9).
func (ar *Arena) GetPosition() int64 {
	return ar.position
}

// SetPosition restores the watermark to p, the stack-discipline counterpart
// to GetPosition: every allocation made after a saved position is logically
// released by restoring that position. Values outside [headerSize,
// reserve] are ignored (spec.md §4.9).
func (ar *Arena) SetPosition(p int64) {
	if p < headerSize || p > ar.reserve {
		return
	}
	ar.position = p
}

// Destroy releases the entire reserved range. The Arena must not be used
// afterward.
func (ar *Arena) Destroy() {
	if ar.base != 0 {
		vm.Release(ar.base, uintptr(ar.reserve))
		ar.base, ar.reserve, ar.committed, ar.position = 0, 0, 0, 0
	}
}

func alignUp(n, a int64) int64 {
	return (n + a - 1) &^ (a - 1)
}
