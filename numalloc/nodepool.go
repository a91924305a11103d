package numalloc

import (
	"sync"
	"unsafe"

	"github.com/noahbean33/memory-allocator/internal/vm"
)

// nodePool is the per-node bump allocator of spec.md §3/§4.3: one
// contiguous, first-touch-zeroed region placed on a single NUMA node, from
// which thread caches draw batches under a mutex. It has no notion of
// size classes or frees — that bookkeeping lives entirely in the thread
// cache (spec.md §4.5); the pool only ever advances its watermark.
//
// Shaped after bnclabs-gostore/malloc's poolflist/poolfbit (capacity, size,
// base pointer, mutex-guarded state), stripped of their own freelists since
// spec.md's node pool is a pure bump allocator, not a size-classed one.
type nodePool struct {
	node int

	mu       sync.Mutex
	base     uintptr
	capacity int64
	used     int64 // invariant: 0 <= used <= capacity, monotonically non-decreasing.
}

// newNodePool obtains a capacity-byte region placed on node, first-touching
// every page so placement is definite (spec.md §4.3, §5 "First-touch
// discipline").
func newNodePool(node int, capacity int64) (*nodePool, error) {
	base, err := vm.AllocOnNode(uintptr(capacity), node)
	if err != nil {
		// alloc_on_node degrades to map_anon + bind_pages per spec.md §4.1.
		p, _, mapErr := vm.MapAnon(uintptr(capacity), false)
		if mapErr != nil {
			return nil, ErrVmReserveFailed
		}
		vm.BindPages(p, uintptr(capacity), node)
		base = p
	}
	firstTouch(base, capacity)
	return &nodePool{node: node, base: base, capacity: capacity}, nil
}

// firstTouch writes zero to every page in the region so that, under the
// kernel's first-touch policy, placement on this node is settled while the
// pool still owns the whole region (spec.md §5).
func firstTouch(base uintptr, n int64) {
	b := unsafe.Slice((*byte)(unsafe.Pointer(base)), int(n))
	pageSize := vm.PageSize()
	for off := 0; off < len(b); off += pageSize {
		b[off] = 0
	}
}

// reserveBatch advances the watermark by nBytes and returns the base
// pointer of the newly reserved range, or ErrNodeExhausted if the pool
// lacks room (spec.md §4.3). This is the only mutating operation on a node
// pool during steady state; its critical section does only watermark
// arithmetic, never allocation or I/O (spec.md §5).
func (np *nodePool) reserveBatch(nBytes int64) (uintptr, error) {
	np.mu.Lock()
	defer np.mu.Unlock()

	if np.used+nBytes > np.capacity {
		return 0, ErrNodeExhausted
	}
	base := np.base + uintptr(np.used)
	np.used += nBytes
	return base, nil
}

func (np *nodePool) usedBytes() int64 {
	np.mu.Lock()
	defer np.mu.Unlock()
	return np.used
}

func (np *nodePool) release() {
	np.mu.Lock()
	defer np.mu.Unlock()
	if np.base != 0 {
		vm.Release(np.base, uintptr(np.capacity))
		np.base, np.capacity, np.used = 0, 0, 0
	}
}
