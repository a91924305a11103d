package numalloc

import (
	"sync"
	"unsafe"

	"github.com/petermattis/goid"
	"golang.org/x/sys/cpu"
)

// freeNode overlays the first word of a free block's own user storage to
// thread it onto its class's free stack — "the standard size-class-allocator
// trick" spec.md's Design Notes (§9) call out, and the same node{next}-over-
// user-memory technique other_examples/cznic-memory__memory.go uses for its
// page-local free lists. It is never stored in a header; headerSize bytes
// still precede every block regardless of whether the block is currently on
// a free stack.
type freeNode struct {
	next unsafe.Pointer
}

// threadCache is the per-thread fast-path allocator of spec.md §3/§4.5: one
// per live "thread" (here, per goroutine — see DESIGN.md "Thread identity in
// Go"), created lazily on first use, home node pinned for its lifetime, with
// K lock-free free stacks (one per size class) and two counters. It is
// referenced only by its owner and carries no lock.
type threadCache struct {
	homeNode int32
	heads    []unsafe.Pointer // one singly-linked free stack per size class
	allocs   int64
	frees    int64

	// _ pads each threadCache to its own cache line, the same shape
	// other_examples/matrixorigin-matrixone__sharded_allocator.go uses for its
	// per-shard allocator slots — here guarding against false sharing between
	// two caches the Go allocator happens to place adjacently in the
	// threadCaches registry's backing storage, even though each is touched by
	// exactly one goroutine.
	_ cpu.CacheLinePad
}

func newThreadCache(homeNode int, k int) *threadCache {
	return &threadCache{
		homeNode: int32(homeNode),
		heads:    make([]unsafe.Pointer, k),
	}
}

// threadCaches registers one threadCache per live goroutine that has
// allocated, keyed by its goroutine id (github.com/petermattis/goid) — the
// closest thing Go has to the OS-thread identity spec.md's Design Notes
// assume, without requiring cgo or OS-thread-local storage. Entries are
// never removed on goroutine exit (spec.md §9: "the reference core leaks
// caches on thread exit... document which strategy it chose" — this is
// option (b), a process-wide table keyed by id, reaped only on Cleanup).
type threadCaches struct {
	mu     sync.Mutex
	byGoid map[int64]*threadCache
}

func newThreadCaches() *threadCaches {
	return &threadCaches{byGoid: make(map[int64]*threadCache)}
}

// get returns the calling goroutine's cache, creating it (and sampling its
// home node from topo) on first use.
func (tcs *threadCaches) get(a *Allocator) *threadCache {
	id := goid.Get()

	tcs.mu.Lock()
	tc, ok := tcs.byGoid[id]
	if !ok {
		tc = newThreadCache(a.topology.CurrentNode(), a.classes.count())
		tcs.byGoid[id] = tc
	}
	tcs.mu.Unlock()
	return tc
}

func (tcs *threadCaches) reset() {
	tcs.mu.Lock()
	tcs.byGoid = make(map[int64]*threadCache)
	tcs.mu.Unlock()
}

// allocate serves a small-class request from the fast path, refilling from
// the home node pool on a miss (spec.md §4.5).
func (tc *threadCache) allocate(a *Allocator, class int) (unsafe.Pointer, error) {
	if head := tc.heads[class]; head != nil {
		node := (*freeNode)(head)
		tc.heads[class] = node.next
		tc.allocs++
		return head, nil
	}
	return tc.refill(a, class)
}

// refill performs the slow path: reserve a batch of B contiguous blocks
// from this cache's home node pool, write each block's header, thread the
// B-1 spares into a free stack through their own user storage, and return
// the remaining block to the caller.
//
// The reference source installs the class head without the just-returned
// block in its stack (spec.md §9 Open Questions) — this implementation pops
// the head explicitly from the freshly built chain before installing it,
// so the returned block is never reachable from tc.heads[class].
func (tc *threadCache) refill(a *Allocator, class int) (unsafe.Pointer, error) {
	size := a.classes.sizeOf(class)
	batch := a.batch
	blockStride := int64(headerSize) + size

	base, err := a.nodePools[tc.homeNode].reserveBatch(blockStride * batch)
	if err != nil {
		return nil, err
	}

	var head unsafe.Pointer
	for i := int64(0); i < batch; i++ {
		blockBase := base + uintptr(i*blockStride)
		ptr := writeHeader(blockBase, size, int32(class), tc.homeNode)
		(*freeNode)(ptr).next = head
		head = ptr
	}

	// Pop one for the caller; install the rest as the new class head.
	first := (*freeNode)(head)
	tc.heads[class] = first.next
	tc.allocs++
	return head, nil
}

// free pushes p onto this cache's class stack for h.class, per the header
// recovered by the caller. This is unconditionally serviced by the current
// thread's cache regardless of which thread allocated the block — spec.md
// §4.5's documented single-producer/single-consumer simplification.
func (tc *threadCache) free(p unsafe.Pointer, class int32) {
	node := (*freeNode)(p)
	node.next = tc.heads[class]
	tc.heads[class] = p
	tc.frees++
}

func (tc *threadCache) stats() (allocs, frees int64) {
	return tc.allocs, tc.frees
}
