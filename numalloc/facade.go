// Package numalloc implements a NUMA-aware, thread-cached,
// size-class-segregated general-purpose allocator backed by per-node
// virtual-memory pools, with huge-page support for large allocations.
//
// Types and functions exported by this package follow
// bnclabs-gostore/malloc's stated contract: free-list/cache internals are
// not safe for concurrent access from outside their owning thread, pools
// once grown are not shrunk back to the OS during the allocator's
// lifetime, and cross-thread frees, coalescing, and leak tracking are out
// of scope (spec.md §1).
package numalloc

import (
	"strconv"
	"sync"
	"sync/atomic"
	"unsafe"

	s "github.com/prataprc/gosettings"
	"github.com/rs/zerolog"

	"github.com/noahbean33/memory-allocator/internal/topo"
)

// Allocator is the public facade (spec.md §4.8). The spec describes a
// process-wide singleton with C-style global entry points; this rendition
// instead makes the facade an instantiable type, matching the teacher's
// *Arena idiom (bnclabs-gostore/malloc/arena.go) — each Allocator manages
// its own one-shot init/cleanup lifecycle rather than sharing package-level
// state, which is both more idiomatic Go and lets tests run independent
// allocators concurrently. A caller wanting the spec's literal singleton
// behavior can hold one package-level *Allocator of their own.
type Allocator struct {
	mu          sync.Mutex
	initialized bool

	topology  *topo.Topology
	classes   *sizeClasses
	nodePools []*nodePool
	caches    *threadCaches
	batch     int64
	log       zerolog.Logger

	requested int64 // atomic: total bytes requested across Allocate calls
	granted   int64 // atomic: total bytes actually granted (class-rounded / mapping-rounded)
	highWater int64 // atomic: high-water mark of requested bytes
}

// Option configures an Allocator at construction time.
type Option func(*Allocator)

// WithLogger attaches a diagnostic channel (spec.md §6). The default is a
// disabled zerolog.Logger, so the library stays silent unless a caller
// opts in — unlike the teacher's always-on defaultLogger.
func WithLogger(log zerolog.Logger) Option {
	return func(a *Allocator) { a.log = log }
}

// NewAllocator constructs an uninitialized facade. Call Init before
// allocating.
func NewAllocator(opts ...Option) *Allocator {
	a := &Allocator{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Init performs one-shot setup: discover topology and construct one node
// pool of nodeCapacity bytes per node (spec.md §4.8). Calling Init twice,
// or on a failed sub-step, returns an error; allocation is only permitted
// after Init returns nil.
func (a *Allocator) Init(setts s.Settings) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.initialized {
		return ErrAlreadyInitialized
	}

	capacity, _ := setts["nodecapacity"].(int64)
	if capacity <= 0 {
		panicerr("numalloc: nodecapacity must be > 0, got %v", setts["nodecapacity"])
	}

	a.topology = topo.Discover()
	a.classes = newSizeClasses(settingsLadder(setts))
	a.batch = settingsBatch(setts)
	a.caches = newThreadCaches()

	pools := make([]*nodePool, a.topology.NumNodes)
	for node := 0; node < a.topology.NumNodes; node++ {
		pool, err := newNodePool(node, capacity)
		if err != nil {
			for _, p := range pools {
				if p != nil {
					p.release()
				}
			}
			return err
		}
		pools[node] = pool
	}
	a.nodePools = pools
	a.initialized = true

	a.log.Info().
		Int("nodes", a.topology.NumNodes).
		Int("cpus", a.topology.NumCPUs).
		Int64("nodecapacity", capacity).
		Msg("numalloc initialized")
	return nil
}

// Allocate services a request of n bytes (spec.md §4.8). A request of zero
// bytes returns nil, as does any failure.
func (a *Allocator) Allocate(n int64) unsafe.Pointer {
	if n <= 0 || !a.initialized {
		return nil
	}

	atomic.AddInt64(&a.requested, n)
	a.bumpHighWater(n)

	class := a.classes.classOf(n)
	tc := a.caches.get(a)

	if class == largeSentinel {
		p, err := allocLarge(n, tc.homeNode)
		if err != nil {
			a.log.Warn().Err(err).Int64("size", n).Msg("large allocation failed")
			return nil
		}
		// stats_allocs++ fires for large blocks too, per numa_alloc.c's numalloc().
		tc.allocs++
		atomic.AddInt64(&a.granted, int64(headerOf(p).size))
		return p
	}

	p, err := tc.allocate(a, class)
	if err != nil {
		a.log.Warn().Err(err).Int("node", int(tc.homeNode)).Msg("node pool exhausted")
		return nil
	}
	atomic.AddInt64(&a.granted, a.classes.sizeOf(class))
	return p
}

func (a *Allocator) bumpHighWater(n int64) {
	for {
		cur := atomic.LoadInt64(&a.highWater)
		req := atomic.LoadInt64(&a.requested)
		if req <= cur {
			return
		}
		if atomic.CompareAndSwapInt64(&a.highWater, cur, req) {
			return
		}
	}
}

// Free releases p (spec.md §4.8). Free(nil) is a no-op. The header is
// trusted blindly; double-free and foreign-pointer free are undefined
// behavior the core does not detect (spec.md §7).
func (a *Allocator) Free(p unsafe.Pointer) {
	if p == nil || !a.initialized {
		return
	}
	h := headerOf(p)
	if h.isLarge() {
		freeLarge(p)
		return
	}
	tc := a.caches.get(a)
	tc.free(p, h.class)
}

// Zeroed allocates num*size bytes and zeroes them (spec.md §4.8). It
// returns nil if the multiplication overflows or if the underlying
// allocation fails — small-class blocks may carry residue from earlier
// use, so zeroing is never skipped.
func (a *Allocator) Zeroed(num, size int64) unsafe.Pointer {
	if num <= 0 || size <= 0 {
		return nil
	}
	n := num * size
	if n/size != num { // overflow check
		return nil
	}
	p := a.Allocate(n)
	if p == nil {
		return nil
	}
	b := unsafe.Slice((*byte)(p), int(n))
	for i := range b {
		b[i] = 0
	}
	return p
}

// Resize implements spec.md §4.8's resize contract: resize(nil, n) behaves
// as Allocate(n); resize(p, 0) frees p and returns nil; shrinking or
// exact-fit requests return p unchanged; growth allocates fresh, copies
// min(oldCapacity, n) bytes, frees the old block, and returns the new
// pointer.
func (a *Allocator) Resize(p unsafe.Pointer, n int64) unsafe.Pointer {
	if p == nil {
		return a.Allocate(n)
	}
	if n == 0 {
		a.Free(p)
		return nil
	}

	old := headerOf(p)
	oldCapacity := old.size
	if !old.isLarge() {
		oldCapacity = a.classes.sizeOf(int(old.class))
	}
	if n <= oldCapacity {
		return p
	}

	next := a.Allocate(n)
	if next == nil {
		return nil
	}
	toCopy := oldCapacity
	if n < toCopy {
		toCopy = n
	}
	src := unsafe.Slice((*byte)(p), int(toCopy))
	dst := unsafe.Slice((*byte)(next), int(toCopy))
	copy(dst, src)
	a.Free(p)
	return next
}

// ThreadStats returns the calling goroutine's allocation/free counters, or
// (0, 0) if it has never allocated (spec.md §4.8).
func (a *Allocator) ThreadStats() (allocs, frees int64) {
	if !a.initialized {
		return 0, 0
	}
	tc := a.caches.get(a)
	return tc.stats()
}

// Stats returns global accounting folded in from original_source/memalloc's
// stats structure (SPEC_FULL.md §4.12): total bytes requested across every
// Allocate call, total bytes actually granted (class- or mapping-rounded),
// and the high-water mark of bytes requested.
func (a *Allocator) Stats() (requested, granted, highWater int64) {
	return atomic.LoadInt64(&a.requested),
		atomic.LoadInt64(&a.granted),
		atomic.LoadInt64(&a.highWater)
}

// PrintTopology writes a one-line topology summary to the diagnostic
// channel (spec.md §6; SPEC_FULL.md §4.12, folding in
// original_source/numa_allocator/numa_alloc.c's init-time topology log).
func (a *Allocator) PrintTopology() {
	if !a.initialized {
		return
	}
	ev := a.log.Info().Int("nodes", a.topology.NumNodes).Int("cpus", a.topology.NumCPUs)
	for node := 0; node < a.topology.NumNodes; node++ {
		ev = ev.Ints("node_"+strconv.Itoa(node)+"_cpus", a.topology.CPUsOfNode(node))
	}
	ev.Msg("numalloc topology")
}

// Cleanup releases all node pools and topology state; subsequent
// operations revert to uninitialized behavior (spec.md §4.8).
func (a *Allocator) Cleanup() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, p := range a.nodePools {
		p.release()
	}
	a.nodePools = nil
	a.topology = nil
	a.classes = nil
	if a.caches != nil {
		a.caches.reset()
	}
	a.initialized = false
}
