package numalloc

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func newInitializedAllocator(t *testing.T) *Allocator {
	t.Helper()
	a := NewAllocator()
	err := a.Init(DefaultSettings(4 * 1024 * 1024))
	require.NoError(t, err)
	t.Cleanup(a.Cleanup)
	return a
}

// TestScenario1SingleBlockRoundTrip is spec.md §8 scenario 1: init, allocate
// a 64-byte block, write a pattern, free; expect ThreadStats (1, 1).
func TestScenario1SingleBlockRoundTrip(t *testing.T) {
	a := newInitializedAllocator(t)

	p := a.Allocate(64)
	require.NotNil(t, p)

	b := unsafe.Slice((*byte)(p), 64)
	for i := range b {
		b[i] = 0xAA
	}
	for i := range b {
		require.Equal(t, byte(0xAA), b[i])
	}

	a.Free(p)

	allocs, frees := a.ThreadStats()
	if allocs != 1 || frees != 1 {
		t.Errorf("expected ThreadStats (1, 1), got (%d, %d)", allocs, frees)
	}
}

// TestScenario3CacheReuse is spec.md §8 scenario 3: one block of each class
// size, freed, then reallocated in the same order — at least some pointers
// must repeat.
func TestScenario3CacheReuse(t *testing.T) {
	a := newInitializedAllocator(t)

	sizes := []int64{16, 32, 64, 128, 256, 512, 1024, 2048}
	first := make([]unsafe.Pointer, len(sizes))
	for i, sz := range sizes {
		first[i] = a.Allocate(sz)
		require.NotNil(t, first[i])
	}
	for _, p := range first {
		a.Free(p)
	}

	reused := 0
	for i, sz := range sizes {
		p := a.Allocate(sz)
		require.NotNil(t, p)
		if p == first[i] {
			reused++
		}
	}
	if reused == 0 {
		t.Errorf("expected at least one reused pointer across the free/realloc round trip")
	}
}

// TestScenario2MultiGoroutineNoCorruption is a goroutine-scale rendition of
// spec.md §8 scenario 2: several goroutines each loop allocating, writing,
// verifying, and freeing small blocks — no cross-goroutine corruption.
func TestScenario2MultiGoroutineNoCorruption(t *testing.T) {
	a := newInitializedAllocator(t)

	const goroutines = 8
	const iterations = 200
	const blocksPerIter = 10

	var wg sync.WaitGroup
	errs := make(chan string, goroutines)
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(id byte) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				ptrs := make([]unsafe.Pointer, blocksPerIter)
				for j := range ptrs {
					p := a.Allocate(64)
					if p == nil {
						errs <- "allocation failed"
						return
					}
					b := unsafe.Slice((*byte)(p), 64)
					for k := range b {
						b[k] = id
					}
					ptrs[j] = p
				}
				for _, p := range ptrs {
					b := unsafe.Slice((*byte)(p), 64)
					for k := range b {
						if b[k] != id {
							errs <- "cross-goroutine corruption detected"
							return
						}
					}
					a.Free(p)
				}
			}
		}(byte(g))
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Errorf("%s", msg)
	}
}

func TestZeroSizedRequestsReturnNil(t *testing.T) {
	a := newInitializedAllocator(t)

	require.Nil(t, a.Allocate(0))
	require.Nil(t, a.Zeroed(0, 8))
	require.Nil(t, a.Zeroed(8, 0))
}

func TestResizeContract(t *testing.T) {
	a := newInitializedAllocator(t)

	// resize(nil, n) behaves as allocate(n)
	p := a.Resize(nil, 32)
	require.NotNil(t, p)

	b := unsafe.Slice((*byte)(p), 32)
	for i := range b {
		b[i] = byte(i)
	}

	// shrink/exact-fit: same pointer, unchanged contents
	same := a.Resize(p, 32)
	require.Equal(t, p, same)

	// growth: new pointer, old bytes preserved
	grown := a.Resize(same, 100)
	require.NotNil(t, grown)
	gb := unsafe.Slice((*byte)(grown), 32)
	for i := range gb {
		require.Equal(t, byte(i), gb[i])
	}

	// resize(p, 0) frees and returns nil
	require.Nil(t, a.Resize(grown, 0))
}

func TestZeroedAllocationIsZeroFilled(t *testing.T) {
	a := newInitializedAllocator(t)

	p := a.Zeroed(16, 4)
	require.NotNil(t, p)
	b := unsafe.Slice((*byte)(p), 64)
	for i := range b {
		require.Equal(t, byte(0), b[i])
	}
}

func TestInitTwiceFails(t *testing.T) {
	a := newInitializedAllocator(t)
	err := a.Init(DefaultSettings(1024 * 1024))
	require.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestUninitializedAllocatorIsInert(t *testing.T) {
	a := NewAllocator()
	require.Nil(t, a.Allocate(64))
	allocs, frees := a.ThreadStats()
	require.Zero(t, allocs)
	require.Zero(t, frees)
	a.Free(nil) // must not panic
}

func TestStatsTracksRequestedGrantedHighWater(t *testing.T) {
	a := newInitializedAllocator(t)

	a.Allocate(16)
	a.Allocate(2048)

	requested, granted, highWater := a.Stats()
	if requested != 16+2048 {
		t.Errorf("expected requested %d, got %d", 16+2048, requested)
	}
	if granted < requested {
		t.Errorf("expected granted >= requested, got granted=%d requested=%d", granted, requested)
	}
	if highWater != requested {
		t.Errorf("expected highWater to equal cumulative requested, got %d", highWater)
	}
}

func TestBoundarySizesMapToAdjacentClasses(t *testing.T) {
	a := newInitializedAllocator(t)

	p16 := a.Allocate(16)
	require.Equal(t, int32(0), headerOf(p16).class)

	p17 := a.Allocate(17)
	require.Equal(t, int32(1), headerOf(p17).class)

	pLargest := a.Allocate(2048)
	require.Equal(t, int32(7), headerOf(pLargest).class)

	pOverLargest := a.Allocate(2049)
	require.True(t, headerOf(pOverLargest).isLarge())
}
