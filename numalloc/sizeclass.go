package numalloc

import "sort"

// largeSentinel marks a header's class field as "this is a large block, not
// a size-classed one" (spec.md §3 block header, §4.4).
const largeSentinel = -1

// sizeClasses holds the fixed, sorted size-class ladder and answers the two
// questions the rest of numalloc asks of it: which class serves a request,
// and how big a given class's blocks are. Pure and immutable once built,
// the same contract bnclabs-gostore/malloc/util.go's SuitableSize/Blocksizes
// pair provides, specialized here to a fixed caller-supplied ladder instead
// of MEMUtilization-driven generation — spec.md §3 pins the ladder, it does
// not ask for one to be derived.
type sizeClasses struct {
	sizes []int64
}

func newSizeClasses(ladder []int64) *sizeClasses {
	sizes := make([]int64, len(ladder))
	copy(sizes, ladder)
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })
	return &sizeClasses{sizes: sizes}
}

// classOf returns the index of the smallest class whose size is >= n, or
// largeSentinel if n exceeds the largest class (spec.md §3, §4.4). Callers
// are expected to have already rejected n == 0 (spec.md §4.4).
func (sc *sizeClasses) classOf(n int64) int {
	// Binary search for the smallest class >= n, in the same divide-by-pivot
	// style as bnclabs-gostore/malloc/util.go's SuitableSize.
	i := sort.Search(len(sc.sizes), func(i int) bool { return sc.sizes[i] >= n })
	if i == len(sc.sizes) {
		return largeSentinel
	}
	return i
}

// sizeOf returns the byte size of class i.
func (sc *sizeClasses) sizeOf(i int) int64 {
	return sc.sizes[i]
}

// largest returns the ladder's largest class size, s_{K-1}.
func (sc *sizeClasses) largest() int64 {
	return sc.sizes[len(sc.sizes)-1]
}

// count returns K, the number of size classes.
func (sc *sizeClasses) count() int {
	return len(sc.sizes)
}
