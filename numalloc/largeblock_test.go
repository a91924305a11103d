package numalloc

import (
	"testing"
	"unsafe"
)

func TestAllocLargeAndFree(t *testing.T) {
	n := int64(64 * 1024) // smaller than the huge-page threshold
	p, err := allocLarge(n, 0)
	if err != nil {
		t.Fatalf("allocLarge failed: %v", err)
	}
	if p == nil {
		t.Fatalf("expected non-nil pointer")
	}

	h := headerOf(p)
	if !h.isLarge() {
		t.Errorf("expected isLarge true")
	}
	if h.size < n {
		t.Errorf("expected mapping size >= requested size, got %d < %d", h.size, n)
	}

	b := unsafe.Slice((*byte)(p), int(n))
	for i := range b {
		b[i] = byte(i)
	}
	for i := range b {
		if b[i] != byte(i) {
			t.Fatalf("large block is not writable/readable at offset %d", i)
		}
	}

	freeLarge(p)
}

func TestAllocLargePastHugePageThreshold(t *testing.T) {
	n := int64(4 * 1024 * 1024) // past the 2 MiB huge-page threshold
	p, err := allocLarge(n, 0)
	if err != nil {
		t.Fatalf("allocLarge failed: %v", err)
	}
	defer freeLarge(p)

	h := headerOf(p)
	if h.size < n {
		t.Errorf("expected mapping size >= %d, got %d", n, h.size)
	}
}
