//go:build !linux

package topo

import "runtime"

// discover degrades to the single-node topology on platforms without a
// sysfs-style NUMA enumeration facility (spec.md §4.2 degradation clause).
func discover() (numNodes int, cpuOfNode []int) {
	n := runtime.NumCPU()
	if n < 1 {
		n = 1
	}
	return 1, make([]int, n)
}

// currentCPU has no portable equivalent of getcpu(2) outside Linux in this
// package; CurrentNode's clamp-to-0 behavior makes this a safe default.
func currentCPU() int {
	return -1
}
