//go:build linux

package topo

import (
	"bufio"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

const sysNodePath = "/sys/devices/system/node"

// discover walks /sys/devices/system/node/node*/cpulist, the same sysfs
// layout 23skdu-longbow's pinThreadToNodeLinux reads. Any failure to read
// the sysfs tree (no NUMA support compiled into the kernel, a container
// without /sys mounted, …) degrades silently to the single-node topology.
func discover() (numNodes int, cpuOfNode []int) {
	entries, err := os.ReadDir(sysNodePath)
	if err != nil {
		return 1, uniformTopology()
	}

	nodeCPUs := map[int][]int{}
	maxCPU := -1
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "node") {
			continue
		}
		nodeID, err := strconv.Atoi(name[len("node"):])
		if err != nil {
			continue
		}
		cpus, err := readCPUList(filepath.Join(sysNodePath, name, "cpulist"))
		if err != nil {
			continue
		}
		nodeCPUs[nodeID] = cpus
		for _, c := range cpus {
			if c > maxCPU {
				maxCPU = c
			}
		}
	}
	if len(nodeCPUs) == 0 || maxCPU < 0 {
		return 1, uniformTopology()
	}

	cpuOfNode = make([]int, maxCPU+1)
	nodeIDs := make([]int, 0, len(nodeCPUs))
	for id := range nodeCPUs {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Ints(nodeIDs)
	for _, id := range nodeIDs {
		for _, cpu := range nodeCPUs[id] {
			cpuOfNode[cpu] = id
		}
	}
	return len(nodeIDs), cpuOfNode
}

func uniformTopology() []int {
	n := runtime.NumCPU()
	if n < 1 {
		n = 1
	}
	cpus := make([]int, n)
	return cpus // zero-valued: every CPU maps to node 0.
}

// readCPUList parses the Linux cpulist format ("0-3,8,10-12"), the same
// format and parser shape as 23skdu-longbow's parseCPUList.
func readCPUList(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return nil, os.ErrInvalid
	}
	var cpus []int
	for _, part := range strings.Split(strings.TrimSpace(scanner.Text()), ",") {
		if part == "" {
			continue
		}
		if i := strings.IndexByte(part, '-'); i >= 0 {
			lo, err := strconv.Atoi(part[:i])
			if err != nil {
				continue
			}
			hi, err := strconv.Atoi(part[i+1:])
			if err != nil {
				continue
			}
			for c := lo; c <= hi; c++ {
				cpus = append(cpus, c)
			}
			continue
		}
		c, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		cpus = append(cpus, c)
	}
	return cpus, nil
}

// currentCPU reports the logical CPU the calling goroutine's thread is
// running on right now, via the getcpu(2) syscall — grounded in
// 23skdu-longbow's numa_allocator_linux.go GetCurrentCPU. Callers that care
// about the result staying valid should runtime.LockOSThread first.
func currentCPU() int {
	var cpu uint32
	_, _, errno := unix.Syscall(unix.SYS_GETCPU, uintptr(unsafe.Pointer(&cpu)), 0, 0)
	if errno != 0 {
		return -1
	}
	return int(cpu)
}
