// Package topo discovers NUMA topology: node and logical-CPU counts, the
// CPU-to-node mapping, and the node of the currently executing CPU. It
// degrades to a single-node topology whenever the platform's NUMA facility
// is unavailable, without treating that as an error (spec.md §4.2).
package topo

// Topology is immutable once returned by Discover.
type Topology struct {
	NumNodes int
	NumCPUs  int
	// cpuOfNode[cpu] is the node that owns logical CPU cpu.
	cpuOfNode []int
}

// Discover enumerates nodes and logical CPUs and builds the CPU-to-node
// mapping. It never returns an error: when the platform cannot report NUMA
// topology, it produces the single-node degraded topology spec.md §3
// describes (N=1, every CPU mapped to node 0).
func Discover() *Topology {
	nodes, cpuOfNode := discover()
	if len(cpuOfNode) == 0 {
		cpuOfNode = []int{0}
	}
	if nodes < 1 {
		nodes = 1
	}
	return &Topology{
		NumNodes:  nodes,
		NumCPUs:   len(cpuOfNode),
		cpuOfNode: cpuOfNode,
	}
}

// CurrentNode returns the home node of the currently executing CPU, clamped
// to 0 if the CPU index observed is outside the known range (spec.md §4.2).
func (t *Topology) CurrentNode() int {
	cpu := currentCPU()
	if cpu < 0 || cpu >= len(t.cpuOfNode) {
		return 0
	}
	return t.cpuOfNode[cpu]
}

// CPUsOfNode returns the logical CPU indices homed on node, or nil if node
// is out of range.
func (t *Topology) CPUsOfNode(node int) []int {
	if node < 0 || node >= t.NumNodes {
		return nil
	}
	var cpus []int
	for cpu, n := range t.cpuOfNode {
		if n == node {
			cpus = append(cpus, cpu)
		}
	}
	return cpus
}
