package topo

import "testing"

func TestDiscoverDegradesGracefully(t *testing.T) {
	top := Discover()
	if top.NumNodes < 1 {
		t.Fatalf("expected at least one node, got %d", top.NumNodes)
	}
	if top.NumCPUs < 1 {
		t.Fatalf("expected at least one cpu, got %d", top.NumCPUs)
	}
}

func TestCurrentNodeClampsOutOfRange(t *testing.T) {
	top := &Topology{NumNodes: 2, NumCPUs: 2, cpuOfNode: []int{0, 1}}
	// currentCPU() on this machine may or may not be in range; CurrentNode
	// must always return a value within [0, NumNodes).
	node := top.CurrentNode()
	if node < 0 || node >= top.NumNodes {
		t.Fatalf("node %d out of range [0,%d)", node, top.NumNodes)
	}
}

func TestCPUsOfNode(t *testing.T) {
	top := &Topology{NumNodes: 2, NumCPUs: 4, cpuOfNode: []int{0, 0, 1, 1}}
	if cpus := top.CPUsOfNode(0); len(cpus) != 2 {
		t.Fatalf("expected 2 cpus on node 0, got %v", cpus)
	}
	if cpus := top.CPUsOfNode(5); cpus != nil {
		t.Fatalf("expected nil for out-of-range node, got %v", cpus)
	}
}
