package dag

import (
	"slices"
	"testing"
)

func TestAddEdgeDedup(t *testing.T) {
	g := NewGraph(3)
	if !g.AddEdge(0, 2) {
		t.Fatalf("first edge must be new")
	}
	if g.AddEdge(0, 2) {
		t.Fatalf("duplicate edge must be ignored")
	}
	if g.AddEdge(1, 1) {
		t.Fatalf("self loop must be ignored")
	}
	if g.AddEdge(0, 7) {
		t.Fatalf("out of range edge must be ignored")
	}
	g.AddEdge(0, 1)
	if !slices.Equal(g.Edges[0], []NodeID{1, 2}) {
		t.Fatalf("edges[0] = %v, want [1 2]", g.Edges[0])
	}
	if g.Indeg[2] != 1 {
		t.Fatalf("indeg[2] = %d, want 1", g.Indeg[2])
	}
}

func TestToposortKahnBatches(t *testing.T) {
	// 0:b imports nothing but is a base of 2:c; 1:a stands alone
	g := NewGraph(3)
	g.AddEdge(0, 2)

	topo := ToposortKahn(g)
	if topo.Cyclic {
		t.Fatalf("expected acyclic graph")
	}
	wantOrder := []NodeID{0, 1, 2}
	if !slices.Equal(topo.Order, wantOrder) {
		t.Fatalf("order = %v, want %v", topo.Order, wantOrder)
	}
	if len(topo.Batches) != 2 {
		t.Fatalf("batches len = %d, want 2", len(topo.Batches))
	}
	if !slices.Equal(topo.Batches[0], []NodeID{0, 1}) || !slices.Equal(topo.Batches[1], []NodeID{2}) {
		t.Fatalf("batches = %v", topo.Batches)
	}
}

func TestToposortKahnKeepsInputOrderOfUnrelatedNodes(t *testing.T) {
	// input: 0:X (derives from 1:A), 1:A, 2:Y
	g := NewGraph(3)
	g.AddEdge(1, 0)

	topo := ToposortKahn(g)
	want := []NodeID{1, 0, 2}
	if !slices.Equal(topo.Order, want) {
		t.Fatalf("order = %v, want %v", topo.Order, want)
	}
}

func TestToposortKahnDetectsCycle(t *testing.T) {
	g := NewGraph(4)
	g.AddEdge(0, 1)
	g.AddEdge(1, 2)
	g.AddEdge(2, 1)

	topo := ToposortKahn(g)
	if !topo.Cyclic {
		t.Fatalf("expected cycle")
	}
	if !slices.Equal(topo.Cycles, []NodeID{1, 2}) {
		t.Fatalf("cycles = %v, want [1 2]", topo.Cycles)
	}
	if len(topo.Blocked) != 0 {
		t.Fatalf("blocked = %v, want none", topo.Blocked)
	}
	if !slices.Equal(topo.Order, []NodeID{0, 3}) {
		t.Fatalf("order = %v, want [0 3]", topo.Order)
	}
}

func TestToposortKahnSeparatesBlockedFromCycle(t *testing.T) {
	// 0 -> 1 <-> 2 -> 3 -> 4, and 4 feeds a second cycle 5 <-> 6
	g := NewGraph(7)
	g.AddEdge(0, 1)
	g.AddEdge(1, 2)
	g.AddEdge(2, 1)
	g.AddEdge(2, 3)
	g.AddEdge(3, 4)
	g.AddEdge(4, 5)
	g.AddEdge(5, 6)
	g.AddEdge(6, 5)

	topo := ToposortKahn(g)
	if !topo.Cyclic {
		t.Fatalf("expected cycle")
	}
	if want := []NodeID{1, 2, 5, 6}; !slices.Equal(topo.Cycles, want) {
		t.Fatalf("cycles = %v, want %v", topo.Cycles, want)
	}
	if want := []NodeID{3, 4}; !slices.Equal(topo.Blocked, want) {
		t.Fatalf("blocked = %v, want %v", topo.Blocked, want)
	}
}

func TestToposortKahnEmpty(t *testing.T) {
	topo := ToposortKahn(NewGraph(0))
	if topo.Cyclic || len(topo.Order) != 0 {
		t.Fatalf("unexpected result %+v", topo)
	}
}
