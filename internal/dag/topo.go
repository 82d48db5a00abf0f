package dag

import (
	"container/heap"
	"slices"
)

type Topo struct {
	Order   []NodeID   // linear order of the nodes that could be placed
	Batches [][]NodeID // Batches[k] holds the nodes whose longest path from a root has k edges
	Cyclic  bool
	Cycles  []NodeID // nodes lying on a cycle
	Blocked []NodeID // nodes not on a cycle that depend on one
}

// ToposortKahn orders g so that every edge points forward. Among the nodes
// that are ready at any moment the one with the smallest id goes first, so
// unconstrained nodes keep their relative order whenever the edges allow it.
func ToposortKahn(g Graph) *Topo {
	nodeCount := g.Len()
	indeg := make([]int, len(g.Indeg))
	copy(indeg, g.Indeg)
	level := make([]int, nodeCount)

	topo := &Topo{Order: make([]NodeID, 0, nodeCount)}

	ready := make(minHeap, 0, nodeCount)
	for i := range nodeCount {
		if indeg[i] == 0 {
			ready = append(ready, nodeID(i))
		}
	}
	heap.Init(&ready)

	for ready.Len() > 0 {
		id := heap.Pop(&ready).(NodeID)
		topo.Order = append(topo.Order, id)
		for len(topo.Batches) <= level[id] {
			topo.Batches = append(topo.Batches, nil)
		}
		topo.Batches[level[id]] = append(topo.Batches[level[id]], id)
		for _, to := range g.Edges[int(id)] {
			level[to] = max(level[to], level[id]+1)
			indeg[int(to)]--
			if indeg[int(to)] == 0 {
				heap.Push(&ready, to)
			}
		}
	}
	for _, batch := range topo.Batches {
		slices.Sort(batch)
	}

	if len(topo.Order) != nodeCount {
		topo.Cyclic = true
		left := make([]bool, nodeCount)
		for i := range nodeCount {
			left[i] = indeg[i] > 0
		}
		topo.Cycles = cycleNodes(g, left)
		for i := range nodeCount {
			if left[i] && !slices.Contains(topo.Cycles, nodeID(i)) {
				topo.Blocked = append(topo.Blocked, nodeID(i))
			}
		}
	}
	return topo
}

type minHeap []NodeID

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)        { *h = append(*h, x.(NodeID)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
