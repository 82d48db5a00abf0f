package dag

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// NodeID is the index of a node in the caller's node list.
type NodeID uint32

type Graph struct {
	Edges [][]NodeID // Edges[from] = []to, sorted, without duplicates
	Indeg []int
}

func NewGraph(nodes int) Graph {
	return Graph{
		Edges: make([][]NodeID, nodes),
		Indeg: make([]int, nodes),
	}
}

func (g Graph) Len() int { return len(g.Edges) }

// AddEdge records from -> to. Self loops and repeated edges are ignored;
// the result tells whether the edge was new.
func (g Graph) AddEdge(from, to NodeID) bool {
	if from == to || int(from) >= len(g.Edges) || int(to) >= len(g.Edges) {
		return false
	}
	out := g.Edges[from]
	pos, found := slices.BinarySearch(out, to)
	if found {
		return false
	}
	g.Edges[from] = slices.Insert(out, pos, to)
	g.Indeg[to]++
	return true
}

func nodeID(i int) NodeID {
	id, err := safecast.Conv[NodeID](i)
	if err != nil {
		panic(fmt.Errorf("node id overflow: %w", err))
	}
	return id
}
