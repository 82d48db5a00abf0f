package dag

import "slices"

// cycleNodes returns, in id order, the nodes among in that belong to a
// strongly connected component with more than one node. Edges leaving in
// are ignored.
func cycleNodes(g Graph, in []bool) []NodeID {
	t := &tarjan{
		g:       g,
		in:      in,
		index:   make([]int, g.Len()),
		low:     make([]int, g.Len()),
		onStack: make([]bool, g.Len()),
	}
	for i := range g.Len() {
		if in[i] && t.index[i] == 0 {
			t.visit(nodeID(i))
		}
	}
	slices.Sort(t.out)
	return t.out
}

type tarjan struct {
	g       Graph
	in      []bool
	index   []int // 0 = not visited yet
	low     []int
	onStack []bool
	stack   []NodeID
	next    int
	out     []NodeID
}

func (t *tarjan) visit(v NodeID) {
	t.next++
	t.index[v], t.low[v] = t.next, t.next
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.g.Edges[v] {
		if !t.in[w] {
			continue
		}
		switch {
		case t.index[w] == 0:
			t.visit(w)
			t.low[v] = min(t.low[v], t.low[w])
		case t.onStack[w]:
			t.low[v] = min(t.low[v], t.index[w])
		}
	}

	if t.low[v] != t.index[v] {
		return
	}
	var comp []NodeID
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		comp = append(comp, w)
		if w == v {
			break
		}
	}
	if len(comp) > 1 {
		t.out = append(t.out, comp...)
	}
}
