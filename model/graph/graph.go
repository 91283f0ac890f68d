// Package graph owns the mutable process dependency graph: one node per
// live process and directed client to host edges for service bindings and
// provider acquisitions.  It is a plain data structure; locking is the
// caller's concern.
package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/viant/procadj/model/proc"
	"github.com/viant/procadj/model/tier"
)

var (
	ErrProcessExists   = errors.New("process already tracked")
	ErrProcessNotFound = errors.New("process not found")
	ErrEdgeNotFound    = errors.New("edge not found")
)

// Graph stores nodes in an arena with stable slots.  Removing a node
// frees its slot for reuse and drops every incident edge.
type Graph struct {
	nodes []*proc.Node
	free  []int
	index map[proc.ID]int

	edges    []*proc.Edge
	freeEdge []int

	// per-slot incident edge ids, insertion ordered
	out [][]proc.EdgeID
	in  [][]proc.EdgeID

	lruSeq int64
}

func New() *Graph {
	return &Graph{index: make(map[proc.ID]int)}
}

// Len returns the number of live nodes.
func (g *Graph) Len() int {
	return len(g.index)
}

// Add registers a new process with the supplied facts.
func (g *Graph) Add(id proc.ID, facts proc.Facts) (*proc.Node, error) {
	if _, ok := g.index[id]; ok {
		return nil, fmt.Errorf("%w: %v", ErrProcessExists, id)
	}
	slot := g.allocSlot()
	g.lruSeq++
	node := &proc.Node{ID: id, Facts: facts, Slot: slot, LRU: g.lruSeq}
	node.Reset()
	node.Applied = tier.Unknown()
	g.nodes[slot] = node
	g.index[id] = slot
	return node, nil
}

// Remove drops a process and every edge it participates in.
func (g *Graph) Remove(id proc.ID) error {
	slot, ok := g.index[id]
	if !ok {
		return fmt.Errorf("%w: %v", ErrProcessNotFound, id)
	}
	for _, edgeID := range append([]proc.EdgeID{}, g.out[slot]...) {
		g.dropEdge(edgeID)
	}
	for _, edgeID := range append([]proc.EdgeID{}, g.in[slot]...) {
		g.dropEdge(edgeID)
	}
	g.nodes[slot] = nil
	g.out[slot] = nil
	g.in[slot] = nil
	g.free = append(g.free, slot)
	delete(g.index, id)
	return nil
}

// Node returns the live node for id.
func (g *Graph) Node(id proc.ID) (*proc.Node, bool) {
	slot, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return g.nodes[slot], true
}

// Touch marks a process as most recently used.
func (g *Graph) Touch(id proc.ID) {
	if slot, ok := g.index[id]; ok {
		g.lruSeq++
		g.nodes[slot].LRU = g.lruSeq
	}
}

// Bind adds a client to host edge and returns its id.
func (g *Graph) Bind(edge proc.Edge) (proc.EdgeID, error) {
	clientSlot, ok := g.index[edge.Client]
	if !ok {
		return 0, fmt.Errorf("%w: client %v", ErrProcessNotFound, edge.Client)
	}
	hostSlot, ok := g.index[edge.Host]
	if !ok {
		return 0, fmt.Errorf("%w: host %v", ErrProcessNotFound, edge.Host)
	}
	id := g.allocEdge()
	stored := edge
	stored.ID = id
	g.edges[int(id)] = &stored
	g.out[clientSlot] = append(g.out[clientSlot], id)
	g.in[hostSlot] = append(g.in[hostSlot], id)
	return id, nil
}

// Unbind removes a single edge by id.
func (g *Graph) Unbind(id proc.EdgeID) error {
	if int(id) < 0 || int(id) >= len(g.edges) || g.edges[int(id)] == nil {
		return fmt.Errorf("%w: %d", ErrEdgeNotFound, id)
	}
	g.dropEdge(id)
	return nil
}

// Edge returns a live edge by id.
func (g *Graph) Edge(id proc.EdgeID) (*proc.Edge, bool) {
	if int(id) < 0 || int(id) >= len(g.edges) || g.edges[int(id)] == nil {
		return nil, false
	}
	return g.edges[int(id)], true
}

// Out returns the edges whose client is node, in bind order.
func (g *Graph) Out(node *proc.Node) []*proc.Edge {
	return g.resolve(g.out[node.Slot])
}

// In returns the edges whose host is node, in bind order.
func (g *Graph) In(node *proc.Node) []*proc.Edge {
	return g.resolve(g.in[node.Slot])
}

func (g *Graph) resolve(ids []proc.EdgeID) []*proc.Edge {
	if len(ids) == 0 {
		return nil
	}
	result := make([]*proc.Edge, 0, len(ids))
	for _, id := range ids {
		result = append(result, g.edges[int(id)])
	}
	return result
}

// LRU returns every node from least to most recently used.
func (g *Graph) LRU() []*proc.Node {
	result := make([]*proc.Node, 0, len(g.index))
	for _, node := range g.nodes {
		if node != nil {
			result = append(result, node)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LRU < result[j].LRU
	})
	return result
}

// Reachable collects the roots plus every host transitively bound from
// them, in deterministic LRU order.
func (g *Graph) Reachable(roots ...proc.ID) []*proc.Node {
	seen := make(map[int]bool)
	var queue []*proc.Node
	for _, id := range roots {
		if slot, ok := g.index[id]; ok && !seen[slot] {
			seen[slot] = true
			queue = append(queue, g.nodes[slot])
		}
	}
	for i := 0; i < len(queue); i++ {
		for _, edge := range g.Out(queue[i]) {
			slot := g.index[edge.Host]
			if !seen[slot] {
				seen[slot] = true
				queue = append(queue, g.nodes[slot])
			}
		}
	}
	sort.Slice(queue, func(i, j int) bool {
		return queue[i].LRU < queue[j].LRU
	})
	return queue
}

// Validate checks internal consistency and returns the first defect.
func (g *Graph) Validate() error {
	for slot, node := range g.nodes {
		if node == nil {
			continue
		}
		if node.Slot != slot {
			return fmt.Errorf("node %v slot mismatch: %d vs %d", node.ID, node.Slot, slot)
		}
		if got, ok := g.index[node.ID]; !ok || got != slot {
			return fmt.Errorf("node %v missing from index", node.ID)
		}
	}
	for _, edge := range g.edges {
		if edge == nil {
			continue
		}
		if _, ok := g.index[edge.Client]; !ok {
			return fmt.Errorf("edge %d dangling client %v", edge.ID, edge.Client)
		}
		if _, ok := g.index[edge.Host]; !ok {
			return fmt.Errorf("edge %d dangling host %v", edge.ID, edge.Host)
		}
	}
	return nil
}

func (g *Graph) allocSlot() int {
	if n := len(g.free); n > 0 {
		slot := g.free[n-1]
		g.free = g.free[:n-1]
		return slot
	}
	g.nodes = append(g.nodes, nil)
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	return len(g.nodes) - 1
}

func (g *Graph) allocEdge() proc.EdgeID {
	if n := len(g.freeEdge); n > 0 {
		id := g.freeEdge[n-1]
		g.freeEdge = g.freeEdge[:n-1]
		return proc.EdgeID(id)
	}
	g.edges = append(g.edges, nil)
	return proc.EdgeID(len(g.edges) - 1)
}

func (g *Graph) dropEdge(id proc.EdgeID) {
	edge := g.edges[int(id)]
	if edge == nil {
		return
	}
	if slot, ok := g.index[edge.Client]; ok {
		g.out[slot] = removeEdgeID(g.out[slot], id)
	}
	if slot, ok := g.index[edge.Host]; ok {
		g.in[slot] = removeEdgeID(g.in[slot], id)
	}
	g.edges[int(id)] = nil
	g.freeEdge = append(g.freeEdge, int(id))
}

func removeEdgeID(ids []proc.EdgeID, id proc.EdgeID) []proc.EdgeID {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
