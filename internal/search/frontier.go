package search

import (
	"container/heap"
)

// Node is a frontier entry: a state (by arena index) plus its accumulated
// cost g, heuristic estimate h, and total estimate f = g + h. F is fixed at
// insertion time and never mutated in place; a better path to an equivalent
// state is submitted as a fresh node and the stale one is lazily deleted at
// pop time.
type Node struct {
	// StateIndex is the arena index of the node's state.
	StateIndex int

	// Fingerprint is the state's similarity fingerprint, used for lazy
	// deletion against the closed set.
	Fingerprint string

	// G is the accumulated path cost.
	G int

	// H is the heuristic cost-to-go estimate.
	H float64

	// F is the total estimated cost, g + h.
	F float64

	// LowConfidence marks nodes whose heuristic came from the
	// deterministic fallback rather than the estimation collaborator.
	LowConfidence bool

	// Seq is the submission order, assigned by the frontier at insertion.
	// It breaks remaining ties deterministically FIFO.
	Seq uint64
}

// less implements the frontier's total order: ascending f, ties broken by
// higher g (prefer more advanced paths), then by submission order.
func (n Node) less(other Node) bool {
	if n.F != other.F {
		return n.F < other.F
	}
	if n.G != other.G {
		return n.G > other.G
	}
	return n.Seq < other.Seq
}

// nodeHeap implements heap.Interface over Nodes.
type nodeHeap []Node

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].less(h[j]) }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)         { *h = append(*h, x.(Node)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Frontier is the open set: a priority queue of search nodes ordered by
// estimated total cost, with logarithmic insert and pop. Duplicate
// fingerprints may coexist in the open set; deduplication happens only at
// pop time against the closed set (lazy deletion). A single run pops from
// one goroutine only, so the frontier is not internally locked.
type Frontier struct {
	heap     nodeHeap
	capacity int
	nextSeq  uint64
}

// NewFrontier creates a frontier bounded to capacity nodes. A capacity of
// zero or less means unbounded.
func NewFrontier(capacity int) *Frontier {
	return &Frontier{capacity: capacity}
}

// Insert assigns the node its submission sequence and pushes it onto the
// queue. Returns false when the frontier is at capacity and the node was
// rejected.
func (f *Frontier) Insert(node Node) bool {
	if f.capacity > 0 && len(f.heap) >= f.capacity {
		return false
	}
	node.Seq = f.nextSeq
	f.nextSeq++
	heap.Push(&f.heap, node)
	return true
}

// PopBest removes and returns the lowest-f node. The second return is false
// when the frontier is empty.
func (f *Frontier) PopBest() (Node, bool) {
	if len(f.heap) == 0 {
		return Node{}, false
	}
	return heap.Pop(&f.heap).(Node), true
}

// PeekBest returns the lowest-f node without removing it. The second return
// is false when the frontier is empty.
func (f *Frontier) PeekBest() (Node, bool) {
	if len(f.heap) == 0 {
		return Node{}, false
	}
	return f.heap[0], true
}

// IsEmpty reports whether the frontier has no nodes.
func (f *Frontier) IsEmpty() bool {
	return len(f.heap) == 0
}

// Len returns the number of nodes currently in the open set.
func (f *Frontier) Len() int {
	return len(f.heap)
}
