package model

import "fmt"

// NodeID is the dense identifier of a node, assigned in insertion order
// starting at zero.
type NodeID uint32

// InvalidNodeID marks the absence of a node (e.g. the entry point of an
// empty graph).
const InvalidNodeID = NodeID(^uint32(0))

// Candidate is a transient (id, distance) pair produced during a search or an
// insertion. It is never stored beyond the call that produced it, except as a
// cached edge weight inside a neighbor list.
type Candidate struct {
	ID       NodeID
	Distance float32
}

// String returns a string representation of the Candidate.
func (c Candidate) String() string {
	return fmt.Sprintf("(%d, %g)", c.ID, c.Distance)
}

// Less orders candidates by distance, breaking ties by the smaller id.
func (c Candidate) Less(o Candidate) bool {
	if c.Distance != o.Distance {
		return c.Distance < o.Distance
	}
	return c.ID < o.ID
}

// CompareCandidates is a three-way comparison suitable for slices.SortFunc.
func CompareCandidates(a, b Candidate) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	default:
		return 0
	}
}

// Adjacency is one exported record of the graph: the neighbor ids of Node at
// Layer. Level is the node's top layer, repeated on every record of the node.
type Adjacency struct {
	Node      NodeID
	Level     int
	Layer     int
	Neighbors []NodeID
}
