package graph

import (
	"iter"

	"github.com/hupe1980/proxgraph/model"
)

// Export yields one record per (node, layer) pair. Records of a node are
// produced top layer first; callers must not rely on any order.
//
// The sequence reads the live graph and must not be consumed concurrently with
// Insert or Refine.
func (g *Graph) Export() iter.Seq[model.Adjacency] {
	return func(yield func(model.Adjacency) bool) {
		for i := range g.nodes {
			id := model.NodeID(i)
			level := g.nodes[i].level
			for l := level; l >= 0; l-- {
				if !yield(model.Adjacency{
					Node:      id,
					Level:     level,
					Layer:     l,
					Neighbors: g.Neighbors(id, l),
				}) {
					return
				}
			}
		}
	}
}
