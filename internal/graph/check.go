package graph

import (
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/proxgraph/model"
)

// Report summarizes an invariant check of the whole graph.
type Report struct {
	Nodes  int
	Layers int

	// DegreeViolations counts neighbor lists longer than their layer bound.
	DegreeViolations int
	// SelfLoops counts lists that contain their own node.
	SelfLoops int
	// Duplicates counts repeated ids inside a single list.
	Duplicates int
	// LayerViolations counts edges at layer l to nodes whose level is below l.
	LayerViolations int
	// InDegreeMismatches counts stored in-degree counters that disagree with
	// the edges actually present.
	InDegreeMismatches int
	// TreeViolations counts nodes other than the entry point whose base
	// layer tree edge is missing.
	TreeViolations int

	// Orphans holds, per layer, the nodes other than the entry point without
	// incoming edges. Informational: an orphan may still be reachable through
	// another layer.
	Orphans []int
	// Unreachable counts nodes that cannot be reached from the entry point by
	// following edges on any layer.
	Unreachable int
}

// OK reports whether every hard invariant holds and every node is reachable.
func (r Report) OK() bool {
	return r.DegreeViolations == 0 && r.SelfLoops == 0 && r.Duplicates == 0 &&
		r.LayerViolations == 0 && r.InDegreeMismatches == 0 && r.TreeViolations == 0 &&
		r.Unreachable == 0
}

func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "nodes=%d layers=%d degree=%d self=%d dup=%d layer=%d indeg=%d tree=%d unreachable=%d orphans=%v",
		r.Nodes, r.Layers, r.DegreeViolations, r.SelfLoops, r.Duplicates,
		r.LayerViolations, r.InDegreeMismatches, r.TreeViolations, r.Unreachable, r.Orphans)
	return b.String()
}

// Check walks every neighbor list and verifies the graph invariants.
func (g *Graph) Check() Report {
	r := Report{Nodes: len(g.nodes), Layers: g.maxLevel + 1}
	if len(g.nodes) == 0 {
		return r
	}

	// members[l] holds the nodes that live on layer l.
	members := make([]*roaring.Bitmap, r.Layers)
	for l := range members {
		members[l] = roaring.New()
	}
	for i, nd := range g.nodes {
		for l := 0; l <= nd.level; l++ {
			members[l].Add(uint32(i))
		}
	}

	indeg := make([][]int32, len(g.nodes))
	for i, nd := range g.nodes {
		indeg[i] = make([]int32, nd.level+1)
	}

	for i, nd := range g.nodes {
		id := model.NodeID(i)
		for l, list := range nd.neighbors {
			if len(list) > g.policy.MaxDegree(l) {
				r.DegreeViolations++
			}

			seen := roaring.New()
			for _, c := range list {
				if c.ID == id {
					r.SelfLoops++
				}
				if !seen.CheckedAdd(uint32(c.ID)) {
					r.Duplicates++
				}
				if !members[l].Contains(uint32(c.ID)) {
					r.LayerViolations++
					continue
				}
				indeg[c.ID][l]++
			}
		}
	}

	r.Orphans = make([]int, r.Layers)
	for i, nd := range g.nodes {
		for l := 0; l <= nd.level; l++ {
			if indeg[i][l] != nd.inDegree[l] {
				r.InDegreeMismatches++
			}
			if indeg[i][l] == 0 && model.NodeID(i) != g.entry {
				r.Orphans[l]++
			}
		}
	}

	for i, p := range g.parent {
		id := model.NodeID(i)
		if id == g.entry {
			continue
		}
		if p == model.InvalidNodeID || !containsID(g.nodes[p].neighbors[0], id) {
			r.TreeViolations++
		}
	}

	reached := g.reachable()
	r.Unreachable = len(g.nodes) - int(reached.GetCardinality())

	return r
}

// reachable returns the nodes reachable from the entry point over edges of
// any layer.
func (g *Graph) reachable() *roaring.Bitmap {
	reached := roaring.New()
	reached.Add(uint32(g.entry))

	queue := []model.NodeID{g.entry}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, list := range g.nodes[id].neighbors {
			for _, c := range list {
				if reached.CheckedAdd(uint32(c.ID)) {
					queue = append(queue, c.ID)
				}
			}
		}
	}
	return reached
}
