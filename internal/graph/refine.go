package graph

import (
	"context"

	"github.com/hupe1980/proxgraph/internal/searcher"
	"github.com/hupe1980/proxgraph/model"
)

// refineCheckEvery is how many nodes are re-pruned between context checks.
const refineCheckEvery = 256

// Refine rebuilds the base layer in two passes: one with the configured alpha
// and a final strict pass with alpha = 1. Each node is re-pruned over its
// current neighbors plus a fresh beam search for its own vector, then
// reverse edges are added with the usual degree repair. Nodes are visited in
// a random order drawn from the construction source.
//
// For the flat family the entry point first moves to the node closest to the
// centroid of the data. The graph stays valid if ctx is cancelled mid-pass.
func (g *Graph) Refine(ctx context.Context) error {
	if len(g.nodes) < 2 {
		return nil
	}

	if _, ok := g.policy.(*Flat); ok {
		old := g.entry
		g.entry = g.medoid()
		g.reroot(old, g.entry)
	}

	for _, alpha := range []float32{g.opts.Alpha, 1} {
		if err := g.refinePass(ctx, alpha); err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph) refinePass(ctx context.Context, alpha float32) error {
	order := g.rng.Perm(len(g.nodes))
	bound := g.policy.MaxDegree(0)
	efc := g.opts.EFConstruction

	s := searcher.Get()
	defer searcher.Put(s)

	for i, idx := range order {
		if i%refineCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		id := model.NodeID(idx)
		q := g.store.Vector(id)

		s.Reset()
		s.EnsureCapacity(len(g.nodes), efc)

		cur := g.descend(s, q, g.entry, 0, g.opts.MaxExpansions)
		s.Seeds = append(s.Seeds[:0], cur)
		g.searchLayer(s, q, s.Seeds, 0, efc, g.opts.MaxExpansions)

		cands := s.DrainAscending(s.Scratch[:0], 0)
		cands = append(cands, g.nodes[id].neighbors[0]...)
		s.Scratch = cands

		g.selected = g.RobustPrune(g.selected[:0], id, cands, bound, alpha)
		if len(g.selected) == 0 {
			continue
		}

		for _, e := range g.setEdges(id, 0, g.selected) {
			g.dropped(id, e.ID, 0)
		}
		for _, m := range g.selected {
			g.addEdge(m.ID, id, 0, m.Distance)
		}
	}
	return nil
}

// medoid returns the node closest to the centroid of all stored vectors.
func (g *Graph) medoid() model.NodeID {
	dim := g.store.Dimension()
	centroid := make([]float64, dim)
	for i := range g.nodes {
		for j, x := range g.store.Vector(model.NodeID(i)) {
			centroid[j] += float64(x)
		}
	}

	c := make([]float32, dim)
	n := float64(len(g.nodes))
	for j := range centroid {
		c[j] = float32(centroid[j] / n)
	}

	best := model.Candidate{ID: 0, Distance: g.store.Distance(0, c)}
	for i := 1; i < len(g.nodes); i++ {
		cand := model.Candidate{ID: model.NodeID(i), Distance: g.store.Distance(model.NodeID(i), c)}
		if cand.Less(best) {
			best = cand
		}
	}
	return best.ID
}
