package graph

import (
	"math/rand/v2"

	"github.com/hupe1980/proxgraph/internal/searcher"
	"github.com/hupe1980/proxgraph/model"
)

// score returns the distance from q to id, computing it at most once per call.
func (g *Graph) score(s *searcher.Searcher, q []float32, id model.NodeID) float32 {
	if d, ok := s.Cached(id); ok {
		return d
	}
	d := g.store.Distance(id, q)
	s.Remember(id, d)
	return d
}

// searchLayer runs a beam search over one layer. On return s.Results holds up
// to w candidates. Seeds are always scored; neighbors are scored only while
// fewer than budget distances have been computed in this call.
func (g *Graph) searchLayer(s *searcher.Searcher, q []float32, seeds []model.NodeID, layer, w, budget int) {
	s.ResetLayer()

	frontier := s.Frontier
	results := s.Results
	visited := s.Visited

	for _, id := range seeds {
		if !visited.Visit(id) {
			continue
		}
		c := model.Candidate{ID: id, Distance: g.score(s, q, id)}
		frontier.PushItem(c)
		results.PushItemBounded(c, w)
	}

	for frontier.Len() > 0 {
		curr, _ := frontier.PopItem()

		// Every kept result is closer than curr: exploring further cannot help.
		if results.Len() >= w {
			worst, _ := results.TopItem()
			if worst.Less(curr) {
				break
			}
		}

		for _, next := range g.edges(curr.ID, layer) {
			if visited.Visited(next.ID) {
				continue
			}

			d, ok := s.Cached(next.ID)
			if !ok {
				if s.Scored >= budget {
					return
				}
				d = g.store.Distance(next.ID, q)
				s.Remember(next.ID, d)
			}
			visited.Visit(next.ID)

			c := model.Candidate{ID: next.ID, Distance: d}
			if results.Len() >= w {
				worst, _ := results.TopItem()
				if !c.Less(worst) {
					continue
				}
			}
			frontier.PushItem(c)
			results.PushItemBounded(c, w)
		}
	}
}

// descend walks the layers above floor with a frontier of one, returning the
// best node found. It refines the entry point for the next layer down.
func (g *Graph) descend(s *searcher.Searcher, q []float32, ep model.NodeID, floor, budget int) model.NodeID {
	cur := ep
	for layer := g.maxLevel; layer > floor; layer-- {
		s.Seeds = append(s.Seeds[:0], cur)
		g.searchLayer(s, q, s.Seeds, layer, 1, budget)
		if best, ok := s.Results.TopItem(); ok {
			cur = best.ID
		}
	}
	return cur
}

// Search returns up to k candidates for the prepared query q in ascending
// (distance, id) order, and the number of distances computed. ef below k is
// raised to k; budget <= 0 selects the configured ceiling.
func (g *Graph) Search(q []float32, k, ef, budget int) ([]model.Candidate, int) {
	if len(g.nodes) == 0 || k <= 0 {
		return nil, 0
	}
	ef = max(ef, k)
	if budget <= 0 {
		budget = g.opts.MaxExpansions
	}

	s := searcher.Get()
	defer searcher.Put(s)
	s.EnsureCapacity(len(g.nodes), ef)

	cur := g.descend(s, q, g.entry, 0, budget)

	s.Seeds = append(s.Seeds[:0], cur)
	s.Seeds = g.policy.BaseSeeds(s.Seeds, len(g.nodes), g.searchRand(q))
	g.searchLayer(s, q, s.Seeds, 0, ef, budget)

	out := s.DrainAscending(make([]model.Candidate, 0, k), k)
	return out, s.Scored
}

// searchRand returns the random source for search-time seeding. Policies that
// never sample get nil and no hashing cost.
func (g *Graph) searchRand(q []float32) *rand.Rand {
	if !g.samples() {
		return nil
	}
	return queryRand(q)
}

func (g *Graph) samples() bool {
	switch p := g.policy.(type) {
	case *Hierarchical:
		return p.Seeds.K > 0
	case *Flat:
		return p.S > 0
	default:
		return true
	}
}

// BruteSearch performs an exact scan over every node. It is the ground truth
// for recall measurements.
func (g *Graph) BruteSearch(q []float32, k int) []model.Candidate {
	if len(g.nodes) == 0 || k <= 0 {
		return nil
	}

	s := searcher.Get()
	defer searcher.Put(s)

	for i := range g.nodes {
		id := model.NodeID(i)
		s.Results.PushItemBounded(model.Candidate{ID: id, Distance: g.store.Distance(id, q)}, k)
	}
	return s.DrainAscending(make([]model.Candidate, 0, k), k)
}
