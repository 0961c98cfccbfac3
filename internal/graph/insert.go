package graph

import (
	"slices"

	"github.com/hupe1980/proxgraph/internal/searcher"
	"github.com/hupe1980/proxgraph/model"
)

// Insert appends v to the store and links the new node into the graph. The
// vector is rejected, and nothing is mutated, on dimension mismatch or
// non-finite values.
func (g *Graph) Insert(v []float32) (model.NodeID, error) {
	id, err := g.store.Append(v)
	if err != nil {
		return 0, err
	}

	level := g.policy.Level(g.rng)
	g.newNode(level)

	if g.entry == model.InvalidNodeID {
		g.entry = id
		g.maxLevel = level
		return id, nil
	}

	g.link(id, level)

	if level > g.maxLevel {
		old := g.entry
		g.entry = id
		g.maxLevel = level
		g.reroot(old, id)
	}

	return id, nil
}

// link connects the freshly stored node id on layers min(level, maxLevel)..0.
func (g *Graph) link(id model.NodeID, level int) {
	q := g.store.Vector(id)
	budget := g.opts.MaxExpansions
	efc := g.opts.EFConstruction

	s := searcher.Get()
	defer searcher.Put(s)
	s.EnsureCapacity(len(g.nodes), efc)

	cur := g.descend(s, q, g.entry, level, budget)

	for layer := min(level, g.maxLevel); layer >= 0; layer-- {
		s.Seeds = append(s.Seeds[:0], cur)
		if layer == 0 {
			// The new node is the last id; sample only among existing nodes.
			s.Seeds = g.policy.BaseSeeds(s.Seeds, int(id), g.rng)
		}
		g.searchLayer(s, q, s.Seeds, layer, efc, budget)

		cands := s.DrainAscending(s.Scratch[:0], 0)
		s.Scratch = cands
		if len(cands) == 0 {
			continue
		}
		cur = cands[0].ID

		bound := g.policy.MaxDegree(layer)
		g.selected = g.RobustPrune(g.selected[:0], id, cands, bound, g.opts.Alpha)
		g.setEdges(id, layer, g.selected)

		for _, m := range g.selected {
			g.addEdge(m.ID, id, layer, m.Distance)
		}

		if layer > 0 && g.nodes[id].inDegree[layer] == 0 {
			g.rescue(id, layer)
		}
	}

	if g.parent[id] == model.InvalidNodeID {
		// id has no children yet, so any node in the tree is a safe host.
		from := g.entry
		if outs := g.nodes[id].neighbors[0]; len(outs) > 0 && g.rooted(outs[0].ID) {
			from = outs[0].ID
		}
		g.attach(id, from)
	}
}

// addEdge adds target to the neighbor list of source at layer. When the list
// is full, source's bound+1 candidates are re-pruned with source as the
// origin, reusing the cached distances. Evicted neighbors keep their own edge
// to source. On upper layers a neighbor left with no incoming edge is
// rescued; on layer 0 an evicted tree child is attached elsewhere.
func (g *Graph) addEdge(source, target model.NodeID, layer int, dist float32) {
	nd := &g.nodes[source]
	conns := nd.neighbors[layer]
	if containsID(conns, target) {
		return
	}

	bound := g.policy.MaxDegree(layer)
	if len(conns) < bound {
		nd.neighbors[layer] = append(conns, model.Candidate{ID: target, Distance: dist})
		g.nodes[target].inDegree[layer]++
		if layer == 0 {
			g.claim(source, target)
		}
		return
	}

	g.repair = append(g.repair[:0], conns...)
	g.repair = append(g.repair, model.Candidate{ID: target, Distance: dist})
	g.kept = g.RobustPrune(g.kept[:0], source, g.repair, bound, g.opts.Alpha)

	for _, e := range g.setEdges(source, layer, g.kept) {
		g.dropped(source, e.ID, layer)
	}
	if layer == 0 && containsID(g.nodes[source].neighbors[0], target) {
		g.claim(source, target)
	}
}

// rescue gives orphan an incoming edge on an upper layer. It prefers the
// nearest out-neighbor with a free slot; failing that, it replaces the
// farthest neighbor of an out-neighbor that still has another incoming edge.
func (g *Graph) rescue(orphan model.NodeID, layer int) {
	if orphan == g.entry {
		return
	}

	outs := g.nodes[orphan].neighbors[layer]
	bound := g.policy.MaxDegree(layer)

	best := -1
	for i, o := range outs {
		if len(g.nodes[o.ID].neighbors[layer]) < bound && (best < 0 || o.Less(outs[best])) {
			best = i
		}
	}

	if best >= 0 {
		o := outs[best]
		host := &g.nodes[o.ID]
		host.neighbors[layer] = append(host.neighbors[layer], model.Candidate{ID: orphan, Distance: o.Distance})
		g.nodes[orphan].inDegree[layer]++
		return
	}

	for _, o := range g.nearestFirst(outs) {
		host := &g.nodes[o.ID]
		victim := -1
		for j, x := range host.neighbors[layer] {
			if g.nodes[x.ID].inDegree[layer] < 2 {
				continue
			}
			if victim < 0 || host.neighbors[layer][victim].Less(x) {
				victim = j
			}
		}
		if victim < 0 {
			continue
		}

		g.nodes[host.neighbors[layer][victim].ID].inDegree[layer]--
		host.neighbors[layer][victim] = model.Candidate{ID: orphan, Distance: o.Distance}
		g.nodes[orphan].inDegree[layer]++
		return
	}

	g.logger.Warn("node left without incoming edges",
		"node", orphan,
		"layer", layer,
		"out_degree", len(outs))
}

// nearestFirst returns the candidates ordered by (distance, id) without
// touching the input.
func (g *Graph) nearestFirst(list []model.Candidate) []model.Candidate {
	out := slices.Clone(list)
	slices.SortFunc(out, model.CompareCandidates)
	return out
}
