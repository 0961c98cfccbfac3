package graph

import "github.com/hupe1980/proxgraph/model"

// maxParentWalk bounds the ancestor walk of safeParent. Longer chains are
// treated as unsafe.
const maxParentWalk = 64

// adopt records w as the tree parent of v. The edge w->v must exist on
// layer 0.
func (g *Graph) adopt(w, v model.NodeID) {
	g.detach(v)
	g.parent[v] = w
	g.children[w]++
}

func (g *Graph) detach(v model.NodeID) {
	if p := g.parent[v]; p != model.InvalidNodeID {
		g.children[p]--
		g.parent[v] = model.InvalidNodeID
	}
}

// rooted reports whether w hangs in the tree: it is the entry point or has a
// parent.
func (g *Graph) rooted(w model.NodeID) bool {
	return w == g.entry || g.parent[w] != model.InvalidNodeID
}

// safeParent reports whether w can become the parent of v without closing a
// cycle, i.e. v is not an ancestor of w.
func (g *Graph) safeParent(w, v model.NodeID) bool {
	if w == v || !g.rooted(w) {
		return false
	}
	if g.children[v] == 0 {
		return true
	}
	x := w
	for range maxParentWalk {
		if x == v {
			return false
		}
		if x = g.parent[x]; x == model.InvalidNodeID {
			return true
		}
	}
	return false
}

// claim makes source the parent of target when target was just linked from
// source and has no parent yet.
func (g *Graph) claim(source, target model.NodeID) {
	if g.parent[target] == model.InvalidNodeID && target != g.entry && g.safeParent(source, target) {
		g.adopt(source, target)
	}
}

// dropped repairs the graph after source lost its edge to x on layer. Upper
// layers only need an incoming edge; on layer 0 a child that lost its tree
// edge is attached elsewhere.
func (g *Graph) dropped(source, x model.NodeID, layer int) {
	if layer > 0 {
		if g.nodes[x].inDegree[layer] == 0 {
			g.rescue(x, layer)
		}
		return
	}
	if g.parent[x] == source {
		g.detach(x)
		g.attach(x, source)
	}
}

// place adds the layer-0 edge w->v, taking a free slot or replacing w's
// farthest neighbor that is not its child. It reports whether the edge
// exists afterwards.
func (g *Graph) place(w, v model.NodeID) bool {
	nd := &g.nodes[w]
	list := nd.neighbors[0]
	if containsID(list, v) {
		return true
	}

	c := model.Candidate{ID: v, Distance: g.store.DistanceBetween(w, v)}
	if len(list) < g.policy.MaxDegree(0) {
		nd.neighbors[0] = append(list, c)
		g.nodes[v].inDegree[0]++
		return true
	}

	victim := -1
	for i, x := range list {
		if g.parent[x.ID] == w {
			continue
		}
		if victim < 0 || list[victim].Less(x) {
			victim = i
		}
	}
	if victim < 0 {
		return false
	}

	g.nodes[list[victim].ID].inDegree[0]--
	list[victim] = c
	g.nodes[v].inDegree[0]++
	return true
}

// attach finds a tree parent for the parentless node v. It prefers one of
// v's out-neighbors that already links back, then one with room, then the
// chain from from upwards, whose ancestors must not include v.
func (g *Graph) attach(v, from model.NodeID) {
	outs := g.nearestFirst(g.nodes[v].neighbors[0])

	for _, o := range outs {
		if containsID(g.nodes[o.ID].neighbors[0], v) && g.safeParent(o.ID, v) {
			g.adopt(o.ID, v)
			return
		}
	}
	for _, o := range outs {
		if g.safeParent(o.ID, v) && g.place(o.ID, v) {
			g.adopt(o.ID, v)
			return
		}
	}
	for w := from; w != model.InvalidNodeID; w = g.parent[w] {
		if w != v && g.place(w, v) {
			g.adopt(w, v)
			return
		}
	}

	// Last resort: the tree has fewer edges than slots, so some list has room.
	for i := range g.nodes {
		w := model.NodeID(i)
		if g.safeParent(w, v) && g.place(w, v) {
			g.adopt(w, v)
			return
		}
	}

	g.logger.Warn("node left outside the base layer tree",
		"node", v,
		"from", from,
		"out_degree", len(outs))
}

// reroot moves the tree root from old to the new entry point r. r leaves its
// parent and old hangs below r.
func (g *Graph) reroot(old, r model.NodeID) {
	if old == r || old == model.InvalidNodeID {
		return
	}
	g.detach(r)

	if g.place(r, old) {
		g.adopt(r, old)
		return
	}

	// Every neighbor of r is its child: hand the farthest one over to old.
	list := g.nodes[r].neighbors[0]
	far := 0
	for i := range list {
		if list[far].Less(list[i]) {
			far = i
		}
	}
	child := list[far].ID

	g.nodes[child].inDegree[0]--
	list[far] = model.Candidate{ID: old, Distance: g.store.DistanceBetween(r, old)}
	g.nodes[old].inDegree[0]++
	g.adopt(r, old)

	g.detach(child)
	g.attach(child, old)
}
