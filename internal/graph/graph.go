package graph

import (
	"errors"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/hupe1980/proxgraph/internal/vectorstore"
	"github.com/hupe1980/proxgraph/model"
)

// ErrNilDependency is returned by New when the store or policy is missing.
var ErrNilDependency = errors.New("graph: store and policy are required")

// node is one arena slot. Neighbor lists keep the distance to each neighbor
// so degree repair never re-scores existing edges.
type node struct {
	level     int
	neighbors [][]model.Candidate
	inDegree  []int32
}

// Graph is the proximity graph over a vector store. Nodes are addressed by
// dense id and all state lives in id-indexed slices.
//
// Graph is NOT safe for concurrent use. Searches may run in parallel with each
// other; Insert and Refine require exclusive access.
type Graph struct {
	store  *vectorstore.Store
	policy LayerPolicy
	opts   Options
	logger *slog.Logger
	rng    *rand.Rand

	nodes    []node
	entry    model.NodeID
	maxLevel int

	// Base-layer spanning tree rooted at the entry point. Every other node
	// keeps the edge from its parent, so layer 0 stays connected.
	parent   []model.NodeID
	children []int32

	// Writer-owned scratch buffers.
	selected []model.Candidate
	repair   []model.Candidate
	kept     []model.Candidate
	prior    []model.Candidate
}

// New creates an empty graph over store, shaped by policy.
func New(store *vectorstore.Store, policy LayerPolicy, opts Options) (*Graph, error) {
	if store == nil || policy == nil {
		return nil, ErrNilDependency
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.MaxExpansions <= 0 {
		opts.MaxExpansions = DefaultMaxExpansions
	}

	return &Graph{
		store:    store,
		policy:   policy,
		opts:     opts,
		logger:   logger,
		rng:      rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x2545F4914F6CDD1D)),
		entry:    model.InvalidNodeID,
		maxLevel: -1,
	}, nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Policy returns the layer policy.
func (g *Graph) Policy() LayerPolicy {
	return g.policy
}

// Store returns the backing vector store.
func (g *Graph) Store() *vectorstore.Store {
	return g.store
}

// EntryPoint returns the traversal entry point. ok is false for an empty graph.
func (g *Graph) EntryPoint() (id model.NodeID, ok bool) {
	return g.entry, g.entry != model.InvalidNodeID
}

// MaxLevel returns the highest layer in use, or -1 for an empty graph.
func (g *Graph) MaxLevel() int {
	return g.maxLevel
}

// Level returns the top layer of id.
func (g *Graph) Level(id model.NodeID) int {
	return g.nodes[id].level
}

// Neighbors returns a copy of the neighbor ids of id at layer. Layers above
// the node's level have no neighbors.
func (g *Graph) Neighbors(id model.NodeID, layer int) []model.NodeID {
	nd := &g.nodes[id]
	if layer < 0 || layer > nd.level {
		return nil
	}

	out := make([]model.NodeID, len(nd.neighbors[layer]))
	for i, c := range nd.neighbors[layer] {
		out[i] = c.ID
	}
	return out
}

// InDegree returns the number of edges pointing at id on layer.
func (g *Graph) InDegree(id model.NodeID, layer int) int {
	nd := &g.nodes[id]
	if layer < 0 || layer > nd.level {
		return 0
	}
	return int(nd.inDegree[layer])
}

func (g *Graph) edges(id model.NodeID, layer int) []model.Candidate {
	nd := &g.nodes[id]
	if layer > nd.level {
		return nil
	}
	return nd.neighbors[layer]
}

func (g *Graph) newNode(level int) {
	bound0 := g.policy.MaxDegree(0)
	nd := node{
		level:     level,
		neighbors: make([][]model.Candidate, level+1),
		inDegree:  make([]int32, level+1),
	}
	for l := range nd.neighbors {
		bound := bound0
		if l > 0 {
			bound = g.policy.MaxDegree(l)
		}
		nd.neighbors[l] = make([]model.Candidate, 0, bound)
	}
	g.nodes = append(g.nodes, nd)
	g.parent = append(g.parent, model.InvalidNodeID)
	g.children = append(g.children, 0)
}

// setEdges replaces the neighbor list of id at layer with list, keeping the
// in-degree counters in step. It returns the neighbors that were dropped in
// g.prior.
func (g *Graph) setEdges(id model.NodeID, layer int, list []model.Candidate) []model.Candidate {
	nd := &g.nodes[id]
	old := nd.neighbors[layer]

	g.prior = append(g.prior[:0], old...)
	for _, c := range old {
		g.nodes[c.ID].inDegree[layer]--
	}
	for _, c := range list {
		g.nodes[c.ID].inDegree[layer]++
	}

	nd.neighbors[layer] = append(old[:0], list...)

	dropped := g.prior[:0]
	for _, c := range g.prior {
		if !containsID(list, c.ID) {
			dropped = append(dropped, c)
		}
	}
	return dropped
}

func containsID(list []model.Candidate, id model.NodeID) bool {
	return slices.ContainsFunc(list, func(c model.Candidate) bool { return c.ID == id })
}
