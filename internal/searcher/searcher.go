package searcher

import (
	"slices"
	"sync"

	"github.com/hupe1980/proxgraph/model"
)

// Searcher is a reusable execution context for one traversal call: the
// candidate frontier, the bounded result heap, the visited set and the
// per-call distance cache.
//
// Searcher is NOT thread-safe. It is intended to be owned by a single goroutine
// during a search or insertion.
type Searcher struct {
	// Visited tracks nodes already pushed during the current layer pass.
	Visited *VisitedSet

	// Frontier is a min-heap of unexpanded candidates (closest first).
	Frontier *PriorityQueue

	// Results is a max-heap holding the best W candidates (worst on top).
	Results *PriorityQueue

	// Seeds is a reusable buffer for entry-point ids.
	Seeds []model.NodeID

	// Scratch is a reusable buffer for drained or pruned candidates.
	Scratch []model.Candidate

	// Scored counts distance evaluations in the current call. Cache hits are
	// free and do not count.
	Scored int

	cache map[model.NodeID]float32
}

var searcherPool = sync.Pool{
	New: func() any {
		return NewSearcher(1024, 128)
	},
}

// NewSearcher creates a new searcher with the given initial capacities.
func NewSearcher(visitedCap, queueCap int) *Searcher {
	return &Searcher{
		Visited:  NewVisitedSet(visitedCap),
		Frontier: NewPriorityQueue(false),
		Results:  NewPriorityQueue(true),
		Seeds:    make([]model.NodeID, 0, 16),
		Scratch:  make([]model.Candidate, 0, queueCap),
		cache:    make(map[model.NodeID]float32, queueCap),
	}
}

// Get returns a Searcher from the pool.
func Get() *Searcher {
	s := searcherPool.Get().(*Searcher)
	s.Reset()
	return s
}

// Put returns a Searcher to the pool.
func Put(s *Searcher) {
	searcherPool.Put(s)
}

// EnsureCapacity pre-sizes the searcher for a graph of n nodes and a frontier
// width of ef so the hot loop does not grow its buffers.
func (s *Searcher) EnsureCapacity(n, ef int) {
	s.Visited.EnsureCapacity(n)
	s.Frontier.Grow(ef * 2)
	s.Results.Grow(ef + 1)
	if cap(s.Scratch) < ef {
		s.Scratch = make([]model.Candidate, 0, ef)
	}
}

// Reset clears all per-call state, including the distance cache and budget
// counter.
func (s *Searcher) Reset() {
	s.ResetLayer()
	s.Seeds = s.Seeds[:0]
	s.Scratch = s.Scratch[:0]
	s.Scored = 0
	clear(s.cache)
}

// ResetLayer clears the state of one layer pass. Cached distances survive so
// a node reached again on a lower layer is not re-scored.
func (s *Searcher) ResetLayer() {
	s.Visited.Reset()
	s.Frontier.Reset()
	s.Results.Reset()
}

// Cached returns the distance computed earlier in this call for id.
func (s *Searcher) Cached(id model.NodeID) (float32, bool) {
	d, ok := s.cache[id]
	return d, ok
}

// Remember records a freshly computed distance and charges it to the budget.
func (s *Searcher) Remember(id model.NodeID, d float32) {
	s.cache[id] = d
	s.Scored++
}

// DrainAscending empties Results into dst in ascending (distance, id) order,
// keeping at most k items. A k <= 0 keeps everything.
func (s *Searcher) DrainAscending(dst []model.Candidate, k int) []model.Candidate {
	start := len(dst)
	for s.Results.Len() > 0 {
		item, _ := s.Results.PopItem()
		dst = append(dst, item)
	}
	slices.Reverse(dst[start:])
	if k > 0 && len(dst)-start > k {
		dst = dst[:start+k]
	}
	return dst
}
