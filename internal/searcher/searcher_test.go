package searcher

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/proxgraph/model"
)

func TestPriorityQueue(t *testing.T) {
	t.Run("MinHeap", func(t *testing.T) {
		pq := NewPriorityQueue(false)

		pq.PushItem(model.Candidate{ID: 1, Distance: 10})
		pq.PushItem(model.Candidate{ID: 2, Distance: 5})
		pq.PushItem(model.Candidate{ID: 3, Distance: 20})
		require.Equal(t, 3, pq.Len())

		top, ok := pq.TopItem()
		require.True(t, ok)
		assert.Equal(t, float32(5), top.Distance)

		for _, want := range []float32{5, 10, 20} {
			item, ok := pq.PopItem()
			require.True(t, ok)
			assert.Equal(t, want, item.Distance)
		}

		_, ok = pq.PopItem()
		assert.False(t, ok)
	})

	t.Run("MaxHeap", func(t *testing.T) {
		pq := NewPriorityQueue(true)

		pq.PushItem(model.Candidate{ID: 1, Distance: 10})
		pq.PushItem(model.Candidate{ID: 2, Distance: 5})
		pq.PushItem(model.Candidate{ID: 3, Distance: 20})

		for _, want := range []float32{20, 10, 5} {
			item, ok := pq.PopItem()
			require.True(t, ok)
			assert.Equal(t, want, item.Distance)
		}
	})

	t.Run("TieBreakByID", func(t *testing.T) {
		minHeap := NewPriorityQueue(false)
		maxHeap := NewPriorityQueue(true)
		for _, id := range []model.NodeID{7, 3, 5} {
			minHeap.PushItem(model.Candidate{ID: id, Distance: 1})
			maxHeap.PushItem(model.Candidate{ID: id, Distance: 1})
		}

		first, _ := minHeap.PopItem()
		assert.Equal(t, model.NodeID(3), first.ID)

		worst, _ := maxHeap.PopItem()
		assert.Equal(t, model.NodeID(7), worst.ID)
	})

	t.Run("Bounded", func(t *testing.T) {
		pq := NewPriorityQueue(true)

		assert.True(t, pq.PushItemBounded(model.Candidate{ID: 1, Distance: 10}, 2))
		assert.True(t, pq.PushItemBounded(model.Candidate{ID: 2, Distance: 20}, 2))
		assert.False(t, pq.PushItemBounded(model.Candidate{ID: 3, Distance: 30}, 2))
		assert.True(t, pq.PushItemBounded(model.Candidate{ID: 4, Distance: 5}, 2))
		// Equal distance, larger id loses.
		assert.False(t, pq.PushItemBounded(model.Candidate{ID: 9, Distance: 10}, 2))
		assert.False(t, pq.PushItemBounded(model.Candidate{ID: 0, Distance: 1}, 0))

		assert.Equal(t, 2, pq.Len())
		top, _ := pq.TopItem()
		assert.Equal(t, model.NodeID(1), top.ID)
	})

	t.Run("Random", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(7, 7))
		pq := NewPriorityQueue(false)
		for i := range 500 {
			pq.PushItem(model.Candidate{ID: model.NodeID(i), Distance: rng.Float32()})
		}

		prev, _ := pq.PopItem()
		for pq.Len() > 0 {
			item, _ := pq.PopItem()
			assert.False(t, item.Less(prev))
			prev = item
		}
	})
}

func TestVisitedSet(t *testing.T) {
	v := NewVisitedSet(64)
	ids := []model.NodeID{0, 1, 63, 64, 100, 1000}

	for _, id := range ids {
		assert.False(t, v.Visited(id))
	}
	for _, id := range ids {
		assert.True(t, v.Visit(id))
	}
	for _, id := range ids {
		assert.True(t, v.Visited(id))
		assert.False(t, v.Visit(id), "second visit of %d", id)
	}
	assert.False(t, v.Visited(2))
	assert.Equal(t, len(ids), v.Count())

	v.Reset()
	for _, id := range ids {
		assert.False(t, v.Visited(id))
	}
	assert.Zero(t, v.Count())

	v.EnsureCapacity(5000)
	assert.True(t, v.Visit(4999))
}

func TestSearcher(t *testing.T) {
	t.Run("DistanceCache", func(t *testing.T) {
		s := Get()
		defer Put(s)

		_, ok := s.Cached(4)
		assert.False(t, ok)

		s.Remember(4, 1.5)
		d, ok := s.Cached(4)
		require.True(t, ok)
		assert.Equal(t, float32(1.5), d)
		assert.Equal(t, 1, s.Scored)

		s.Visited.Visit(4)
		s.ResetLayer()
		assert.False(t, s.Visited.Visited(4))
		_, ok = s.Cached(4)
		assert.True(t, ok, "cache survives a layer reset")

		s.Reset()
		_, ok = s.Cached(4)
		assert.False(t, ok)
		assert.Zero(t, s.Scored)
	})

	t.Run("DrainAscending", func(t *testing.T) {
		s := NewSearcher(16, 8)
		s.EnsureCapacity(100, 32)
		for _, c := range []model.Candidate{{ID: 5, Distance: 3}, {ID: 2, Distance: 1}, {ID: 8, Distance: 1}, {ID: 1, Distance: 2}} {
			s.Results.PushItemBounded(c, 3)
		}

		got := s.DrainAscending(nil, 0)
		assert.Equal(t, []model.Candidate{{ID: 2, Distance: 1}, {ID: 8, Distance: 1}, {ID: 1, Distance: 2}}, got)
		assert.Zero(t, s.Results.Len())

		for _, c := range got {
			s.Results.PushItem(c)
		}
		prefix := []model.Candidate{{ID: 99, Distance: 0}}
		got = s.DrainAscending(prefix, 1)
		assert.Equal(t, []model.Candidate{{ID: 99, Distance: 0}, {ID: 2, Distance: 1}}, got)
	})
}
