package searcher

import (
	"github.com/hupe1980/proxgraph/model"
)

// PriorityQueue implements a binary heap of candidates ordered by
// (distance, id). Storage is value-based for cache locality; it does NOT
// implement container/heap to avoid interface overhead.
type PriorityQueue struct {
	isMaxHeap bool // true = max heap, false = min heap
	items     []model.Candidate
}

// NewPriorityQueue creates a new priority queue.
func NewPriorityQueue(isMaxHeap bool) *PriorityQueue {
	return &PriorityQueue{
		isMaxHeap: isMaxHeap,
		items:     make([]model.Candidate, 0, 16),
	}
}

// Reset clears the priority queue for reuse.
func (pq *PriorityQueue) Reset() {
	pq.items = pq.items[:0]
}

// Grow makes room for at least n items without reallocating.
func (pq *PriorityQueue) Grow(n int) {
	if cap(pq.items) < n {
		items := make([]model.Candidate, len(pq.items), n)
		copy(items, pq.items)
		pq.items = items
	}
}

// TopItem returns the top element of the heap.
func (pq *PriorityQueue) TopItem() (model.Candidate, bool) {
	if len(pq.items) == 0 {
		return model.Candidate{}, false
	}
	return pq.items[0], true
}

// PushItem inserts an item while maintaining the heap invariant.
func (pq *PriorityQueue) PushItem(item model.Candidate) {
	pq.items = append(pq.items, item)
	pq.siftUp(len(pq.items) - 1)
}

// PushItemBounded inserts an item into a max heap that keeps the capacity
// best (smallest) items. Returns false if the item was rejected.
func (pq *PriorityQueue) PushItemBounded(item model.Candidate, capacity int) bool {
	if capacity <= 0 {
		return false
	}
	if len(pq.items) < capacity {
		pq.PushItem(item)
		return true
	}

	// Heap is full: the top is the worst kept candidate.
	if item.Less(pq.items[0]) {
		pq.items[0] = item
		pq.siftDown(0)
		return true
	}
	return false
}

// PopItem removes and returns the top element from the heap.
func (pq *PriorityQueue) PopItem() (model.Candidate, bool) {
	n := len(pq.items)
	if n == 0 {
		return model.Candidate{}, false
	}

	item := pq.items[0]
	pq.items[0] = pq.items[n-1]
	pq.items = pq.items[:n-1]

	if len(pq.items) > 0 {
		pq.siftDown(0)
	}

	return item, true
}

// Len returns the number of elements in the heap.
func (pq *PriorityQueue) Len() int {
	return len(pq.items)
}

// Less reports whether the element with index i should sort before the element with index j.
func (pq *PriorityQueue) Less(i, j int) bool {
	if pq.isMaxHeap {
		return pq.items[j].Less(pq.items[i])
	}
	return pq.items[i].Less(pq.items[j])
}

// Swap swaps the elements with indexes i and j.
func (pq *PriorityQueue) Swap(i, j int) {
	pq.items[i], pq.items[j] = pq.items[j], pq.items[i]
}

func (pq *PriorityQueue) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !pq.Less(i, parent) {
			break
		}
		pq.Swap(i, parent)
		i = parent
	}
}

func (pq *PriorityQueue) siftDown(i int) {
	n := len(pq.items)
	for {
		left := 2*i + 1
		if left >= n {
			break
		}
		child := left
		right := left + 1
		if right < n && pq.Less(right, left) {
			child = right
		}
		if !pq.Less(child, i) {
			break
		}
		pq.Swap(i, child)
		i = child
	}
}
