// Package searcher provides the pooled candidate frontier used by graph
// traversal.
//
// The Searcher struct owns all reusable resources needed for one call:
//   - Priority queues (frontier min-heap, bounded result max-heap)
//   - Visited set (bitset with dirty list)
//   - Distance cache and the scored-node counter that enforces the budget
//
// Searchers are pooled with sync.Pool; each concurrent search owns its own.
package searcher
