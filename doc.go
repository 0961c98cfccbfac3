// Package proxgraph provides an in-memory approximate nearest neighbor (ANN)
// index over dense float32 vectors.
//
// Two proximity graph families share one traversal and pruning core:
//
//   - HNSW: a hierarchy of layers with geometric level assignment. Searches
//     descend greedily through the upper layers and run a beam search on the
//     base layer.
//   - Vamana: a single alpha-pruned layer searched from a fixed entry point
//     plus a few random seeds.
//
// # Quick Start
//
//	idx, _ := proxgraph.HNSW(128).M(16).EFConstruction(200).Build()
//	id, _ := idx.Insert(ctx, vector)
//	results, _ := idx.Search(ctx, query, 10, 100)
//	for _, r := range results {
//	    fmt.Println(r.ID, r.Distance)
//	}
//
// Batch loading and parallel querying:
//
//	res := idx.BatchInsert(ctx, vectors)
//	_ = idx.Refine(ctx) // optional second pass, mostly useful for Vamana
//	all, _ := idx.SearchBatch(ctx, queries, 10, 100)
//
// # Concurrency
//
// Index guards the graph with a reader/writer lock: inserts and Refine are
// exclusive, searches run in parallel.
//
// # Determinism
//
// Ids are dense and assigned in insertion order. Two indexes built with the
// same options, seed and insertion order have identical graphs, and a query
// always returns the same result on an unchanged index.
package proxgraph
