// Package vectorstore provides the in-memory vector arena backing an index.
//
// Vectors are stored contiguously (Structure-of-Arrays layout) and addressed
// by dense node id, so lookups are O(1) and sequential scans are cache
// friendly:
//
//	store := vectorstore.New(128, distance.SquaredL2, false)
//	id, err := store.Append(vec)
//	d := store.Distance(id, query)
//
// # Concurrency
//
// The store is safe for concurrent read access. Append requires external
// synchronization.
package vectorstore
