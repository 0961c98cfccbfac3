// Package graph implements the proximity graph shared by the HNSW and Vamana
// index families.
//
// One traversal and pruning core serves both families. A LayerPolicy decides
// what differs between them:
//
//   - Hierarchical: geometric levels with mL = 1/ln(M), bound M on upper
//     layers and 2M on layer 0, a single top-level entry point.
//   - Flat: one layer with bound R, a fixed entry point plus S random seeds.
//
// # Insertion
//
// A new node descends the upper layers with a frontier of one, then on each
// of its layers runs a beam search of width EFConstruction, keeps a diverse
// subset with RobustPrune and links back to every kept neighbor. A neighbor
// pushed over its bound is re-pruned over its bound+1 candidates using cached
// distances. Evictions are one-directional; a node left without incoming
// edges on an upper layer is re-linked from its nearest out-neighbor.
//
// # Connectivity
//
// Layer 0 carries a spanning tree rooted at the entry point: every other node
// keeps the edge from its tree parent. Re-pruning a parent re-attaches the
// evicted child elsewhere, and a new entry point becomes the root with the
// old root below it. Every node therefore stays reachable from the entry
// point, even on heavily duplicated data.
//
// # Search
//
// Each call owns a pooled searcher (frontier, bounded results, visited set,
// distance cache). MaxExpansions caps the distance evaluations of a call.
//
// # Reference
//
// Malkov & Yashunin, "Efficient and robust approximate nearest neighbor search
// using Hierarchical Navigable Small World graphs", IEEE TPAMI 2018.
// Subramanya et al., "DiskANN: Fast Accurate Billion-point Nearest Neighbor
// Search on a Single Node", NeurIPS 2019.
package graph
