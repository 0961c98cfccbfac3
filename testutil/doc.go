// Package testutil provides testing utilities for proxgraph.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random vectors, computing exact
// nearest neighbors, and verifying search recall.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	data := rng.UniformVectors(1000, 128)   // uniform [0, 1)
//	unit := rng.UnitVectors(1000, 128)      // on the hypersphere
//
// # Exact Search (Ground Truth)
//
//	truth := testutil.BruteForceSearch(data, query, k, distance.SquaredL2)
//
// # Recall Verification
//
//	recall := testutil.ComputeRecall(truth, approx)
//	mean := testutil.MeanRecall(recalls)
package testutil
