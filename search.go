// Package proxgraph provides an in-memory approximate nearest neighbor index.
//
// This file implements a fluent search API for querying indexes.
package proxgraph

import (
	"context"
	"iter"
)

// Query creates a new fluent search builder for the given query vector.
//
// Example:
//
//	results, err := idx.Query(query).
//	    KNN(10).
//	    EF(100).
//	    Execute(ctx)
//
//	// Or with streaming:
//	for result, err := range idx.Query(query).KNN(100).Stream(ctx) {
//	    if err != nil { break }
//	    if result.Distance > threshold { break }
//	    process(result)
//	}
func (idx *Index) Query(query []float32) *SearchBuilder {
	return &SearchBuilder{
		idx:   idx,
		query: query,
		k:     10, // Default k
	}
}

// SearchBuilder is a fluent builder for constructing search queries.
type SearchBuilder struct {
	idx    *Index
	query  []float32
	k      int
	ef     int
	budget int
}

// KNN sets the number of nearest neighbors to return.
func (sb *SearchBuilder) KNN(k int) *SearchBuilder {
	sb.k = k
	return sb
}

// EF sets the frontier width. Higher values improve recall but slow down
// search. Values below k are raised to k.
func (sb *SearchBuilder) EF(ef int) *SearchBuilder {
	sb.ef = ef
	return sb
}

// Budget caps the number of distance evaluations of this query. Values <= 0
// use the index ceiling. Seeds are always scored, so a budget of 1 still
// returns the entry point.
func (sb *SearchBuilder) Budget(n int) *SearchBuilder {
	sb.budget = n
	return sb
}

// Execute runs the search and returns the results.
func (sb *SearchBuilder) Execute(ctx context.Context) ([]Result, error) {
	return sb.idx.search(ctx, sb.query, sb.k, sb.ef, sb.budget)
}

// MustExecute runs the search, panicking on error.
// Use this only in tests or when you're certain the query is valid.
func (sb *SearchBuilder) MustExecute(ctx context.Context) []Result {
	results, err := sb.Execute(ctx)
	if err != nil {
		panic(err)
	}
	return results
}

// Stream returns an iterator over search results, nearest first.
// The iterator supports early termination by breaking from the loop.
func (sb *SearchBuilder) Stream(ctx context.Context) iter.Seq2[Result, error] {
	return func(yield func(Result, error) bool) {
		results, err := sb.Execute(ctx)
		if err != nil {
			yield(Result{}, err)
			return
		}
		for _, r := range results {
			if !yield(r, nil) {
				return
			}
		}
	}
}

// First returns the nearest neighbor only.
func (sb *SearchBuilder) First(ctx context.Context) (Result, error) {
	results, err := sb.KNN(1).Execute(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(results) == 0 {
		return Result{}, ErrNotFound
	}
	return results[0], nil
}
