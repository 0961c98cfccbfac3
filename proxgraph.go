package proxgraph

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hupe1980/proxgraph/distance"
	"github.com/hupe1980/proxgraph/internal/graph"
	"github.com/hupe1980/proxgraph/internal/vectorstore"
	"github.com/hupe1980/proxgraph/model"
)

// Result is one search hit: a node id and its distance to the query.
type Result = model.Candidate

// Stats holds statistics about the graph.
type Stats = graph.Stats

// LevelStats describes one layer of the graph.
type LevelStats = graph.LevelStats

// Report summarizes an invariant check of the graph.
type Report = graph.Report

// progressInterval is the minimum time between batch progress log lines.
const progressInterval = 2 * time.Second

// Index is an in-memory approximate nearest neighbor index over a proximity
// graph.
//
// Index is safe for concurrent use: inserts and refinement are exclusive,
// searches run in parallel with each other.
type Index struct {
	mu sync.RWMutex

	dimension int
	opts      options
	store     *vectorstore.Store
	graph     *graph.Graph

	logger   *Logger
	metrics  MetricsCollector
	progress rate.Sometimes
}

// New creates an empty index for vectors of the given dimension. Invalid
// configuration fails with a *ConfigurationError.
//
// Example:
//
//	idx, err := proxgraph.New(128,
//	    proxgraph.WithFamily(proxgraph.FamilyVamana),
//	    proxgraph.WithM(32),
//	    proxgraph.WithAlpha(1.2),
//	)
func New(dimension int, optFns ...Option) (*Index, error) {
	o := defaultOptions(FamilyHNSW)
	for _, fn := range optFns {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metrics == nil {
		o.metrics = NoopMetricsCollector{}
	}

	if err := o.validate(dimension); err != nil {
		return nil, err
	}

	fn, normalize := o.distanceFunc, false
	if fn == nil {
		fn, _ = distance.Provider(o.metric)
		normalize = o.metric.NeedsNormalization()
	}

	logger := o.logger.WithFamily(o.family)
	o.logger = logger

	store := vectorstore.New(dimension, fn, normalize)
	g, err := graph.New(store, o.policy(), o.graphOptions())
	if err != nil {
		return nil, translateError(err)
	}

	return &Index{
		dimension: dimension,
		opts:      o,
		store:     store,
		graph:     g,
		logger:    logger,
		metrics:   o.metrics,
		progress:  rate.Sometimes{Interval: progressInterval},
	}, nil
}

// Insert adds a vector and returns its id. Ids are dense and assigned in
// insertion order starting at 0. Invalid vectors are rejected before any
// mutation.
func (idx *Index) Insert(ctx context.Context, vector []float32) (model.NodeID, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	idx.mu.Lock()
	id, err := idx.graph.Insert(vector)
	idx.mu.Unlock()

	err = translateError(err)
	idx.metrics.RecordInsert(time.Since(start), err)
	idx.logger.LogInsert(ctx, uint32(id), len(vector), err)
	return id, err
}

// InsertWithID inserts a vector under a caller-supplied id. Ids stay dense,
// so hint must equal the id the index would assign next (Len()).
func (idx *Index) InsertWithID(ctx context.Context, hint model.NodeID, vector []float32) error {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return err
	}

	idx.mu.Lock()
	var err error
	if next := idx.graph.Len(); int(hint) != next {
		err = fmt.Errorf("%w: got %d, next is %d", ErrIDHint, hint, next)
	} else {
		_, err = idx.graph.Insert(vector)
	}
	idx.mu.Unlock()

	err = translateError(err)
	idx.metrics.RecordInsert(time.Since(start), err)
	idx.logger.LogInsert(ctx, uint32(hint), len(vector), err)
	return err
}

// BatchInsertResult reports the outcome of a batch insert per item.
type BatchInsertResult struct {
	IDs    []model.NodeID // IDs of successfully inserted items
	Errors []error        // Errors per input item (nil for successful)
}

// Failed returns the number of items that were not inserted.
func (r BatchInsertResult) Failed() int {
	n := 0
	for _, err := range r.Errors {
		if err != nil {
			n++
		}
	}
	return n
}

// BatchInsert inserts vectors in order under a single writer lock. A failing
// item does not abort the batch. Cancelling ctx fails the remaining items
// with the context error.
func (idx *Index) BatchInsert(ctx context.Context, vectors [][]float32) BatchInsertResult {
	start := time.Now()
	result := BatchInsertResult{
		IDs:    make([]model.NodeID, 0, len(vectors)),
		Errors: make([]error, len(vectors)),
	}

	idx.mu.Lock()
	idx.store.Grow(len(vectors))
	for i, v := range vectors {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(vectors); j++ {
				result.Errors[j] = err
			}
			break
		}

		id, err := idx.graph.Insert(v)
		if err != nil {
			result.Errors[i] = translateError(err)
			continue
		}
		result.IDs = append(result.IDs, id)

		idx.progress.Do(func() {
			idx.logger.LogBatchProgress(ctx, i+1, len(vectors))
		})
	}
	idx.mu.Unlock()

	failed := result.Failed()
	duration := time.Since(start)
	idx.metrics.RecordBatchInsert(len(vectors), failed, duration)
	idx.logger.LogBatchInsert(ctx, len(vectors), failed, duration)
	return result
}

// Search returns up to k nearest neighbors of query in ascending distance
// order. ef is the frontier width: values below k are raised to k and values
// <= 0 select the configured default.
func (idx *Index) Search(ctx context.Context, query []float32, k, ef int) ([]Result, error) {
	return idx.search(ctx, query, k, ef, 0)
}

func (idx *Index) search(ctx context.Context, query []float32, k, ef, budget int) ([]Result, error) {
	start := time.Now()

	results, expanded, err := idx.searchLocked(ctx, query, k, ef, budget)

	idx.metrics.RecordSearch(k, expanded, time.Since(start), err)
	idx.logger.LogSearch(ctx, k, len(results), expanded, err)
	return results, err
}

func (idx *Index) searchLocked(ctx context.Context, query []float32, k, ef, budget int) ([]Result, int, error) {
	if k <= 0 {
		return nil, 0, ErrInvalidK
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	q, err := idx.store.PrepareQuery(query, nil)
	if err != nil {
		return nil, 0, translateError(err)
	}
	if idx.graph.Len() == 0 {
		return nil, 0, ErrEmptyIndex
	}
	if ef <= 0 {
		ef = idx.opts.ef
	}

	results, expanded := idx.graph.Search(q, k, ef, budget)
	return results, expanded, nil
}

// SearchBatch runs one search per query in parallel, bounded by the
// configured number of search workers. results[i] answers queries[i]. The
// first failing query cancels the rest and its error is returned.
func (idx *Index) SearchBatch(ctx context.Context, queries [][]float32, k, ef int) ([][]Result, error) {
	results := make([][]Result, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.opts.searchWorkers)

	for i, q := range queries {
		g.Go(func() error {
			res, err := idx.Search(gctx, q, k, ef)
			if err != nil {
				return fmt.Errorf("query %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// BruteSearch performs an exact scan over every stored vector. It is the
// ground truth for recall measurements.
func (idx *Index) BruteSearch(ctx context.Context, query []float32, k int) ([]Result, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	q, err := idx.store.PrepareQuery(query, nil)
	if err != nil {
		return nil, translateError(err)
	}
	if idx.graph.Len() == 0 {
		return nil, ErrEmptyIndex
	}
	return idx.graph.BruteSearch(q, k), nil
}

// Export yields the adjacency of every (node, layer) pair. The read lock is
// held while the sequence is consumed, so inserts block until iteration ends.
func (idx *Index) Export() iter.Seq[model.Adjacency] {
	return func(yield func(model.Adjacency) bool) {
		idx.mu.RLock()
		defer idx.mu.RUnlock()

		for adj := range idx.graph.Export() {
			if !yield(adj) {
				return
			}
		}
	}
}

// Refine re-prunes the base layer of the whole graph, first with the
// configured alpha and then with alpha = 1. For the Vamana family the entry
// point moves to the medoid of the data first. Refine is a build-phase step
// and excludes all other operations while it runs.
func (idx *Index) Refine(ctx context.Context) error {
	start := time.Now()

	idx.mu.Lock()
	err := idx.graph.Refine(ctx)
	n := idx.graph.Len()
	idx.mu.Unlock()

	duration := time.Since(start)
	idx.metrics.RecordRefine(duration, err)
	idx.logger.LogRefine(ctx, n, duration, err)
	return err
}

// Vector returns a copy of the stored vector for id. Cosine indexes return
// the normalized form.
func (idx *Index) Vector(id model.NodeID) ([]float32, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if int(id) >= idx.store.Len() {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return slices.Clone(idx.store.Vector(id)), nil
}

// Len returns the number of stored vectors.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.graph.Len()
}

// Dimension returns the configured vector dimension.
func (idx *Index) Dimension() int {
	return idx.dimension
}

// Family returns the graph family.
func (idx *Index) Family() Family {
	return idx.opts.family
}

// Metric returns the configured metric. It is meaningless when a custom
// distance function was installed.
func (idx *Index) Metric() distance.Metric {
	return idx.opts.metric
}

// Stats returns statistics about the graph.
func (idx *Index) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	s := idx.graph.Stats()
	s.Options["Family"] = idx.opts.family.String()
	s.Options["Metric"] = idx.opts.metric.String()
	if idx.opts.distanceFunc != nil {
		s.Options["Metric"] = "custom"
	}
	s.Parameters["M"] = fmt.Sprintf("%d", idx.opts.m)
	s.Parameters["EF"] = fmt.Sprintf("%d", idx.opts.ef)
	if idx.opts.family == FamilyVamana {
		s.Parameters["Seeds"] = fmt.Sprintf("%d", idx.opts.seeds)
	} else {
		s.Parameters["SeedSamples"] = fmt.Sprintf("%d", idx.opts.seedStrategy.K)
	}
	return s
}

// Check verifies the graph invariants and reachability from the entry point.
func (idx *Index) Check() Report {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.graph.Check()
}
