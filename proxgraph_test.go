package proxgraph

import (
	"context"
	"errors"
	"math"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/proxgraph/distance"
	"github.com/hupe1980/proxgraph/model"
	"github.com/hupe1980/proxgraph/testutil"
)

func families() map[string][]Option {
	return map[string][]Option{
		"hnsw":   {WithFamily(FamilyHNSW), WithM(12), WithEFConstruction(100)},
		"vamana": {WithFamily(FamilyVamana), WithM(24), WithEFConstruction(100), WithSeeds(4)},
	}
}

func build(t testing.TB, dim int, vectors [][]float32, opts ...Option) *Index {
	t.Helper()

	idx, err := New(dim, opts...)
	require.NoError(t, err)

	res := idx.BatchInsert(context.Background(), vectors)
	require.Zero(t, res.Failed())
	require.Len(t, res.IDs, len(vectors))
	return idx
}

func meanRecall(t testing.TB, idx *Index, vectors, queries [][]float32, k, ef int, fn distance.Func) float64 {
	t.Helper()

	recalls := make([]float64, len(queries))
	for i, q := range queries {
		truth := testutil.BruteForceSearch(vectors, q, k, fn)
		res, err := idx.Search(context.Background(), q, k, ef)
		require.NoError(t, err)
		recalls[i] = testutil.ComputeRecall(truth, res)
	}
	return testutil.MeanRecall(recalls)
}

func TestNew(t *testing.T) {
	idx, err := New(8)
	require.NoError(t, err)

	assert.Equal(t, 8, idx.Dimension())
	assert.Equal(t, FamilyHNSW, idx.Family())
	assert.Equal(t, distance.MetricL2, idx.Metric())
	assert.Zero(t, idx.Len())

	idx, err = New(8, WithFamily(FamilyVamana))
	require.NoError(t, err)
	assert.Equal(t, FamilyVamana, idx.Family())
	assert.Equal(t, "64", idx.Stats().Parameters["M"])
}

func TestConfigurationErrors(t *testing.T) {
	tests := []struct {
		name  string
		dim   int
		opts  []Option
		field string
	}{
		{"zero dimension", 0, nil, "dimension"},
		{"zero m", 4, []Option{WithM(0)}, "m"},
		{"negative m", 4, []Option{WithM(-3)}, "m"},
		{"zero ef construction", 4, []Option{WithEFConstruction(0)}, "ef_construction"},
		{"ef construction below m", 4, []Option{WithM(32), WithEFConstruction(16)}, "ef_construction"},
		{"zero ef", 4, []Option{WithEF(0)}, "ef"},
		{"alpha below one", 4, []Option{WithAlpha(0.9)}, "alpha"},
		{"alpha nan", 4, []Option{WithAlpha(float32(math.NaN()))}, "alpha"},
		{"zero seeds", 4, []Option{WithFamily(FamilyVamana), WithSeeds(0)}, "seeds"},
		{"negative samples", 4, []Option{WithSeedStrategy(KSampled(-1))}, "seed_strategy"},
		{"bad angle", 4, []Option{WithStrategy(StrategyAngular), WithMinAngle(180)}, "min_angle"},
		{"zero budget", 4, []Option{WithMaxExpansions(0)}, "max_expansions"},
		{"zero workers", 4, []Option{WithSearchWorkers(0)}, "search_workers"},
		{"bad metric", 4, []Option{WithMetric(distance.Metric(42))}, "metric"},
		{"bad family", 4, []Option{WithFamily(Family(7))}, "family"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := New(tt.dim, tt.opts...)
			assert.Nil(t, idx)

			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestInsertValidation(t *testing.T) {
	ctx := context.Background()
	idx, err := New(3)
	require.NoError(t, err)

	_, err = idx.Insert(ctx, []float32{1, 2})
	var dm *ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 3, dm.Expected)
	assert.Equal(t, 2, dm.Actual)

	_, err = idx.Insert(ctx, []float32{1, float32(math.NaN()), 0})
	assert.ErrorIs(t, err, ErrNonFiniteValue)

	_, err = idx.Insert(ctx, []float32{1, float32(math.Inf(-1)), 0})
	assert.ErrorIs(t, err, ErrNonFiniteValue)

	// Rejected vectors leave no trace.
	assert.Zero(t, idx.Len())

	id, err := idx.Insert(ctx, []float32{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, model.NodeID(0), id)
}

func TestInsertCancelled(t *testing.T) {
	idx, err := New(2)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = idx.Insert(ctx, []float32{1, 2})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, idx.Len())
}

func TestInsertWithID(t *testing.T) {
	ctx := context.Background()
	idx, err := New(2)
	require.NoError(t, err)

	require.NoError(t, idx.InsertWithID(ctx, 0, []float32{0, 0}))
	require.NoError(t, idx.InsertWithID(ctx, 1, []float32{1, 0}))

	err = idx.InsertWithID(ctx, 5, []float32{2, 0})
	assert.ErrorIs(t, err, ErrIDHint)
	assert.Equal(t, 2, idx.Len())

	id, err := idx.Insert(ctx, []float32{3, 0})
	require.NoError(t, err)
	assert.Equal(t, model.NodeID(2), id)
}

func TestSearchErrors(t *testing.T) {
	ctx := context.Background()
	idx, err := New(2)
	require.NoError(t, err)

	_, err = idx.Search(ctx, []float32{0, 0}, 3, 10)
	assert.ErrorIs(t, err, ErrEmptyIndex)

	_, err = idx.Insert(ctx, []float32{0, 0})
	require.NoError(t, err)

	_, err = idx.Search(ctx, []float32{0, 0}, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = idx.Search(ctx, []float32{0, 0, 0}, 1, 10)
	var dm *ErrDimensionMismatch
	assert.ErrorAs(t, err, &dm)

	_, err = idx.Search(ctx, []float32{float32(math.Inf(1)), 0}, 1, 10)
	assert.ErrorIs(t, err, ErrNonFiniteValue)

	_, err = idx.BruteSearch(ctx, []float32{0, 0}, 0)
	assert.ErrorIs(t, err, ErrInvalidK)
}

func TestFourPoints(t *testing.T) {
	ctx := context.Background()
	points := [][]float32{{0, 0}, {1, 0}, {0, 1}, {1, 1}}

	for name, opts := range map[string][]Option{
		"hnsw":   {WithFamily(FamilyHNSW), WithM(2), WithEFConstruction(4)},
		"vamana": {WithFamily(FamilyVamana), WithM(2), WithEFConstruction(4), WithSeeds(1)},
	} {
		t.Run(name, func(t *testing.T) {
			idx := build(t, 2, points, opts...)

			res, err := idx.Search(ctx, []float32{0.9, 0.9}, 1, 4)
			require.NoError(t, err)
			require.Len(t, res, 1)
			assert.Equal(t, model.NodeID(3), res[0].ID)
			assert.InDelta(t, 0.02, res[0].Distance, 1e-6)

			first, err := idx.Query([]float32{0.1, 0.1}).EF(4).First(ctx)
			require.NoError(t, err)
			assert.Equal(t, model.NodeID(0), first.ID)
		})
	}
}

func TestSingleNode(t *testing.T) {
	ctx := context.Background()
	for name, opts := range families() {
		t.Run(name, func(t *testing.T) {
			idx := build(t, 3, [][]float32{{1, 2, 3}}, opts...)

			res, err := idx.Search(ctx, []float32{9, 9, 9}, 5, 0)
			require.NoError(t, err)
			require.Len(t, res, 1)
			assert.Equal(t, model.NodeID(0), res[0].ID)
		})
	}
}

func TestRecall(t *testing.T) {
	const (
		n   = 2000
		dim = 32
		k   = 10
	)

	rng := testutil.NewRNG(7)
	vectors := rng.UniformVectors(n, dim)
	queries := rng.UniformVectors(50, dim)

	for name, opts := range families() {
		t.Run(name, func(t *testing.T) {
			idx := build(t, dim, vectors, opts...)
			recall := meanRecall(t, idx, vectors, queries, k, 100, distance.SquaredL2)
			assert.GreaterOrEqual(t, recall, 0.9, "recall@%d", k)
		})
	}
}

func TestRecallLarge(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large recall test in short mode")
	}

	const (
		n   = 10000
		dim = 128
		k   = 10
	)

	rng := testutil.NewRNG(4711)
	vectors := rng.UniformVectors(n, dim)
	queries := rng.UniformVectors(100, dim)

	// DefaultEF trades recall for latency at this scale; 0.9 needs ef ~200.
	idx := build(t, dim, vectors, WithM(16), WithEFConstruction(200))
	recall := meanRecall(t, idx, vectors, queries, k, 200, distance.SquaredL2)
	assert.GreaterOrEqual(t, recall, 0.9)

	assert.Greater(t, recall, meanRecall(t, idx, vectors, queries, k, 0, distance.SquaredL2))
}

func TestDuplicateHeavyData(t *testing.T) {
	const distinct = 40
	rng := testutil.NewRNG(77)
	base := rng.UniformVectors(distinct, 8)

	vectors := make([][]float32, 2000)
	for i := range vectors {
		vectors[i] = base[rng.Intn(distinct)]
	}

	configs := map[string][]Option{
		"hnsw-defaults":   {WithFamily(FamilyHNSW)},
		"hnsw-m8":         {WithFamily(FamilyHNSW), WithM(8)},
		"vamana-defaults": {WithFamily(FamilyVamana)},
		"vamana-r16":      {WithFamily(FamilyVamana), WithM(16)},
	}

	for name, opts := range configs {
		t.Run(name, func(t *testing.T) {
			idx := build(t, 8, vectors, opts...)

			report := idx.Check()
			assert.True(t, report.OK(), report.String())

			for i, q := range base {
				res, err := idx.Search(context.Background(), q, 1, 0)
				require.NoError(t, err)
				require.Len(t, res, 1)
				assert.Zero(t, res[0].Distance, "point %d", i)
			}
		})
	}
}

func TestCosine(t *testing.T) {
	rng := testutil.NewRNG(11)
	vectors := rng.GaussianVectors(1000, 16)
	queries := rng.GaussianVectors(20, 16)

	idx := build(t, 16, vectors, WithMetric(distance.MetricCosine), WithM(12), WithEFConstruction(100))

	// Stored vectors are normalized.
	v, err := idx.Vector(0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, math.Sqrt(float64(distance.Dot(v, v))), 1e-5)

	recall := meanRecall(t, idx, vectors, queries, 10, 100, distance.Cosine)
	assert.GreaterOrEqual(t, recall, 0.9)
}

func TestCustomDistance(t *testing.T) {
	manhattan := func(a, b []float32) float32 {
		var sum float32
		for i := range a {
			sum += float32(math.Abs(float64(a[i] - b[i])))
		}
		return sum
	}

	rng := testutil.NewRNG(3)
	vectors := rng.UniformVectors(500, 8)
	idx := build(t, 8, vectors, WithDistanceFunc(manhattan), WithM(8), WithEFConstruction(64))

	assert.Equal(t, "custom", idx.Stats().Options["Metric"])
	recall := meanRecall(t, idx, vectors, rng.UniformVectors(20, 8), 5, 64, manhattan)
	assert.GreaterOrEqual(t, recall, 0.9)
}

func TestBudget(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(5)
	vectors := rng.UniformVectors(300, 8)

	metrics := &BasicMetricsCollector{}
	idx := build(t, 8, vectors, WithM(8), WithEFConstruction(32), WithMetricsCollector(metrics))

	res, err := idx.Query(vectors[17]).KNN(10).EF(50).Budget(1).Execute(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, res)
	assert.LessOrEqual(t, len(res), 10)

	full, err := idx.Query(vectors[17]).KNN(10).EF(50).Execute(ctx)
	require.NoError(t, err)
	assert.Len(t, full, 10)
	assert.Equal(t, model.NodeID(17), full[0].ID)

	stats := metrics.GetStats()
	assert.Equal(t, int64(2), stats.SearchCount)
	assert.Positive(t, stats.SearchAvgExpanded)
}

func TestDeterminism(t *testing.T) {
	rng := testutil.NewRNG(21)
	vectors := rng.UniformVectors(400, 8)

	for name, opts := range families() {
		t.Run(name, func(t *testing.T) {
			a := build(t, 8, vectors, append(opts, WithSeed(99))...)
			b := build(t, 8, vectors, append(opts, WithSeed(99))...)

			assert.Equal(t, slices.Collect(a.Export()), slices.Collect(b.Export()))
		})
	}
}

func TestIdempotentSearch(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(8)
	vectors := rng.UniformVectors(500, 8)
	q := rng.UniformVectors(1, 8)[0]

	idx := build(t, 8, vectors, WithFamily(FamilyVamana), WithM(16), WithEFConstruction(64), WithSeeds(8))

	first, err := idx.Search(ctx, q, 10, 40)
	require.NoError(t, err)
	for range 5 {
		again, err := idx.Search(ctx, q, 10, 40)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestExportInvariants(t *testing.T) {
	rng := testutil.NewRNG(13)
	vectors := rng.UniformVectors(600, 8)

	for name, opts := range families() {
		t.Run(name, func(t *testing.T) {
			idx := build(t, 8, vectors, opts...)
			levels := make(map[model.NodeID]int)

			count := 0
			for adj := range idx.Export() {
				count++
				levels[adj.Node] = adj.Level
				assert.LessOrEqual(t, adj.Layer, adj.Level)
				assert.NotContains(t, adj.Neighbors, adj.Node)

				sorted := slices.Clone(adj.Neighbors)
				slices.Sort(sorted)
				assert.Len(t, slices.Compact(sorted), len(adj.Neighbors))
			}
			assert.Len(t, levels, len(vectors))
			assert.GreaterOrEqual(t, count, len(vectors))

			report := idx.Check()
			assert.True(t, report.OK(), report.String())
		})
	}
}

func TestRefine(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(17)
	vectors := rng.UniformVectors(1000, 16)
	queries := rng.UniformVectors(30, 16)

	metrics := &BasicMetricsCollector{}
	idx := build(t, 16, vectors,
		WithFamily(FamilyVamana), WithM(24), WithEFConstruction(64), WithAlpha(1.2),
		WithMetricsCollector(metrics))

	require.NoError(t, idx.Refine(ctx))
	assert.True(t, idx.Check().OK())
	assert.Equal(t, int64(1), metrics.GetStats().RefineCount)

	recall := meanRecall(t, idx, vectors, queries, 10, 80, distance.SquaredL2)
	assert.GreaterOrEqual(t, recall, 0.9)
}

func TestBatchInsert(t *testing.T) {
	ctx := context.Background()
	metrics := &BasicMetricsCollector{}
	idx, err := New(2, WithMetricsCollector(metrics))
	require.NoError(t, err)

	res := idx.BatchInsert(ctx, [][]float32{{0, 0}, {1}, {1, 1}, {float32(math.NaN()), 0}, {2, 2}})
	assert.Equal(t, []model.NodeID{0, 1, 2}, res.IDs)
	assert.Equal(t, 2, res.Failed())
	assert.NoError(t, res.Errors[0])

	var dm *ErrDimensionMismatch
	assert.ErrorAs(t, res.Errors[1], &dm)
	assert.ErrorIs(t, res.Errors[3], ErrNonFiniteValue)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.BatchInsertCount)
	assert.Equal(t, int64(5), stats.BatchInsertItems)
	assert.Equal(t, int64(2), stats.BatchInsertFailed)
}

func TestBatchInsertCancelled(t *testing.T) {
	idx, err := New(2)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := idx.BatchInsert(ctx, [][]float32{{0, 0}, {1, 1}})
	assert.Empty(t, res.IDs)
	for _, err := range res.Errors {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestSearchBatch(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(23)
	vectors := rng.UniformVectors(500, 8)

	idx := build(t, 8, vectors, WithM(8), WithEFConstruction(64), WithSearchWorkers(4))

	queries := vectors[:20]
	all, err := idx.SearchBatch(ctx, queries, 5, 50)
	require.NoError(t, err)
	require.Len(t, all, len(queries))

	for i, res := range all {
		single, err := idx.Search(ctx, queries[i], 5, 50)
		require.NoError(t, err)
		assert.Equal(t, single, res)
	}

	_, err = idx.SearchBatch(ctx, [][]float32{vectors[0], {1, 2}}, 5, 50)
	var dm *ErrDimensionMismatch
	assert.ErrorAs(t, err, &dm)
}

func TestConcurrentInsertAndSearch(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(31)
	vectors := rng.UniformVectors(800, 8)

	idx := build(t, 8, vectors[:100], WithM(8), WithEFConstruction(32))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, v := range vectors[100:] {
			_, err := idx.Insert(ctx, v)
			assert.NoError(t, err)
		}
	}()

	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				res, err := idx.Search(ctx, vectors[(w*100+i)%100], 5, 20)
				if !assert.NoError(t, err) {
					return
				}
				assert.True(t, slices.IsSortedFunc(res, model.CompareCandidates))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, len(vectors), idx.Len())
	assert.True(t, idx.Check().OK())
}

func TestVector(t *testing.T) {
	ctx := context.Background()
	idx, err := New(2)
	require.NoError(t, err)

	_, err = idx.Insert(ctx, []float32{1, 2})
	require.NoError(t, err)

	v, err := idx.Vector(0)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, v)

	// The copy is detached from the index.
	v[0] = 99
	again, _ := idx.Vector(0)
	assert.Equal(t, []float32{1, 2}, again)

	_, err = idx.Vector(1)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStream(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(2)
	vectors := rng.UniformVectors(200, 4)
	idx := build(t, 4, vectors, WithM(8), WithEFConstruction(32))

	var got []Result
	for r, err := range idx.Query(vectors[3]).KNN(10).Stream(ctx) {
		require.NoError(t, err)
		got = append(got, r)
		if len(got) == 3 {
			break
		}
	}
	require.Len(t, got, 3)
	assert.Equal(t, model.NodeID(3), got[0].ID)

	for _, err := range idx.Query([]float32{1}).Stream(ctx) {
		assert.Error(t, err)
	}
}
