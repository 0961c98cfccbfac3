// Package proxgraph provides an in-memory approximate nearest neighbor index.
//
// This file implements family-specific fluent builder APIs for creating and configuring indexes.
// Builders are immutable - each method returns a new builder with the updated configuration.
package proxgraph

import (
	"github.com/hupe1980/proxgraph/distance"
)

// =============================================================================
// HNSW Builder (Immutable)
// =============================================================================

// HNSW creates a new HNSW index builder with the specified dimension.
// HNSW keeps a hierarchy of layers; searches descend greedily through the
// sparse upper layers before a beam search on the base layer.
//
// The builder is immutable - each method returns a new builder with the updated configuration.
// This ensures thread-safety and prevents accidental state sharing.
//
// Example:
//
//	idx, err := proxgraph.HNSW(128).
//	    SquaredL2().
//	    M(32).
//	    EFConstruction(200).
//	    Build()
func HNSW(dimension int) HNSWBuilder {
	return HNSWBuilder{builder{
		dimension: dimension,
		opts:      []Option{WithFamily(FamilyHNSW)},
	}}
}

// HNSWBuilder is an immutable fluent builder for HNSW indexes.
type HNSWBuilder struct {
	builder
}

// SquaredL2 sets the distance metric to squared Euclidean distance.
func (b HNSWBuilder) SquaredL2() HNSWBuilder { return HNSWBuilder{b.with(WithMetric(distance.MetricL2))} }

// Cosine sets the distance metric to cosine distance. Vectors are normalized.
func (b HNSWBuilder) Cosine() HNSWBuilder { return HNSWBuilder{b.with(WithMetric(distance.MetricCosine))} }

// DotProduct sets the distance metric to negative inner product.
func (b HNSWBuilder) DotProduct() HNSWBuilder {
	return HNSWBuilder{b.with(WithMetric(distance.MetricDot))}
}

// DistanceFunc installs a custom distance function.
func (b HNSWBuilder) DistanceFunc(fn distance.Func) HNSWBuilder {
	return HNSWBuilder{b.with(WithDistanceFunc(fn))}
}

// M sets the maximum number of connections per upper layer. Layer 0 allows
// 2*M. Higher values improve recall but increase memory usage.
// Default: 16. Recommended range: 8-64.
func (b HNSWBuilder) M(m int) HNSWBuilder { return HNSWBuilder{b.with(WithM(m))} }

// EFConstruction sets the frontier width used during index construction.
// Higher values improve index quality but slow down indexing.
// Default: 200. Must not be below M.
//
// Note: This is different from search-time EF, which is set via EF() or per query.
func (b HNSWBuilder) EFConstruction(ef int) HNSWBuilder {
	return HNSWBuilder{b.with(WithEFConstruction(ef))}
}

// EF sets the default search frontier width.
func (b HNSWBuilder) EF(ef int) HNSWBuilder { return HNSWBuilder{b.with(WithEF(ef))} }

// Alpha sets the diversification factor. 1 is the classic HNSW heuristic.
func (b HNSWBuilder) Alpha(alpha float32) HNSWBuilder { return HNSWBuilder{b.with(WithAlpha(alpha))} }

// SeedStrategy selects how the base layer is seeded: Stacked (default) or
// KSampled(k).
func (b HNSWBuilder) SeedStrategy(s SeedStrategy) HNSWBuilder {
	return HNSWBuilder{b.with(WithSeedStrategy(s))}
}

// Angular switches to the angle-based diversification rule.
func (b HNSWBuilder) Angular(minAngle float64) HNSWBuilder {
	return HNSWBuilder{b.with(WithStrategy(StrategyAngular), WithMinAngle(minAngle))}
}

// KeepPruned fills unused neighbor slots with the nearest rejected candidates.
func (b HNSWBuilder) KeepPruned(keep bool) HNSWBuilder {
	return HNSWBuilder{b.with(WithKeepPruned(keep))}
}

// MaxExpansions bounds the distance evaluations of a single traversal.
func (b HNSWBuilder) MaxExpansions(n int) HNSWBuilder {
	return HNSWBuilder{b.with(WithMaxExpansions(n))}
}

// RandomSeed sets the seed for deterministic index construction.
func (b HNSWBuilder) RandomSeed(seed uint64) HNSWBuilder { return HNSWBuilder{b.with(WithSeed(seed))} }

// Logger sets the structured logger for operation tracing.
func (b HNSWBuilder) Logger(l *Logger) HNSWBuilder { return HNSWBuilder{b.with(WithLogger(l))} }

// Metrics sets the metrics collector for monitoring.
func (b HNSWBuilder) Metrics(mc MetricsCollector) HNSWBuilder {
	return HNSWBuilder{b.with(WithMetricsCollector(mc))}
}

// SearchWorkers bounds the parallelism of SearchBatch.
func (b HNSWBuilder) SearchWorkers(n int) HNSWBuilder {
	return HNSWBuilder{b.with(WithSearchWorkers(n))}
}

// =============================================================================
// Vamana Builder (Immutable)
// =============================================================================

// Vamana creates a new Vamana index builder with the specified dimension.
// Vamana keeps a single alpha-pruned layer; searches start from a fixed entry
// point plus a few random seeds.
//
// Example:
//
//	idx, err := proxgraph.Vamana(128).
//	    Cosine().
//	    R(64).
//	    Alpha(1.2).
//	    Seeds(4).
//	    Build()
func Vamana(dimension int) VamanaBuilder {
	return VamanaBuilder{builder{
		dimension: dimension,
		opts:      []Option{WithFamily(FamilyVamana)},
	}}
}

// VamanaBuilder is an immutable fluent builder for Vamana indexes.
type VamanaBuilder struct {
	builder
}

// SquaredL2 sets the distance metric to squared Euclidean distance.
func (b VamanaBuilder) SquaredL2() VamanaBuilder {
	return VamanaBuilder{b.with(WithMetric(distance.MetricL2))}
}

// Cosine sets the distance metric to cosine distance. Vectors are normalized.
func (b VamanaBuilder) Cosine() VamanaBuilder {
	return VamanaBuilder{b.with(WithMetric(distance.MetricCosine))}
}

// DotProduct sets the distance metric to negative inner product.
func (b VamanaBuilder) DotProduct() VamanaBuilder {
	return VamanaBuilder{b.with(WithMetric(distance.MetricDot))}
}

// DistanceFunc installs a custom distance function.
func (b VamanaBuilder) DistanceFunc(fn distance.Func) VamanaBuilder {
	return VamanaBuilder{b.with(WithDistanceFunc(fn))}
}

// R sets the degree bound. Default: 64.
func (b VamanaBuilder) R(r int) VamanaBuilder { return VamanaBuilder{b.with(WithM(r))} }

// L sets the construction frontier width. Default: 200. Must not be below R.
func (b VamanaBuilder) L(l int) VamanaBuilder {
	return VamanaBuilder{b.with(WithEFConstruction(l))}
}

// EF sets the default search frontier width.
func (b VamanaBuilder) EF(ef int) VamanaBuilder { return VamanaBuilder{b.with(WithEF(ef))} }

// Alpha sets the diversification factor. Default: 1.3.
func (b VamanaBuilder) Alpha(alpha float32) VamanaBuilder {
	return VamanaBuilder{b.with(WithAlpha(alpha))}
}

// Seeds sets the number of random seeds a search starts from.
func (b VamanaBuilder) Seeds(s int) VamanaBuilder { return VamanaBuilder{b.with(WithSeeds(s))} }

// Angular switches to the angle-based diversification rule.
func (b VamanaBuilder) Angular(minAngle float64) VamanaBuilder {
	return VamanaBuilder{b.with(WithStrategy(StrategyAngular), WithMinAngle(minAngle))}
}

// KeepPruned fills unused neighbor slots with the nearest rejected candidates.
func (b VamanaBuilder) KeepPruned(keep bool) VamanaBuilder {
	return VamanaBuilder{b.with(WithKeepPruned(keep))}
}

// MaxExpansions bounds the distance evaluations of a single traversal.
func (b VamanaBuilder) MaxExpansions(n int) VamanaBuilder {
	return VamanaBuilder{b.with(WithMaxExpansions(n))}
}

// RandomSeed sets the seed for deterministic index construction.
func (b VamanaBuilder) RandomSeed(seed uint64) VamanaBuilder {
	return VamanaBuilder{b.with(WithSeed(seed))}
}

// Logger sets the structured logger for operation tracing.
func (b VamanaBuilder) Logger(l *Logger) VamanaBuilder { return VamanaBuilder{b.with(WithLogger(l))} }

// Metrics sets the metrics collector for monitoring.
func (b VamanaBuilder) Metrics(mc MetricsCollector) VamanaBuilder {
	return VamanaBuilder{b.with(WithMetricsCollector(mc))}
}

// SearchWorkers bounds the parallelism of SearchBatch.
func (b VamanaBuilder) SearchWorkers(n int) VamanaBuilder {
	return VamanaBuilder{b.with(WithSearchWorkers(n))}
}

// builder is the shared immutable state of the family builders.
type builder struct {
	dimension int
	opts      []Option
}

// with returns a copy of b with opts appended. The option slice is never
// shared between builders.
func (b builder) with(opts ...Option) builder {
	next := make([]Option, 0, len(b.opts)+len(opts))
	next = append(next, b.opts...)
	next = append(next, opts...)
	return builder{dimension: b.dimension, opts: next}
}

// Build creates the index.
func (b builder) Build() (*Index, error) {
	return New(b.dimension, b.opts...)
}

// MustBuild creates the index, panicking on error.
func (b builder) MustBuild() *Index {
	idx, err := b.Build()
	if err != nil {
		panic(err)
	}
	return idx
}
