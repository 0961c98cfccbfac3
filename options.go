package proxgraph

import (
	"math"
	"runtime"

	"github.com/hupe1980/proxgraph/distance"
	"github.com/hupe1980/proxgraph/internal/graph"
)

// Family selects the graph family an index builds.
type Family int

const (
	// FamilyHNSW builds a multi-layer navigable small-world graph.
	FamilyHNSW Family = iota
	// FamilyVamana builds a single-layer alpha-pruned graph.
	FamilyVamana
)

func (f Family) String() string {
	switch f {
	case FamilyHNSW:
		return "hnsw"
	case FamilyVamana:
		return "vamana"
	default:
		return "unknown"
	}
}

// Strategy is the diversification rule used when selecting neighbor lists.
type Strategy = graph.Strategy

const (
	// StrategyRelative is the alpha-relaxed relative neighborhood rule.
	StrategyRelative = graph.StrategyRelative
	// StrategyAngular keeps neighbors separated by at least a minimum angle.
	StrategyAngular = graph.StrategyAngular
)

// SeedStrategy selects the extra base-layer seeds of the HNSW family.
type SeedStrategy = graph.SeedStrategy

// Stacked seeds the base layer from the descended entry point only.
var Stacked = graph.Stacked

// KSampled adds k random seeds to the descended entry point.
func KSampled(k int) SeedStrategy {
	return graph.KSampled(k)
}

const (
	// DefaultM is the default HNSW degree bound on upper layers. Layer 0
	// allows twice as many.
	DefaultM = 16

	// DefaultR is the default Vamana degree bound.
	DefaultR = 64

	// DefaultSeeds is the default number of random Vamana seeds.
	DefaultSeeds = 4

	// DefaultEF is the default search frontier width. It favors latency: on
	// 10k uniform 128-d vectors recall@10 is about 0.70 (HNSW) and 0.87
	// (Vamana) at this width. Reaching recall@10 >= 0.9 at that scale takes
	// an ef around 200, passed per query or through WithEF.
	DefaultEF = 50

	// DefaultHNSWAlpha makes the HNSW family use the strict relative rule.
	DefaultHNSWAlpha = 1.0

	// DefaultVamanaAlpha is the default Vamana diversification factor.
	DefaultVamanaAlpha = 1.3
)

type options struct {
	family         Family
	m              int
	seeds          int
	seedStrategy   SeedStrategy
	efConstruction int
	ef             int
	alpha          float32
	strategy       Strategy
	minAngle       float64
	keepPruned     bool
	maxExpansions  int
	metric         distance.Metric
	distanceFunc   distance.Func
	seed           uint64
	searchWorkers  int
	logger         *Logger
	metrics        MetricsCollector
}

func defaultOptions(f Family) options {
	o := options{
		family:         f,
		m:              DefaultM,
		seeds:          DefaultSeeds,
		seedStrategy:   Stacked,
		efConstruction: graph.DefaultEFConstruction,
		ef:             DefaultEF,
		alpha:          DefaultHNSWAlpha,
		strategy:       StrategyRelative,
		minAngle:       graph.DefaultMinAngle,
		maxExpansions:  graph.DefaultMaxExpansions,
		metric:         distance.MetricL2,
		seed:           graph.DefaultOptions.Seed,
		searchWorkers:  runtime.GOMAXPROCS(0),
	}
	if f == FamilyVamana {
		o.m = DefaultR
		o.alpha = DefaultVamanaAlpha
	}
	return o
}

// Option configures an Index at construction.
type Option func(*options)

// WithFamily selects the graph family. It resets the family-specific
// defaults (degree bound and alpha), so pass it before other options.
func WithFamily(f Family) Option {
	return func(o *options) {
		d := defaultOptions(f)
		o.family = f
		o.m = d.m
		o.alpha = d.alpha
	}
}

// WithM sets the degree bound: M for HNSW upper layers (2M on layer 0) or R
// for Vamana.
func WithM(m int) Option {
	return func(o *options) {
		o.m = m
	}
}

// WithEFConstruction sets the frontier width used while inserting.
func WithEFConstruction(ef int) Option {
	return func(o *options) {
		o.efConstruction = ef
	}
}

// WithEF sets the default search frontier width used when Search is called
// with ef <= 0.
func WithEF(ef int) Option {
	return func(o *options) {
		o.ef = ef
	}
}

// WithAlpha sets the diversification factor. Must be >= 1.
func WithAlpha(alpha float32) Option {
	return func(o *options) {
		o.alpha = alpha
	}
}

// WithSeeds sets the number of random seeds a Vamana search starts from in
// addition to the entry point.
func WithSeeds(s int) Option {
	return func(o *options) {
		o.seeds = s
	}
}

// WithSeedStrategy selects how the HNSW base layer is seeded.
func WithSeedStrategy(s SeedStrategy) Option {
	return func(o *options) {
		o.seedStrategy = s
	}
}

// WithStrategy selects the diversification rule.
func WithStrategy(s Strategy) Option {
	return func(o *options) {
		o.strategy = s
	}
}

// WithMinAngle sets the angle threshold in degrees of StrategyAngular.
func WithMinAngle(degrees float64) Option {
	return func(o *options) {
		o.minAngle = degrees
	}
}

// WithKeepPruned fills unused neighbor slots with the nearest rejected
// candidates.
func WithKeepPruned(keep bool) Option {
	return func(o *options) {
		o.keepPruned = keep
	}
}

// WithMaxExpansions bounds the number of distance evaluations of a single
// insert or search traversal.
func WithMaxExpansions(n int) Option {
	return func(o *options) {
		o.maxExpansions = n
	}
}

// WithMetric selects a built-in distance metric. Cosine vectors are
// normalized on insert and query.
func WithMetric(m distance.Metric) Option {
	return func(o *options) {
		o.metric = m
		o.distanceFunc = nil
	}
}

// WithDistanceFunc installs a caller-provided distance. It must be
// non-negative-comparable (lower is closer) and deterministic. Vectors are
// stored as given.
func WithDistanceFunc(fn distance.Func) Option {
	return func(o *options) {
		o.distanceFunc = fn
	}
}

// WithSeed seeds the construction random source. Two indexes built with the
// same seed, options and insertion order are identical.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithSearchWorkers bounds the parallelism of SearchBatch.
func WithSearchWorkers(n int) Option {
	return func(o *options) {
		o.searchWorkers = n
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example:
//
//	logger := proxgraph.NewJSONLogger(slog.LevelDebug)
//	idx, _ := proxgraph.New(128, proxgraph.WithLogger(logger))
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &proxgraph.BasicMetricsCollector{}
//	idx, _ := proxgraph.New(128, proxgraph.WithMetricsCollector(metrics))
//	// ... perform operations ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// validate fails fast on configurations that would build a degraded index.
func (o *options) validate(dimension int) error {
	switch {
	case dimension <= 0:
		return &ConfigurationError{Field: "dimension", Value: dimension, Reason: "must be positive"}
	case o.family != FamilyHNSW && o.family != FamilyVamana:
		return &ConfigurationError{Field: "family", Value: o.family, Reason: "unknown graph family"}
	case o.m <= 0:
		return &ConfigurationError{Field: "m", Value: o.m, Reason: "degree bound must be positive"}
	case o.efConstruction < 1:
		return &ConfigurationError{Field: "ef_construction", Value: o.efConstruction, Reason: "must be at least 1"}
	case o.efConstruction < o.m:
		return &ConfigurationError{Field: "ef_construction", Value: o.efConstruction, Reason: "must not be below the degree bound"}
	case o.ef < 1:
		return &ConfigurationError{Field: "ef", Value: o.ef, Reason: "must be at least 1"}
	case o.alpha < 1 || math.IsNaN(float64(o.alpha)):
		return &ConfigurationError{Field: "alpha", Value: o.alpha, Reason: "must be >= 1"}
	case o.family == FamilyVamana && o.seeds <= 0:
		return &ConfigurationError{Field: "seeds", Value: o.seeds, Reason: "must be positive"}
	case o.family == FamilyHNSW && o.seedStrategy.K < 0:
		return &ConfigurationError{Field: "seed_strategy", Value: o.seedStrategy.K, Reason: "sample count must not be negative"}
	case o.strategy != StrategyRelative && o.strategy != StrategyAngular:
		return &ConfigurationError{Field: "strategy", Value: o.strategy, Reason: "unknown diversification strategy"}
	case o.strategy == StrategyAngular && (o.minAngle <= 0 || o.minAngle >= 180):
		return &ConfigurationError{Field: "min_angle", Value: o.minAngle, Reason: "must be in (0, 180) degrees"}
	case o.maxExpansions <= 0:
		return &ConfigurationError{Field: "max_expansions", Value: o.maxExpansions, Reason: "must be positive"}
	case o.searchWorkers <= 0:
		return &ConfigurationError{Field: "search_workers", Value: o.searchWorkers, Reason: "must be positive"}
	}

	if o.distanceFunc == nil {
		if _, err := distance.Provider(o.metric); err != nil {
			return &ConfigurationError{Field: "metric", Value: o.metric, Reason: err.Error()}
		}
	}
	return nil
}

func (o *options) policy() graph.LayerPolicy {
	if o.family == FamilyVamana {
		return graph.NewFlat(o.m, o.seeds)
	}
	return graph.NewHierarchical(o.m, o.seedStrategy)
}

func (o *options) graphOptions() graph.Options {
	return graph.Options{
		EFConstruction: o.efConstruction,
		Alpha:          o.alpha,
		Strategy:       o.strategy,
		MinAngle:       o.minAngle,
		KeepPruned:     o.keepPruned,
		MaxExpansions:  o.maxExpansions,
		Seed:           o.seed,
		Logger:         o.logger.Logger,
	}
}
