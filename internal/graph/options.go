package graph

import (
	"log/slog"
)

const (
	// DefaultEFConstruction is the default frontier width used while inserting.
	DefaultEFConstruction = 200

	// DefaultAlpha is the default diversification factor.
	DefaultAlpha = 1.2

	// DefaultMaxExpansions is the default per-call ceiling on distance
	// evaluations.
	DefaultMaxExpansions = 1 << 20

	// DefaultMinAngle is the default angle threshold, in degrees, of the
	// angular diversification strategy.
	DefaultMinAngle = 60.0
)

// Strategy selects the diversification rule applied by RobustPrune.
type Strategy int

const (
	// StrategyRelative rejects a candidate c shadowed by an accepted p, i.e.
	// alpha*d(c,p) <= d(c,source).
	StrategyRelative Strategy = iota

	// StrategyAngular rejects a candidate whose angle at the source with any
	// accepted neighbor is below MinAngle.
	StrategyAngular
)

func (s Strategy) String() string {
	switch s {
	case StrategyRelative:
		return "relative"
	case StrategyAngular:
		return "angular"
	default:
		return "unknown"
	}
}

// Options configures graph construction and traversal.
type Options struct {
	// EFConstruction is the frontier width of insertion-time traversals.
	EFConstruction int

	// Alpha is the diversification factor (>= 1).
	Alpha float32

	// Strategy is the diversification rule.
	Strategy Strategy

	// MinAngle is the angular threshold in degrees for StrategyAngular.
	MinAngle float64

	// KeepPruned fills unused degree slots with the nearest rejected candidates.
	KeepPruned bool

	// MaxExpansions bounds the number of distance evaluations per call.
	MaxExpansions int

	// Seed seeds the construction random source.
	Seed uint64

	// Logger receives pruning defects and repair warnings.
	Logger *slog.Logger
}

// DefaultOptions contains the default graph options.
var DefaultOptions = Options{
	EFConstruction: DefaultEFConstruction,
	Alpha:          DefaultAlpha,
	Strategy:       StrategyRelative,
	MinAngle:       DefaultMinAngle,
	MaxExpansions:  DefaultMaxExpansions,
	Seed:           42,
}
