package distance

import (
	"fmt"
	"math"
	"slices"
)

// Func is the distance capability: lower means closer.
type Func func(a, b []float32) float32

// Metric represents the distance metric used for vector comparison.
type Metric int

const (
	MetricL2 Metric = iota
	MetricCosine
	MetricDot
)

func (m Metric) String() string {
	switch m {
	case MetricL2:
		return "L2"
	case MetricCosine:
		return "Cosine"
	case MetricDot:
		return "Dot"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// ParseMetric accepts the names produced by String plus the lower-case forms
// used in configuration files.
func ParseMetric(s string) (Metric, error) {
	switch s {
	case "L2", "l2", "euclidean":
		return MetricL2, nil
	case "Cosine", "cosine":
		return MetricCosine, nil
	case "Dot", "dot":
		return MetricDot, nil
	default:
		return 0, fmt.Errorf("unknown metric %q", s)
	}
}

// NeedsNormalization reports whether vectors must be L2-normalized before
// being handed to the metric's Func.
func (m Metric) NeedsNormalization() bool {
	return m == MetricCosine
}

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	return dotImpl(a, b)
}

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float32) float32 {
	return squaredL2Impl(a, b)
}

// NegativeDot turns inner-product similarity into a distance.
func NegativeDot(a, b []float32) float32 {
	return -dotImpl(a, b)
}

// NormalizedCosine is the cosine distance of two unit vectors, clamped at zero
// so rounding never yields a negative distance.
func NormalizedCosine(a, b []float32) float32 {
	d := 1 - dotImpl(a, b)
	if d < 0 {
		return 0
	}
	return d
}

// Cosine computes 1 - cos(a, b) for arbitrary vectors. Zero vectors are at
// distance 1 from everything.
func Cosine(a, b []float32) float32 {
	na := dotImpl(a, a)
	nb := dotImpl(b, b)
	if na == 0 || nb == 0 {
		return 1
	}
	d := 1 - dotImpl(a, b)/float32(math.Sqrt(float64(na)*float64(nb)))
	if d < 0 {
		return 0
	}
	return d
}

// Provider returns the distance function for the given metric.
//
// MetricCosine maps to NormalizedCosine: callers normalize vectors once at
// insertion and query time.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricL2:
		return SquaredL2, nil
	case MetricCosine:
		return NormalizedCosine, nil
	case MetricDot:
		return NegativeDot, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}

// Batch evaluates fn between query and every target, writing into out.
// out must be at least len(targets) long.
func Batch(fn Func, query []float32, targets [][]float32, out []float32) {
	for i, t := range targets {
		out[i] = fn(query, t)
	}
}

// NormalizeL2InPlace L2-normalizes v in place.
// Returns false if v has zero L2 norm.
func NormalizeL2InPlace(v []float32) bool {
	if len(v) == 0 {
		return false
	}
	norm2 := dotImpl(v, v)
	if norm2 == 0 {
		return false
	}
	inv := float32(1 / math.Sqrt(float64(norm2)))
	for i := range v {
		v[i] *= inv
	}
	return true
}

// NormalizeL2Copy returns a normalized copy of src.
// Returns false if src has zero L2 norm.
func NormalizeL2Copy(src []float32) ([]float32, bool) {
	dst := slices.Clone(src)
	if !NormalizeL2InPlace(dst) {
		return nil, false
	}
	return dst, true
}

// IsFinite reports whether every component of v is neither NaN nor ±Inf.
func IsFinite(v []float32) bool {
	for _, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
