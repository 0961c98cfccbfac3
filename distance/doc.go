// Package distance provides the distance capability consumed by the graph core.
//
// All functions assume equal-length inputs; length checks happen once at the
// index boundary, not per call.
//
// # Supported Metrics
//
//   - MetricL2: Squared Euclidean distance (default)
//   - MetricCosine: 1 - cosine similarity, evaluated on L2-normalized vectors
//   - MetricDot: Negated dot product (lower is closer)
//
// # Usage
//
//	fn, _ := distance.Provider(distance.MetricL2)
//	d := fn(a, b)
//
// A custom Func may be injected instead; the core assumes it is symmetric and
// non-negative but does not verify either property.
package distance
