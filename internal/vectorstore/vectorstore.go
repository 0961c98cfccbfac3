package vectorstore

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hupe1980/proxgraph/distance"
	"github.com/hupe1980/proxgraph/internal/conv"
	"github.com/hupe1980/proxgraph/model"
)

var (
	// ErrWrongDimension is returned when a vector doesn't match the store dimension.
	ErrWrongDimension = errors.New("wrong vector dimension")

	// ErrNonFinite is returned when a vector holds NaN or ±Inf.
	ErrNonFinite = errors.New("vector contains non-finite values")

	// ErrFull is returned when the id space is exhausted.
	ErrFull = errors.New("vector store is full")
)

// DimensionError reports the expected and actual vector length.
type DimensionError struct {
	Expected int
	Actual   int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%v: expected %d, got %d", ErrWrongDimension, e.Expected, e.Actual)
}

func (e *DimensionError) Unwrap() error {
	return ErrWrongDimension
}

// Store owns the vectors of an index in one contiguous id-indexed arena with
// stride dim. Vectors are copied on Append and never mutated afterwards.
//
// Store is not safe for concurrent mutation; readers may run concurrently
// with each other.
type Store struct {
	dim       int
	data      []float32
	fn        distance.Func
	normalize bool
}

// New creates an empty store. When normalize is true every stored vector and
// every prepared query is L2-normalized; zero vectors are kept as they are.
func New(dim int, fn distance.Func, normalize bool) *Store {
	return &Store{
		dim:       dim,
		fn:        fn,
		normalize: normalize,
	}
}

// Dimension returns the fixed vector length.
func (s *Store) Dimension() int {
	return s.dim
}

// Len returns the number of stored vectors.
func (s *Store) Len() int {
	if s.dim == 0 {
		return 0
	}
	return len(s.data) / s.dim
}

// Func returns the injected distance capability.
func (s *Store) Func() distance.Func {
	return s.fn
}

// Grow pre-allocates room for n more vectors.
func (s *Store) Grow(n int) {
	s.data = slices.Grow(s.data, n*s.dim)
}

// Validate checks dimension and finiteness without touching the store.
func (s *Store) Validate(v []float32) error {
	if len(v) != s.dim {
		return &DimensionError{Expected: s.dim, Actual: len(v)}
	}
	if !distance.IsFinite(v) {
		return ErrNonFinite
	}
	return nil
}

// Append validates and copies v into the arena, returning its dense id.
// Nothing is mutated when an error is returned.
func (s *Store) Append(v []float32) (model.NodeID, error) {
	if err := s.Validate(v); err != nil {
		return 0, err
	}

	next, err := conv.ToNodeID(s.Len())
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrFull, err)
	}

	start := len(s.data)
	s.data = append(s.data, v...)
	if s.normalize {
		distance.NormalizeL2InPlace(s.data[start:])
	}

	return next, nil
}

// Vector returns the stored vector for id. The slice aliases internal memory
// and must not be modified.
func (s *Store) Vector(id model.NodeID) []float32 {
	off := int(id) * s.dim
	return s.data[off : off+s.dim : off+s.dim]
}

// PrepareQuery validates q and returns the form that is compared against
// stored vectors: q itself, or a normalized copy written into buf.
func (s *Store) PrepareQuery(q []float32, buf []float32) ([]float32, error) {
	if err := s.Validate(q); err != nil {
		return nil, err
	}
	if !s.normalize {
		return q, nil
	}

	buf = append(buf[:0], q...)
	distance.NormalizeL2InPlace(buf)
	return buf, nil
}

// Distance computes the distance between the stored vector id and a prepared
// query.
func (s *Store) Distance(id model.NodeID, q []float32) float32 {
	return s.fn(s.Vector(id), q)
}

// DistanceBetween computes the distance between two stored vectors.
func (s *Store) DistanceBetween(a, b model.NodeID) float32 {
	return s.fn(s.Vector(a), s.Vector(b))
}
