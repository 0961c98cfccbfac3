package proxgraph

import (
	"errors"
	"fmt"

	"github.com/hupe1980/proxgraph/internal/graph"
	"github.com/hupe1980/proxgraph/internal/vectorstore"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrEmptyIndex is returned by searches on an index without vectors.
	ErrEmptyIndex = errors.New("index is empty")

	// ErrNonFiniteValue is returned when a vector or query contains NaN or ±Inf.
	ErrNonFiniteValue = errors.New("vector contains non-finite values")

	// ErrIDHint is returned by InsertWithID when the hint is not the next
	// dense id.
	ErrIDHint = errors.New("id hint does not match the next id")

	// ErrIndexFull is returned when the id space is exhausted.
	ErrIndexFull = errors.New("index is full")

	// ErrNotFound is returned when an id does not name a stored vector.
	ErrNotFound = errors.New("not found")
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ConfigurationError reports an invalid construction parameter. Index
// creation fails outright on it.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%v: %s", e.Field, e.Value, e.Reason)
}

// translateError maps internal errors onto the public taxonomy.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var dm *vectorstore.DimensionError
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}
	if errors.Is(err, vectorstore.ErrNonFinite) {
		return fmt.Errorf("%w: %w", ErrNonFiniteValue, err)
	}
	if errors.Is(err, vectorstore.ErrFull) {
		return fmt.Errorf("%w: %w", ErrIndexFull, err)
	}
	if errors.Is(err, graph.ErrNilDependency) {
		return &ConfigurationError{Field: "graph", Value: nil, Reason: err.Error()}
	}

	return err
}
