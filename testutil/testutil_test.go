package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/proxgraph/distance"
	"github.com/hupe1980/proxgraph/model"
)

func TestUniformVectors(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.UniformVectors(8, 32)

	assert.Equal(t, 8, len(v))
	assert.Equal(t, 32, len(v[0]))
	assert.LessOrEqual(t, v[0][0], float32(1.0))
	assert.GreaterOrEqual(t, v[1][0], float32(0.0))
}

func TestUniformRangeVectors(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.UniformRangeVectors(8, 32)

	assert.Equal(t, 8, len(v))
	for _, x := range v[0] {
		assert.GreaterOrEqual(t, x, float32(-1.0))
		assert.Less(t, x, float32(1.0))
	}
}

func TestUnitVectors(t *testing.T) {
	rng := NewRNG(4711)

	for _, vec := range rng.UnitVectors(8, 32) {
		assert.InDelta(t, 1.0, distance.Dot(vec, vec), 1e-5)
	}
}

func TestClusteredVectors(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.ClusteredVectors(100, 32, 5, 0.1)

	assert.Equal(t, 100, len(v))
	assert.Equal(t, 32, len(v[0]))
}

func TestDuplicateVectors(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.DuplicateVectors(50, 4, 3)

	distinct := map[[4]float32]struct{}{}
	for _, x := range v {
		distinct[[4]float32(x)] = struct{}{}
	}
	assert.LessOrEqual(t, len(distinct), 3)

	v[0][0] = 42
	assert.NotEqual(t, float32(42), v[1][0], "vectors must not share memory")
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	v1 := rng.UniformVectors(1, 10)

	rng.Reset()
	v2 := rng.UniformVectors(1, 10)

	assert.Equal(t, v1, v2)
	assert.Equal(t, uint64(4711), rng.Seed())
}

func TestBruteForceSearch(t *testing.T) {
	vectors := [][]float32{{0, 0}, {1, 0}, {0, 1}, {10, 10}}

	got := BruteForceSearch(vectors, []float32{0.1, 0.1}, 3, distance.SquaredL2)
	require.Len(t, got, 3)
	assert.Equal(t, model.NodeID(0), got[0].ID)
	// [1,0] and [0,1] are equidistant; the smaller id wins.
	assert.Equal(t, model.NodeID(1), got[1].ID)
	assert.Equal(t, model.NodeID(2), got[2].ID)

	assert.Len(t, BruteForceSearch(vectors, []float32{0, 0}, 10, distance.SquaredL2), 4)
}

func TestComputeRecall(t *testing.T) {
	truth := []model.Candidate{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}

	assert.Equal(t, 1.0, ComputeRecall(truth, truth))
	assert.Equal(t, 0.5, ComputeRecall(truth, []model.Candidate{{ID: 1}, {ID: 9}, {ID: 3}}))
	assert.Equal(t, 0.25, ComputeRecall(truth, []model.Candidate{{ID: 2}, {ID: 2}}))
	assert.Equal(t, 0.0, ComputeRecall(truth, nil))
	assert.Equal(t, 1.0, ComputeRecall(nil, nil))
}

func TestMeanRecall(t *testing.T) {
	assert.InDelta(t, 0.75, MeanRecall([]float64{0.5, 1.0}), 1e-9)
	assert.Zero(t, MeanRecall(nil))
}
