package testutil

import (
	"math/rand/v2"
	"slices"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/hupe1980/proxgraph/distance"
	"github.com/hupe1980/proxgraph/model"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed uint64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{
		rand: newRand(seed),
		seed: seed,
	}
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xDA3E39CB94B95BDB))
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = newRand(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() uint64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.IntN(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// UniformVectors generates random vectors with values in range [0, 1).
// Uses a single backing array for efficiency.
func (r *RNG) UniformVectors(num int, dimensions int) [][]float32 {
	return r.fill(num, dimensions, func(rnd *rand.Rand) float32 {
		return rnd.Float32()
	})
}

// UniformRangeVectors generates random vectors with values in range [-1, 1).
func (r *RNG) UniformRangeVectors(num int, dimensions int) [][]float32 {
	return r.fill(num, dimensions, func(rnd *rand.Rand) float32 {
		return rnd.Float32()*2 - 1
	})
}

// GaussianVectors generates random vectors with values from a standard normal distribution.
func (r *RNG) GaussianVectors(num int, dimensions int) [][]float32 {
	return r.fill(num, dimensions, func(rnd *rand.Rand) float32 {
		return float32(rnd.NormFloat64())
	})
}

// UnitVectors generates L2-normalized random vectors (on the hypersphere).
func (r *RNG) UnitVectors(num int, dimensions int) [][]float32 {
	vectors := r.GaussianVectors(num, dimensions)
	for _, v := range vectors {
		if !distance.NormalizeL2InPlace(v) {
			v[0] = 1
		}
	}
	return vectors
}

// ClusteredVectors generates vectors clustered around random centroids.
// Useful for testing ANN index performance on non-uniform data.
func (r *RNG) ClusteredVectors(num, dim, clusters int, spread float32) [][]float32 {
	centroids := r.UnitVectors(clusters, dim)

	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dim)
	vectors := make([][]float32, num)

	for i := range num {
		centroid := centroids[i%clusters]
		vec := data[i*dim : (i+1)*dim]
		for j := range dim {
			vec[j] = centroid[j] + float32(r.rand.NormFloat64())*spread
		}
		vectors[i] = vec
	}

	return vectors
}

// DuplicateVectors returns num vectors drawn from only distinct different
// points. Heavy duplication stresses pruning, which must not collapse every
// neighbor list of a duplicate group onto the group itself.
func (r *RNG) DuplicateVectors(num, dim, distinct int) [][]float32 {
	base := r.UniformVectors(distinct, dim)

	r.mu.Lock()
	defer r.mu.Unlock()

	vectors := make([][]float32, num)
	for i := range num {
		vectors[i] = slices.Clone(base[r.rand.IntN(distinct)])
	}
	return vectors
}

func (r *RNG) fill(num, dimensions int, gen func(*rand.Rand) float32) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = gen(r.rand)
		}
		vectors[i] = vec
	}

	return vectors
}

// BruteForceSearch performs exact search for ground truth. Ties are broken by
// the smaller id.
func BruteForceSearch(vectors [][]float32, query []float32, k int, fn distance.Func) []model.Candidate {
	results := make([]model.Candidate, len(vectors))
	for i, v := range vectors {
		results[i] = model.Candidate{ID: model.NodeID(i), Distance: fn(query, v)}
	}

	slices.SortFunc(results, model.CompareCandidates)

	if len(results) > k {
		results = results[:k]
	}
	return results
}

// ComputeRecall returns the fraction of groundTruth ids present in
// approximate. Missing results count as misses.
func ComputeRecall(groundTruth, approximate []model.Candidate) float64 {
	if len(groundTruth) == 0 {
		return 1.0
	}

	truthSet := make(map[model.NodeID]struct{}, len(groundTruth))
	for _, c := range groundTruth {
		truthSet[c.ID] = struct{}{}
	}

	hits := 0
	for _, r := range approximate {
		if _, ok := truthSet[r.ID]; ok {
			hits++
			delete(truthSet, r.ID)
		}
	}

	return float64(hits) / float64(len(groundTruth))
}

// MeanRecall averages per-query recall values.
func MeanRecall(recalls []float64) float64 {
	if len(recalls) == 0 {
		return 0
	}
	return stat.Mean(recalls, nil)
}
