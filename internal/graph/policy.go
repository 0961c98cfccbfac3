package graph

import (
	"math"
	"math/rand/v2"

	"github.com/hupe1980/proxgraph/model"
)

const (
	// mmax0Multiplier is the multiplier for calculating maximum connections at layer 0.
	mmax0Multiplier = 2

	// maxLevelCap bounds drawn levels; reaching it needs probability M^-cap.
	maxLevelCap = 32
)

// LayerPolicy is what distinguishes the graph families. The traversal and
// pruning core is shared; a policy decides how many layers a node lives on,
// the degree bound of each layer and which extra seeds warm the base layer.
type LayerPolicy interface {
	// Name identifies the family in logs and stats.
	Name() string

	// Level draws the top layer of a new node.
	Level(rng *rand.Rand) int

	// MaxDegree returns the degree bound at layer.
	MaxDegree(layer int) int

	// BaseSeeds appends extra layer-0 seeds, drawn from the first n nodes, to
	// dst. The descended entry point is always seeded by the caller.
	BaseSeeds(dst []model.NodeID, n int, rng *rand.Rand) []model.NodeID
}

// SeedStrategy selects the extra base-layer seeds of the hierarchical family.
type SeedStrategy struct {
	// K is the number of random seeds added next to the descended entry
	// point. Zero means stacked seeding only.
	K int
}

// Stacked seeds the base layer with the entry point reached by descending the
// upper layers only.
var Stacked = SeedStrategy{}

// KSampled adds k uniformly sampled seeds to the descended entry point.
func KSampled(k int) SeedStrategy {
	return SeedStrategy{K: k}
}

// Hierarchical is the multi-layer policy: geometric levels with normalization
// factor mL = 1/ln(M), bound M on upper layers and 2M on layer 0.
type Hierarchical struct {
	M     int
	Seeds SeedStrategy

	ml float64
}

// NewHierarchical creates the multi-layer policy for degree bound m.
func NewHierarchical(m int, seeds SeedStrategy) *Hierarchical {
	ml := 1.0
	if m > 1 {
		ml = 1 / math.Log(float64(m))
	}
	return &Hierarchical{M: m, Seeds: seeds, ml: ml}
}

func (*Hierarchical) Name() string { return "hnsw" }

// Level returns floor(-ln(U) * mL) for U uniform in (0, 1].
func (h *Hierarchical) Level(rng *rand.Rand) int {
	u := 1 - rng.Float64()
	level := int(math.Floor(-math.Log(u) * h.ml))
	return min(level, maxLevelCap)
}

func (h *Hierarchical) MaxDegree(layer int) int {
	if layer == 0 {
		return h.M * mmax0Multiplier
	}
	return h.M
}

func (h *Hierarchical) BaseSeeds(dst []model.NodeID, n int, rng *rand.Rand) []model.NodeID {
	if h.Seeds.K <= 0 {
		return dst
	}
	return SampleDistinct(dst, h.Seeds.K, n, rng)
}

// Flat is the single-layer policy: every node lives on layer 0 with degree
// bound R, and traversal starts from the fixed entry point plus S random seeds.
type Flat struct {
	R int
	S int
}

// NewFlat creates the single-layer policy.
func NewFlat(r, s int) *Flat {
	return &Flat{R: r, S: s}
}

func (*Flat) Name() string { return "vamana" }

func (*Flat) Level(*rand.Rand) int { return 0 }

func (f *Flat) MaxDegree(int) int { return f.R }

func (f *Flat) BaseSeeds(dst []model.NodeID, n int, rng *rand.Rand) []model.NodeID {
	return SampleDistinct(dst, f.S, n, rng)
}
