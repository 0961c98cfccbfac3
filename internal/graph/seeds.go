package graph

import (
	"encoding/binary"
	"math"
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"

	"github.com/hupe1980/proxgraph/model"
)

// SampleDistinct appends s distinct ids drawn uniformly from [0, n) to dst.
// Ids are drawn directly and redrawn on collision, so the cost is O(s) and the
// id population is never materialized. When s >= n all ids are appended.
func SampleDistinct(dst []model.NodeID, s, n int, rng *rand.Rand) []model.NodeID {
	if s <= 0 || n <= 0 {
		return dst
	}
	if s >= n {
		for i := range n {
			dst = append(dst, model.NodeID(i))
		}
		return dst
	}

	seen := make(map[model.NodeID]struct{}, s)
	for len(seen) < s {
		id := model.NodeID(rng.IntN(n))
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		dst = append(dst, id)
	}
	return dst
}

// queryRand returns a generator seeded from the bytes of q. Identical queries
// draw identical seeds, and concurrent searches share no random state.
func queryRand(q []float32) *rand.Rand {
	d := xxhash.New()
	var buf [4]byte
	for _, x := range q {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(x))
		_, _ = d.Write(buf[:])
	}
	sum := d.Sum64()
	return rand.New(rand.NewPCG(sum, sum^0x9E3779B97F4A7C15))
}
