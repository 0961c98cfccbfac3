package graph

import (
	"math"
	"slices"

	"github.com/hupe1980/proxgraph/distance"
	"github.com/hupe1980/proxgraph/model"
)

// RobustPrune selects a bounded, spatially diverse subset of candidates as the
// neighbor list of source and appends it to dst.
//
// Candidates are sorted in place by (distance, id). Self and repeated ids are
// skipped. Under StrategyRelative a candidate c is accepted iff
// alpha*d(c, p) > d(c, source) for every accepted p. Ties reject, so a copy of
// an accepted neighbor never takes a second slot. Selection stops at bound.
func (g *Graph) RobustPrune(dst []model.Candidate, source model.NodeID, candidates []model.Candidate, bound int, alpha float32) []model.Candidate {
	slices.SortFunc(candidates, model.CompareCandidates)

	start := len(dst)
	eligible := 0
	cosMax := math.Cos(g.opts.MinAngle * math.Pi / 180)

	for i, c := range candidates {
		if len(dst)-start >= bound {
			break
		}
		if c.ID == source || (i > 0 && candidates[i-1].ID == c.ID) || containsID(dst[start:], c.ID) {
			continue
		}
		eligible++

		cv := g.store.Vector(c.ID)
		good := true
		for _, p := range dst[start:] {
			pv := g.store.Vector(p.ID)
			if g.opts.Strategy == StrategyAngular {
				if g.angularConflict(source, cv, pv, cosMax) {
					good = false
					break
				}
				continue
			}
			if alpha*g.store.Func()(cv, pv) <= c.Distance {
				good = false
				break
			}
		}

		if good {
			dst = append(dst, c)
		}
	}

	if g.opts.KeepPruned {
		for _, c := range candidates {
			if len(dst)-start >= bound {
				break
			}
			if c.ID != source && !containsID(dst[start:], c.ID) {
				dst = append(dst, c)
			}
		}
	}

	if len(dst) == start && eligible > 0 {
		g.logger.Error("robust prune returned no neighbors",
			"source", source,
			"candidates", len(candidates),
			"bound", bound,
			"alpha", alpha,
			"strategy", g.opts.Strategy.String())
	}

	return dst
}

// angularConflict reports whether the angle at source between c and p is
// below the configured minimum. Degenerate directions never conflict.
func (g *Graph) angularConflict(source model.NodeID, cv, pv []float32, cosMax float64) bool {
	sv := g.store.Vector(source)

	nc := float64(distance.SquaredL2(cv, sv))
	np := float64(distance.SquaredL2(pv, sv))
	if nc == 0 || np == 0 {
		return false
	}

	// (c - s) . (p - s) expanded into dot products.
	dot := float64(distance.Dot(cv, pv)) - float64(distance.Dot(cv, sv)) -
		float64(distance.Dot(pv, sv)) + float64(distance.Dot(sv, sv))

	return dot/math.Sqrt(nc*np) > cosMax
}
