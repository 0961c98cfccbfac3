package graph

import (
	"fmt"

	"github.com/hupe1980/proxgraph/distance"
)

// LevelStats describes one layer of the graph.
type LevelStats struct {
	Level          int
	Nodes          int
	Connections    int
	AvgConnections float64
	MaxDegree      int
}

// Stats holds statistics about the graph.
type Stats struct {
	Options    map[string]string
	Parameters map[string]string
	Storage    map[string]string
	Levels     []LevelStats
}

// Stats returns statistics about the graph.
func (g *Graph) Stats() Stats {
	levels := make([]LevelStats, g.maxLevel+1)
	for l := range levels {
		levels[l] = LevelStats{Level: l, MaxDegree: g.policy.MaxDegree(l)}
	}

	for _, nd := range g.nodes {
		for l := 0; l <= nd.level; l++ {
			levels[l].Nodes++
			levels[l].Connections += len(nd.neighbors[l])
		}
	}
	for l := range levels {
		if levels[l].Nodes > 0 {
			levels[l].AvgConnections = float64(levels[l].Connections) / float64(levels[l].Nodes)
		}
	}

	entry := "-"
	if ep, ok := g.EntryPoint(); ok {
		entry = fmt.Sprintf("%d", ep)
	}

	return Stats{
		Options: map[string]string{
			"Type":     g.policy.Name(),
			"Strategy": g.opts.Strategy.String(),
			"Kernel":   distance.Kernel(),
		},
		Parameters: map[string]string{
			"M0":             fmt.Sprintf("%d", g.policy.MaxDegree(0)),
			"EFConstruction": fmt.Sprintf("%d", g.opts.EFConstruction),
			"Alpha":          fmt.Sprintf("%g", g.opts.Alpha),
			"MaxExpansions":  fmt.Sprintf("%d", g.opts.MaxExpansions),
			"KeepPruned":     fmt.Sprintf("%v", g.opts.KeepPruned),
		},
		Storage: map[string]string{
			"Nodes":      fmt.Sprintf("%d", len(g.nodes)),
			"Dimension":  fmt.Sprintf("%d", g.store.Dimension()),
			"MaxLevel":   fmt.Sprintf("%d", g.maxLevel),
			"EntryPoint": entry,
		},
		Levels: levels,
	}
}
