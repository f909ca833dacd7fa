package depgraph

import (
	"fmt"
	"log"
	"sort"
)

// CyclePolicy controls what Resolve does with a cycle whose edges are
// all Hard.
type CyclePolicy string

const (
	// PolicyBreak removes the lowest-confidence edge even when every
	// edge in the cycle is Hard. This is the inherited default.
	PolicyBreak CyclePolicy = "break"
	// PolicyError refuses to break Hard-only cycles and returns an
	// error instead.
	PolicyError CyclePolicy = "error"
)

// Resolve removes edges until the graph is acyclic. For each cycle
// found it drops the single lowest-confidence edge in that cycle,
// rebuilds adjacency, and repeats. The heuristic is greedy, not
// globally optimal: it sacrifices the edge with least evidential
// support first.
func (g *Graph) Resolve(policy CyclePolicy) error {
	if policy == "" {
		policy = PolicyBreak
	}
	for {
		cycle := g.DetectCycle()
		if cycle == nil {
			return nil
		}

		victim := -1
		hardOnly := true
		for i := 0; i < len(cycle); i++ {
			from := cycle[i]
			to := cycle[(i+1)%len(cycle)]
			// Adjacency runs dependency -> dependent, so the edge
			// record has `to` as the dependent.
			for j := range g.Edges {
				e := &g.Edges[j]
				if e.DependencyID != from || e.DependentID != to {
					continue
				}
				if e.Type != Hard {
					hardOnly = false
				}
				if victim < 0 || e.Confidence < g.Edges[victim].Confidence {
					victim = j
				}
			}
		}
		if victim < 0 {
			return fmt.Errorf("cycle %v has no matching edges", cycle)
		}
		if hardOnly && policy == PolicyError {
			return fmt.Errorf("unresolvable cycle of hard dependencies: %v", cycle)
		}

		dropped := g.Edges[victim]
		log.Printf("breaking dependency cycle %v: dropping %s -> %s (%s, confidence %.2f)",
			cycle, dropped.DependentID, dropped.DependencyID, dropped.Pattern, dropped.Confidence)
		g.Edges = append(g.Edges[:victim], g.Edges[victim+1:]...)
		g.rebuildAdjacency()
	}
}

// DetectCycle returns one cycle as an ordered node list, or nil if the
// graph is acyclic. Colored DFS: white (unvisited), gray (on stack),
// black (done).
func (g *Graph) DetectCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int)
	parent := make(map[string]string)

	var dfs func(node string) []string
	dfs = func(node string) []string {
		color[node] = gray
		for _, next := range g.Adj[node] {
			if color[next] == gray {
				cycle := []string{node}
				cur := node
				for cur != next {
					cur = parent[cur]
					cycle = append(cycle, cur)
				}
				// Reverse into forward order.
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return cycle
			}
			if color[next] == white {
				parent[next] = node
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			}
		}
		color[node] = black
		return nil
	}

	ids := make([]string, 0, len(g.Tasks))
	for id := range g.Tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if color[id] == white {
			if cycle := dfs(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}
