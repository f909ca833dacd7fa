package depgraph

import (
	"fmt"
	"sort"
	"time"

	"github.com/joshharrison/heddle/internal/task"
)

// temporalSlack is how much later a dependency may have been created
// than its dependent before the edge is considered implausible.
const temporalSlack = 7 * 24 * time.Hour

// Builder infers a dependency graph from a task snapshot using an
// ordered pattern table.
type Builder struct {
	patterns []Pattern
}

// NewBuilder returns a Builder with the given patterns, defaulting to
// DefaultPatterns when none are supplied.
func NewBuilder(patterns []Pattern) *Builder {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	return &Builder{patterns: patterns}
}

// Build infers a dependency graph from the snapshot. Every pattern is
// tested against every ordered pair of distinct tasks; matches that
// pass the logical-validity checks become candidate edges, the highest
// confidence edge per pair survives, and redundant soft edges are
// removed by transitive reduction. The result may still contain cycles;
// call Resolve to guarantee acyclicity.
func (b *Builder) Build(snap *task.Snapshot) *Graph {
	g := &Graph{
		Tasks:  make(map[string]*task.Task, snap.Len()),
		Adj:    make(map[string][]string),
		RevAdj: make(map[string][]string),
	}
	for i := range snap.Tasks {
		t := &snap.Tasks[i]
		g.Tasks[t.ID] = t
	}

	// Sort ids so edge candidates are produced in a stable order.
	ids := make([]string, 0, len(g.Tasks))
	for id := range g.Tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Highest-confidence candidate per ordered (dependent, dependency) pair.
	best := make(map[[2]string]Edge)
	for _, depID := range ids {
		for _, reqID := range ids {
			if depID == reqID {
				continue
			}
			dependent := g.Tasks[depID]
			dependency := g.Tasks[reqID]
			for _, p := range b.patterns {
				if !p.Matches(dependent, dependency) {
					continue
				}
				if !logicallyValid(p, dependent, dependency) {
					continue
				}
				e := Edge{
					DependentID:  depID,
					DependencyID: reqID,
					Type:         Soft,
					Confidence:   p.Confidence,
					Pattern:      p.Name,
					Reasoning:    fmt.Sprintf("%s: %q should follow %q", p.Name, dependent.Name, dependency.Name),
				}
				if p.Mandatory {
					e.Type = Hard
				}
				key := [2]string{depID, reqID}
				if prev, ok := best[key]; !ok || e.Confidence > prev.Confidence {
					best[key] = e
				}
			}
		}
	}

	g.Edges = make([]Edge, 0, len(best))
	for _, depID := range ids {
		for _, reqID := range ids {
			if e, ok := best[[2]string{depID, reqID}]; ok {
				g.Edges = append(g.Edges, e)
			}
		}
	}

	g.rebuildAdjacency()
	g.transitiveReduce()
	return g
}

// logicallyValid applies the validity checks that a raw text match must
// still pass before becoming an edge.
func logicallyValid(p Pattern, dependent, dependency *task.Task) bool {
	// A completed prerequisite does not need re-asserting as a live
	// constraint against a task that has not started.
	if dependency.Status == task.StatusDone && dependent.Status == task.StatusTodo {
		return false
	}
	// Same-component rules require shared vocabulary between names.
	if p.SharedVocab && !shareVocabulary(dependent, dependency) {
		return false
	}
	// A dependency created long after its dependent is implausible.
	if !dependency.CreatedAt.IsZero() && !dependent.CreatedAt.IsZero() {
		if dependency.CreatedAt.After(dependent.CreatedAt.Add(temporalSlack)) {
			return false
		}
	}
	return true
}

// rebuildAdjacency recomputes Adj and RevAdj from the edge list.
// Adjacency runs dependency -> dependent, so traversal follows the
// order work must happen in.
func (g *Graph) rebuildAdjacency() {
	g.Adj = make(map[string][]string)
	g.RevAdj = make(map[string][]string)
	for _, e := range g.Edges {
		g.Adj[e.DependencyID] = append(g.Adj[e.DependencyID], e.DependentID)
		g.RevAdj[e.DependentID] = append(g.RevAdj[e.DependentID], e.DependencyID)
	}
	for k := range g.Adj {
		sort.Strings(g.Adj[k])
	}
	for k := range g.RevAdj {
		sort.Strings(g.RevAdj[k])
	}
}

// transitiveReduce drops direct soft edges already implied by a
// multi-hop path. Hard edges are always retained: they encode mandatory
// semantics that must stay auditable even when redundant.
func (g *Graph) transitiveReduce() {
	kept := g.Edges[:0]
	for _, e := range g.Edges {
		if e.Type == Hard || !g.impliedIndirectly(e) {
			kept = append(kept, e)
		}
	}
	g.Edges = kept
	g.rebuildAdjacency()
}

// impliedIndirectly reports whether a path of length >= 2 connects the
// edge's dependency to its dependent without using the edge itself.
func (g *Graph) impliedIndirectly(e Edge) bool {
	seen := map[string]bool{e.DependencyID: true}
	var walk func(from string, depth int) bool
	walk = func(from string, depth int) bool {
		for _, next := range g.Adj[from] {
			if from == e.DependencyID && next == e.DependentID {
				continue // the direct edge under test
			}
			if next == e.DependentID && depth >= 1 {
				return true
			}
			if !seen[next] {
				seen[next] = true
				if walk(next, depth+1) {
					return true
				}
			}
		}
		return false
	}
	return walk(e.DependencyID, 0)
}
