package depgraph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joshharrison/heddle/internal/task"
)

// maxChainLength is the dependency chain depth beyond which Validate
// warns that the project is excessively serialized.
const maxChainLength = 20

// Report is the outcome of a diagnostic pass over a graph.
type Report struct {
	Valid      bool       `json:"valid"`
	Issues     []string   `json:"issues,omitempty"`
	Warnings   []string   `json:"warnings,omitempty"`
	Statistics Statistics `json:"statistics"`
}

// Statistics summarizes graph shape for operators.
type Statistics struct {
	TaskCount     int  `json:"task_count"`
	EdgeCount     int  `json:"edge_count"`
	HardEdges     int  `json:"hard_edges"`
	SoftEdges     int  `json:"soft_edges"`
	IsolatedNodes int  `json:"isolated_nodes"`
	LongestChain  int  `json:"longest_chain"`
	HasCycles     bool `json:"has_cycles"`
}

// Validate runs a diagnostic pass: cycles are issues; isolated nodes,
// excessively long chains, and deployment tasks with no test
// dependency are warnings.
func (g *Graph) Validate() Report {
	r := Report{Valid: true}
	r.Statistics.TaskCount = len(g.Tasks)
	r.Statistics.EdgeCount = len(g.Edges)
	for _, e := range g.Edges {
		if e.Type == Hard {
			r.Statistics.HardEdges++
		} else {
			r.Statistics.SoftEdges++
		}
	}

	if cycle := g.DetectCycle(); cycle != nil {
		r.Valid = false
		r.Statistics.HasCycles = true
		r.Issues = append(r.Issues, fmt.Sprintf("dependency cycle: %s", strings.Join(cycle, " -> ")))
	}

	ids := make([]string, 0, len(g.Tasks))
	for id := range g.Tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if len(g.Adj[id]) == 0 && len(g.RevAdj[id]) == 0 && len(g.Tasks) > 1 {
			r.Statistics.IsolatedNodes++
			r.Warnings = append(r.Warnings, fmt.Sprintf("task %s has no dependency relationships", id))
		}
	}

	if !r.Statistics.HasCycles {
		r.Statistics.LongestChain = g.longestChain()
		if r.Statistics.LongestChain > maxChainLength {
			r.Warnings = append(r.Warnings, fmt.Sprintf("dependency chain of %d tasks exceeds %d; project is heavily serialized", r.Statistics.LongestChain, maxChainLength))
		}
	}

	// Deployment tasks should wait on at least one testing task.
	for _, id := range ids {
		t := g.Tasks[id]
		if !mentionsDeployment(t) {
			continue
		}
		hasTestDep := false
		for _, depID := range g.RevAdj[id] {
			if mentionsTesting(g.Tasks[depID]) {
				hasTestDep = true
				break
			}
		}
		if !hasTestDep {
			r.Warnings = append(r.Warnings, fmt.Sprintf("deployment task %s has no testing dependency", id))
		}
	}

	return r
}

// longestChain returns the length in tasks of the longest dependency
// chain. Only meaningful on an acyclic graph.
func (g *Graph) longestChain() int {
	memo := make(map[string]int)
	var depth func(id string) int
	depth = func(id string) int {
		if d, ok := memo[id]; ok {
			return d
		}
		best := 1
		for _, next := range g.Adj[id] {
			if d := depth(next) + 1; d > best {
				best = d
			}
		}
		memo[id] = best
		return best
	}

	longest := 0
	for id := range g.Tasks {
		if d := depth(id); d > longest {
			longest = d
		}
	}
	return longest
}

func mentionsDeployment(t *task.Task) bool {
	return matchesAny(taskText(t), []string{"deploy", "release", "launch", "ship", "rollout"})
}

func mentionsTesting(t *task.Task) bool {
	return matchesAny(taskText(t), []string{"test", "qa", "verify", "quality"})
}
