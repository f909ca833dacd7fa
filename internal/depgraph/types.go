package depgraph

import "github.com/joshharrison/heddle/internal/task"

// EdgeType classifies how strictly an inferred ordering must hold.
type EdgeType string

const (
	// Hard edges encode mandatory ordering and are never dropped by
	// graph cleanup, even when redundant.
	Hard EdgeType = "hard"
	// Soft edges are advisory and may be removed by transitive
	// reduction or cycle resolution.
	Soft EdgeType = "soft"
)

// Edge is an inferred "must happen before" relationship: the dependency
// task must finish before the dependent task starts.
type Edge struct {
	DependentID  string   `json:"dependent_id"`
	DependencyID string   `json:"dependency_id"`
	Type         EdgeType `json:"type"`
	Confidence   float64  `json:"confidence"`
	Pattern      string   `json:"pattern"`
	Reasoning    string   `json:"reasoning"`
}

// Graph is a directed dependency graph over a task snapshot.
// Adj maps a dependency to the tasks it unblocks; RevAdj maps a
// dependent to the tasks it waits on.
type Graph struct {
	Tasks  map[string]*task.Task
	Edges  []Edge
	Adj    map[string][]string
	RevAdj map[string][]string
}

// NewGraph builds a graph directly from tasks and edges, wiring the
// adjacency maps. Inference normally produces graphs via Builder; this
// constructor serves callers that already hold an edge list.
func NewGraph(tasks map[string]*task.Task, edges []Edge) *Graph {
	g := &Graph{Tasks: tasks, Edges: edges}
	g.rebuildAdjacency()
	return g
}

// Dependents returns the ids of tasks that wait on the given task.
func (g *Graph) Dependents(id string) []string {
	return g.Adj[id]
}

// Dependencies returns the ids of tasks the given task waits on.
func (g *Graph) Dependencies(id string) []string {
	return g.RevAdj[id]
}

// TaskCount returns the number of nodes in the graph.
func (g *Graph) TaskCount() int {
	return len(g.Tasks)
}

// EdgeBetween returns the edge from dependent to dependency, or nil.
func (g *Graph) EdgeBetween(dependentID, dependencyID string) *Edge {
	for i := range g.Edges {
		e := &g.Edges[i]
		if e.DependentID == dependentID && e.DependencyID == dependencyID {
			return e
		}
	}
	return nil
}
