package cpm

import (
	"fmt"
	"math"
	"sort"

	"github.com/joshharrison/heddle/internal/depgraph"
)

// slackEpsilon absorbs float accumulation error when testing for zero
// slack; durations are fractional hours, so exact comparison is unsound.
const slackEpsilon = 1e-9

// Analyze performs critical path analysis on an acyclic dependency
// graph. Task duration is the estimated effort in hours, defaulting to
// 1 when unset.
func Analyze(g *depgraph.Graph) (*Result, error) {
	order, err := topoSort(g)
	if err != nil {
		return nil, err
	}

	durations := make(map[string]float64, len(g.Tasks))
	for id, t := range g.Tasks {
		durations[id] = t.Duration()
	}

	result := &Result{
		Schedules: make(map[string]*Schedule, len(order)),
		TopoOrder: order,
	}
	for _, id := range order {
		result.Schedules[id] = &Schedule{TaskID: id}
	}

	// Forward pass: ES = max EF over dependencies.
	for _, id := range order {
		s := result.Schedules[id]
		es := 0.0
		for _, dep := range g.RevAdj[id] {
			if ef := result.Schedules[dep].EF; ef > es {
				es = ef
			}
		}
		s.ES = es
		s.EF = es + durations[id]
	}

	for _, s := range result.Schedules {
		if s.EF > result.TotalHours {
			result.TotalHours = s.EF
		}
	}

	// Backward pass in reverse topological order: LF = min LS over
	// dependents, or project end for tasks nothing waits on.
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		s := result.Schedules[id]
		if len(g.Adj[id]) == 0 {
			s.LF = result.TotalHours
		} else {
			minLS := result.TotalHours
			for _, succ := range g.Adj[id] {
				if ls := result.Schedules[succ].LS; ls < minLS {
					minLS = ls
				}
			}
			s.LF = minLS
		}
		s.LS = s.LF - durations[id]
		s.Slack = s.LS - s.ES
		s.IsCritical = math.Abs(s.Slack) < slackEpsilon
	}

	result.CriticalPath = reconstructPath(g, result)
	result.Waves = computeWaves(result, g)
	return result, nil
}

// topoSort performs Kahn's algorithm over the forward adjacency.
func topoSort(g *depgraph.Graph) ([]string, error) {
	inDegree := make(map[string]int, len(g.Tasks))
	for id := range g.Tasks {
		inDegree[id] = len(g.RevAdj[id])
	}

	var queue []string
	for id := range g.Tasks {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	var order []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		var newReady []string
		for _, succ := range g.Adj[node] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				newReady = append(newReady, succ)
			}
		}
		sort.Strings(newReady)
		queue = append(queue, newReady...)
	}

	if len(order) != len(g.Tasks) {
		return nil, fmt.Errorf("topological sort failed: graph has a cycle (%d of %d tasks sorted)", len(order), len(g.Tasks))
	}
	return order, nil
}

// reconstructPath walks backward from the task with the largest
// earliest finish, repeatedly choosing the dependency with the largest
// earliest finish, then reverses into forward order.
func reconstructPath(g *depgraph.Graph, result *Result) []string {
	if len(result.TopoOrder) == 0 {
		return nil
	}

	end := ""
	for _, id := range result.TopoOrder {
		if end == "" || result.Schedules[id].EF > result.Schedules[end].EF {
			end = id
		}
	}

	var path []string
	cur := end
	for cur != "" {
		path = append(path, cur)
		next := ""
		for _, dep := range g.RevAdj[cur] {
			if next == "" || result.Schedules[dep].EF > result.Schedules[next].EF {
				next = dep
			}
		}
		cur = next
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// computeWaves groups tasks by earliest start time. Tasks in the same
// wave have no ordering between them and can run in parallel.
func computeWaves(result *Result, g *depgraph.Graph) []Wave {
	esGroups := make(map[float64][]string)
	for _, id := range result.TopoOrder {
		es := result.Schedules[id].ES
		esGroups[es] = append(esGroups[es], id)
	}

	esValues := make([]float64, 0, len(esGroups))
	for es := range esGroups {
		esValues = append(esValues, es)
	}
	sort.Float64s(esValues)

	waves := make([]Wave, len(esValues))
	for i, es := range esValues {
		taskIDs := esGroups[es]
		sort.Strings(taskIDs)

		hasCritical := false
		for _, id := range taskIDs {
			result.Schedules[id].Wave = i
			if result.Schedules[id].IsCritical {
				hasCritical = true
			}
		}

		// Critical tasks first within a wave.
		sort.SliceStable(taskIDs, func(a, b int) bool {
			aCrit := result.Schedules[taskIDs[a]].IsCritical
			bCrit := result.Schedules[taskIDs[b]].IsCritical
			return aCrit && !bCrit
		})

		waves[i] = Wave{Index: i, TaskIDs: taskIDs, IsCritical: hasCritical}
	}
	return waves
}
