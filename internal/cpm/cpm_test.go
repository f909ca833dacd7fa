package cpm

import (
	"reflect"
	"testing"

	"github.com/joshharrison/heddle/internal/depgraph"
	"github.com/joshharrison/heddle/internal/task"
)

func chainGraph(t *testing.T, hours []float64) *depgraph.Graph {
	t.Helper()
	tasks := make(map[string]*task.Task, len(hours))
	ids := []string{"t1", "t2", "t3", "t4", "t5", "t6"}[:len(hours)]
	for i, id := range ids {
		tasks[id] = &task.Task{ID: id, Name: "Task " + id, EstimateHours: hours[i]}
	}
	var edges []depgraph.Edge
	for i := 1; i < len(ids); i++ {
		edges = append(edges, depgraph.Edge{
			DependentID:  ids[i],
			DependencyID: ids[i-1],
			Type:         depgraph.Hard,
			Confidence:   0.9,
		})
	}
	return depgraph.NewGraph(tasks, edges)
}

func TestAnalyze_WeightedChain(t *testing.T) {
	g := chainGraph(t, []float64{2, 4, 3, 2})

	result, err := Analyze(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.TotalHours != 11 {
		t.Errorf("expected total 11h, got %.1f", result.TotalHours)
	}
	want := []string{"t1", "t2", "t3", "t4"}
	if !reflect.DeepEqual(result.CriticalPath, want) {
		t.Errorf("critical path = %v, want %v", result.CriticalPath, want)
	}

	// Every chain task is critical: no slack anywhere.
	for id, s := range result.Schedules {
		if s.Slack != 0 || !s.IsCritical {
			t.Errorf("task %s: slack %.1f critical %v", id, s.Slack, s.IsCritical)
		}
	}
}

func TestAnalyze_FractionalHoursStayCritical(t *testing.T) {
	// 0.1 is not exactly representable in binary, so the backward pass
	// accumulates rounding error. Every task on a linear chain must
	// still come out critical.
	g := chainGraph(t, []float64{0.1, 0.1, 0.1})

	result, err := Analyze(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for id, s := range result.Schedules {
		if !s.IsCritical {
			t.Errorf("task %s: slack %.20f, not critical on a linear chain", id, s.Slack)
		}
	}
	for _, w := range result.Waves {
		if !w.IsCritical {
			t.Errorf("wave %d contains only chain tasks, must be critical", w.Index)
		}
	}
}

func TestAnalyze_MissingEstimateDefaultsToOne(t *testing.T) {
	g := chainGraph(t, []float64{0, 0, 0})

	result, err := Analyze(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalHours != 3 {
		t.Errorf("expected total 3h with default durations, got %.1f", result.TotalHours)
	}
}

func TestAnalyze_DiamondPicksLongerBranch(t *testing.T) {
	tasks := map[string]*task.Task{
		"a": {ID: "a", Name: "A", EstimateHours: 1},
		"b": {ID: "b", Name: "B", EstimateHours: 5},
		"c": {ID: "c", Name: "C", EstimateHours: 2},
		"d": {ID: "d", Name: "D", EstimateHours: 1},
	}
	g := depgraph.NewGraph(tasks, []depgraph.Edge{
		{DependentID: "b", DependencyID: "a", Type: depgraph.Hard, Confidence: 0.9},
		{DependentID: "c", DependencyID: "a", Type: depgraph.Hard, Confidence: 0.9},
		{DependentID: "d", DependencyID: "b", Type: depgraph.Hard, Confidence: 0.9},
		{DependentID: "d", DependencyID: "c", Type: depgraph.Hard, Confidence: 0.9},
	})

	result, err := Analyze(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.TotalHours != 7 {
		t.Errorf("expected total 7h (a+b+d), got %.1f", result.TotalHours)
	}
	want := []string{"a", "b", "d"}
	if !reflect.DeepEqual(result.CriticalPath, want) {
		t.Errorf("critical path = %v, want %v", result.CriticalPath, want)
	}

	// c has slack: it can finish any time before b does.
	if result.Schedules["c"].IsCritical {
		t.Error("c should not be critical")
	}
	if result.Schedules["c"].Slack != 3 {
		t.Errorf("c slack = %.1f, want 3", result.Schedules["c"].Slack)
	}

	// Waves: [a], [b c], [d] with b and c parallelizable.
	if len(result.Waves) != 3 {
		t.Fatalf("expected 3 waves, got %d", len(result.Waves))
	}
	if len(result.Waves[1].TaskIDs) != 2 {
		t.Errorf("wave 1 = %v", result.Waves[1].TaskIDs)
	}
	if result.Waves[1].TaskIDs[0] != "b" {
		t.Errorf("critical task should sort first in wave, got %v", result.Waves[1].TaskIDs)
	}
}

func TestAnalyze_CycleFails(t *testing.T) {
	tasks := map[string]*task.Task{
		"a": {ID: "a", Name: "A"},
		"b": {ID: "b", Name: "B"},
	}
	g := depgraph.NewGraph(tasks, []depgraph.Edge{
		{DependentID: "a", DependencyID: "b", Type: depgraph.Soft, Confidence: 0.5},
		{DependentID: "b", DependencyID: "a", Type: depgraph.Soft, Confidence: 0.5},
	})
	if _, err := Analyze(g); err == nil {
		t.Fatal("expected error for cyclic graph")
	}
}

func TestAnalyze_TopoOrderRespectsDependencies(t *testing.T) {
	g := chainGraph(t, []float64{1, 1, 1, 1, 1})

	result, err := Analyze(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pos := make(map[string]int, len(result.TopoOrder))
	for i, id := range result.TopoOrder {
		pos[id] = i
	}
	for _, e := range g.Edges {
		if pos[e.DependencyID] > pos[e.DependentID] {
			t.Errorf("dependency %s ordered after dependent %s", e.DependencyID, e.DependentID)
		}
	}
}
