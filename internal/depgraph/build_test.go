package depgraph

import (
	"reflect"
	"testing"
	"time"

	"github.com/joshharrison/heddle/internal/task"
)

func mktask(id, name string, status task.Status) task.Task {
	return task.Task{ID: id, Name: name, Status: status, Priority: task.PriorityMedium}
}

func apiProject() *task.Snapshot {
	return task.NewSnapshot([]task.Task{
		mktask("t1", "Design database schema", task.StatusTodo),
		mktask("t2", "Implement API", task.StatusTodo),
		mktask("t3", "Test API", task.StatusTodo),
		mktask("t4", "Deploy to production", task.StatusTodo),
	})
}

func TestBuild_APIProject(t *testing.T) {
	g := NewBuilder(nil).Build(apiProject())

	if len(g.Edges) != 3 {
		t.Fatalf("expected 3 edges, got %d: %+v", len(g.Edges), g.Edges)
	}

	e := g.EdgeBetween("t2", "t1")
	if e == nil {
		t.Fatal("expected edge t2 -> t1")
	}
	if e.Pattern != "design_before_implementation" {
		t.Errorf("t2->t1 pattern = %s", e.Pattern)
	}
	if e.Type != Soft {
		t.Errorf("t2->t1 should be soft, got %s", e.Type)
	}

	e = g.EdgeBetween("t3", "t2")
	if e == nil {
		t.Fatal("expected edge t3 -> t2")
	}
	if e.Pattern != "implementation_before_testing" || e.Confidence != 0.95 {
		t.Errorf("t3->t2 = %s conf %.2f", e.Pattern, e.Confidence)
	}
	if e.Type != Hard {
		t.Errorf("t3->t2 should be hard, got %s", e.Type)
	}

	e = g.EdgeBetween("t4", "t3")
	if e == nil {
		t.Fatal("expected edge t4 -> t3")
	}
	if e.Pattern != "testing_before_deployment" || e.Confidence != 0.95 {
		t.Errorf("t4->t3 = %s conf %.2f", e.Pattern, e.Confidence)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	b := NewBuilder(nil)
	first := b.Build(apiProject())
	for i := 0; i < 5; i++ {
		again := b.Build(apiProject())
		if !reflect.DeepEqual(first.Edges, again.Edges) {
			t.Fatalf("edge set changed between runs:\n%+v\n%+v", first.Edges, again.Edges)
		}
	}
}

func TestBuild_DonePrerequisiteNotAsserted(t *testing.T) {
	snap := task.NewSnapshot([]task.Task{
		mktask("t1", "Design database schema", task.StatusDone),
		mktask("t2", "Implement API", task.StatusTodo),
	})
	g := NewBuilder(nil).Build(snap)
	if e := g.EdgeBetween("t2", "t1"); e != nil {
		t.Errorf("completed prerequisite should not produce an edge, got %+v", e)
	}
}

func TestBuild_DoneDependencyStillConstrainsStartedWork(t *testing.T) {
	snap := task.NewSnapshot([]task.Task{
		mktask("t1", "Design database schema", task.StatusDone),
		mktask("t2", "Implement API", task.StatusInProgress),
	})
	g := NewBuilder(nil).Build(snap)
	if g.EdgeBetween("t2", "t1") == nil {
		t.Error("dependent already in progress, edge should be kept")
	}
}

func TestBuild_TemporalImplausibility(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	dependent := mktask("t2", "Implement API", task.StatusTodo)
	dependent.CreatedAt = base
	dependency := mktask("t1", "Design database schema", task.StatusTodo)
	dependency.CreatedAt = base.Add(8 * 24 * time.Hour)

	g := NewBuilder(nil).Build(task.NewSnapshot([]task.Task{dependent, dependency}))
	if e := g.EdgeBetween("t2", "t1"); e != nil {
		t.Errorf("dependency created 8 days after dependent should be rejected, got %+v", e)
	}

	// Within the 7-day window the edge survives.
	dependency.CreatedAt = base.Add(6 * 24 * time.Hour)
	g = NewBuilder(nil).Build(task.NewSnapshot([]task.Task{dependent, dependency}))
	if g.EdgeBetween("t2", "t1") == nil {
		t.Error("dependency created 6 days after dependent should be kept")
	}
}

func TestBuild_SameComponentNeedsSharedVocabulary(t *testing.T) {
	patterns := []Pattern{
		{
			Name:          "same_component_impl_before_test",
			DependentAny:  []string{"test"},
			DependencyAny: []string{"implement"},
			Confidence:    0.85,
			Mandatory:     true,
			SharedVocab:   true,
		},
	}
	b := NewBuilder(patterns)

	shared := task.NewSnapshot([]task.Task{
		mktask("impl", "Implement payment service", task.StatusTodo),
		mktask("test", "Test payment service", task.StatusTodo),
	})
	if g := b.Build(shared); g.EdgeBetween("test", "impl") == nil {
		t.Error("expected edge for shared component vocabulary")
	}

	unrelated := task.NewSnapshot([]task.Task{
		mktask("impl", "Implement payment service", task.StatusTodo),
		mktask("test", "Test search indexing", task.StatusTodo),
	})
	if g := b.Build(unrelated); g.EdgeBetween("test", "impl") != nil {
		t.Error("no shared vocabulary, edge should be rejected")
	}
}

func TestBuild_DedupKeepsHighestConfidence(t *testing.T) {
	// Both implementation_before_testing (0.95) and the same-component
	// rule (0.85) match this pair; only the stronger edge survives.
	snap := task.NewSnapshot([]task.Task{
		mktask("impl", "Implement checkout API", task.StatusTodo),
		mktask("test", "Test checkout API", task.StatusTodo),
	})
	g := NewBuilder(nil).Build(snap)

	count := 0
	for _, e := range g.Edges {
		if e.DependentID == "test" && e.DependencyID == "impl" {
			count++
			if e.Confidence != 0.95 {
				t.Errorf("expected highest-confidence edge (0.95), got %.2f via %s", e.Confidence, e.Pattern)
			}
		}
	}
	if count != 1 {
		t.Errorf("expected exactly 1 edge for the pair, got %d", count)
	}
}

func TestTransitiveReduce_DropsImpliedSoftEdge(t *testing.T) {
	tasks := map[string]*task.Task{
		"a": {ID: "a", Name: "A"},
		"b": {ID: "b", Name: "B"},
		"c": {ID: "c", Name: "C"},
	}
	// c depends on b, b depends on a, and a redundant direct c -> a.
	g := NewGraph(tasks, []Edge{
		{DependentID: "b", DependencyID: "a", Type: Soft, Confidence: 0.8},
		{DependentID: "c", DependencyID: "b", Type: Soft, Confidence: 0.8},
		{DependentID: "c", DependencyID: "a", Type: Soft, Confidence: 0.7},
	})
	g.transitiveReduce()

	if g.EdgeBetween("c", "a") != nil {
		t.Error("implied soft edge c -> a should be dropped")
	}
	if g.EdgeBetween("b", "a") == nil || g.EdgeBetween("c", "b") == nil {
		t.Error("chain edges must survive reduction")
	}
}

func TestTransitiveReduce_KeepsRedundantHardEdge(t *testing.T) {
	tasks := map[string]*task.Task{
		"a": {ID: "a", Name: "A"},
		"b": {ID: "b", Name: "B"},
		"c": {ID: "c", Name: "C"},
	}
	g := NewGraph(tasks, []Edge{
		{DependentID: "b", DependencyID: "a", Type: Soft, Confidence: 0.8},
		{DependentID: "c", DependencyID: "b", Type: Soft, Confidence: 0.8},
		{DependentID: "c", DependencyID: "a", Type: Hard, Confidence: 0.95},
	})
	g.transitiveReduce()

	if g.EdgeBetween("c", "a") == nil {
		t.Error("hard edges are never dropped by reduction")
	}
}
