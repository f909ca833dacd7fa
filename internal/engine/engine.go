// Package engine is the facade tying graph inference, critical path
// analysis, safety rules and the hybrid decision framework into the
// operations the server/API layer consumes.
package engine

import (
	"context"
	"fmt"

	"github.com/joshharrison/heddle/internal/config"
	"github.com/joshharrison/heddle/internal/cpm"
	"github.com/joshharrison/heddle/internal/decide"
	"github.com/joshharrison/heddle/internal/depgraph"
	"github.com/joshharrison/heddle/internal/insight"
	"github.com/joshharrison/heddle/internal/rules"
	"github.com/joshharrison/heddle/internal/task"
)

// Engine coordinates one analysis/decision cycle per invocation.
// Each invocation operates on a read-only snapshot; there is no shared
// mutable state besides the metrics counters, so concurrent use needs
// no locking here.
type Engine struct {
	builder     *depgraph.Builder
	framework   *decide.Framework
	cyclePolicy depgraph.CyclePolicy
}

// New wires an engine from configuration and an insight provider.
// A nil provider disables AI scoring entirely.
func New(cfg *config.Config, provider insight.Provider) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timeout, err := cfg.AITimeoutDuration()
	if err != nil {
		return nil, err
	}

	fw := decide.New(rules.NewEngine(), provider, decide.Config{
		RuleWeight:      cfg.RuleWeight,
		AIWeight:        cfg.AIWeight,
		AITimeout:       timeout,
		MaxConcurrentAI: cfg.MaxConcurrentAI,
	})

	return &Engine{
		builder:     depgraph.NewBuilder(cfg.Patterns()),
		framework:   fw,
		cyclePolicy: depgraph.CyclePolicy(cfg.CyclePolicy),
	}, nil
}

// BuildGraph infers the dependency graph without cycle resolution.
// Useful for diagnostics that need to see cycles before they are
// broken.
func (e *Engine) BuildGraph(snap *task.Snapshot) *depgraph.Graph {
	return e.builder.Build(snap)
}

// InferDependencies builds and resolves the dependency graph for a
// snapshot. The returned graph is acyclic.
func (e *Engine) InferDependencies(snap *task.Snapshot) (*depgraph.Graph, error) {
	g := e.builder.Build(snap)
	if err := g.Resolve(e.cyclePolicy); err != nil {
		return nil, fmt.Errorf("resolve graph: %w", err)
	}
	return g, nil
}

// CriticalPath returns the longest duration-weighted chain through the
// graph as an ordered task id list, with the full schedule analysis.
func (e *Engine) CriticalPath(g *depgraph.Graph) (*cpm.Result, error) {
	result, err := cpm.Analyze(g)
	if err != nil {
		return nil, fmt.Errorf("critical path analysis: %w", err)
	}
	return result, nil
}

// Validate runs the diagnostic pass over a graph.
func (e *Engine) Validate(g *depgraph.Graph) depgraph.Report {
	return g.Validate()
}

// EvaluateAssignment decides whether one task may be assigned, given a
// snapshot. The dependency graph and critical path are derived from the
// snapshot for scoring context.
func (e *Engine) EvaluateAssignment(ctx context.Context, t *task.Task, snap *task.Snapshot, agent *task.Agent) (decide.Decision, error) {
	dctx, err := e.decisionContext(snap, agent)
	if err != nil {
		return decide.Decision{}, err
	}
	return e.framework.MakeDecision(ctx, t, dctx), nil
}

// SelectBestTask picks the optimal safe task for an agent from the
// snapshot's unassigned todo tasks. Returns nil when nothing qualifies.
func (e *Engine) SelectBestTask(ctx context.Context, agent *task.Agent, snap *task.Snapshot) (*task.Task, []decide.Candidate, error) {
	dctx, err := e.decisionContext(snap, agent)
	if err != nil {
		return nil, nil, err
	}

	var candidates []*task.Task
	for i := range snap.Tasks {
		t := &snap.Tasks[i]
		if t.Status == task.StatusTodo && t.AssignedTo == "" {
			candidates = append(candidates, t)
		}
	}

	best, evaluated := e.framework.SelectBest(ctx, agent, candidates, dctx)
	return best, evaluated, nil
}

// SetWeights reconfigures confidence fusion; see decide.SetWeights.
func (e *Engine) SetWeights(rule, ai float64) error {
	return e.framework.SetWeights(rule, ai)
}

// Metrics exposes the engine's decision and provider counters.
func (e *Engine) Metrics() decide.MetricsSnapshot {
	return e.framework.Metrics().Snapshot()
}

func (e *Engine) decisionContext(snap *task.Snapshot, agent *task.Agent) (decide.Context, error) {
	g, err := e.InferDependencies(snap)
	if err != nil {
		return decide.Context{}, err
	}
	path, err := e.CriticalPath(g)
	if err != nil {
		return decide.Context{}, err
	}
	return decide.Context{
		Agent:        agent,
		Snapshot:     snap,
		Graph:        g,
		CriticalPath: path,
	}, nil
}
