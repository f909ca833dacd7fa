package decide

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joshharrison/heddle/internal/insight"
	"github.com/joshharrison/heddle/internal/rules"
	"github.com/joshharrison/heddle/internal/task"
)

// Factor weights for the candidate score.
const (
	wSkill      = 0.15
	wPriority   = 0.15
	wDependency = 0.25
	wAI         = 0.30
	wImpact     = 0.15
)

// defaultSubScore is the neutral value substituted for AI-derived
// factors when no insight is available.
const defaultSubScore = 0.5

// SelectBest picks the optimal task for an agent from the candidates.
// Candidates failing the safety checks are discarded; surviving
// candidates are scored on five weighted factors and the strictly
// greatest total wins. Ties keep the earliest candidate in input order,
// so output is deterministic for a fixed snapshot and fixed AI
// responses. Returns nil when no candidate survives.
//
// AI insights for independent candidates are fetched concurrently under
// a bounded worker pool; scores are combined only after every
// outstanding call has resolved or timed out, so completion order never
// influences the result.
func (f *Framework) SelectBest(ctx context.Context, agent *task.Agent, candidates []*task.Task, dctx Context) (*task.Task, []Candidate) {
	out := make([]Candidate, 0, len(candidates))
	var survivors []*task.Task
	var survivorRules []rules.Result

	for _, t := range candidates {
		rr := f.rules.Analyze(t, dctx.Snapshot)
		if !rr.IsValid {
			f.metrics.recordDecision(false)
			out = append(out, Candidate{
				Task: t,
				Decision: Decision{
					ID:             uuid.NewString(),
					TaskID:         t.ID,
					Allow:          false,
					Confidence:     rr.Confidence,
					Reason:         "Rule violation: " + rr.Reason,
					SafetyCritical: true,
					EvaluatedAt:    time.Now(),
				},
			})
			continue
		}
		survivors = append(survivors, t)
		survivorRules = append(survivorRules, rr)
	}

	insights := f.fetchAll(ctx, survivors, dctx)

	var best *task.Task
	bestScore := 0.0
	for i, t := range survivors {
		ins := insights[i]
		rr := survivorRules[i]

		d := Decision{
			ID:          uuid.NewString(),
			TaskID:      t.ID,
			Allow:       true,
			Insight:     ins,
			Degraded:    ins == nil && f.provider != nil,
			EvaluatedAt: time.Now(),
		}
		d.Confidence, d.Breakdown = f.combine(rr.Confidence, ins)
		d.Reason = rr.Reason
		if ins != nil && ins.Reasoning != "" {
			d.Reason += "; AI: " + ins.Reasoning
		}
		f.metrics.recordDecision(true)

		scores := f.score(agent, t, ins, dctx)
		out = append(out, Candidate{Task: t, Decision: d, Scores: scores})

		if best == nil || scores.Total > bestScore {
			best = t
			bestScore = scores.Total
		}
	}

	return best, out
}

// fetchAll retrieves insights for all tasks concurrently, bounded by
// the configured worker pool. The returned slice is aligned with the
// input; failed or timed-out calls leave a nil entry.
func (f *Framework) fetchAll(ctx context.Context, tasks []*task.Task, dctx Context) []*insight.Insight {
	results := make([]*insight.Insight, len(tasks))
	if f.provider == nil || len(tasks) == 0 {
		return results
	}

	sem := make(chan struct{}, f.maxConcurrent)
	var wg sync.WaitGroup
	for i, t := range tasks {
		wg.Add(1)
		go func(i int, t *task.Task) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			ins, degraded := f.fetchInsight(ctx, t, dctx)
			if !degraded {
				results[i] = ins
			}
		}(i, t)
	}
	wg.Wait()
	return results
}

// score computes the five weighted sub-scores for one candidate.
func (f *Framework) score(agent *task.Agent, t *task.Task, ins *insight.Insight, dctx Context) Scores {
	s := Scores{
		Skill:      skillMatch(agent, t),
		Priority:   priorityScore(t.Priority),
		Dependency: f.dependencyScore(t, dctx),
		AI:         defaultSubScore,
		Impact:     defaultSubScore,
	}
	if ins != nil {
		s.AI = ins.Suitability * ins.Confidence
		impact := 0.6*ins.TimelineReduction + 0.4*ins.RiskReduction
		if impact > 1 {
			impact = 1
		}
		s.Impact = impact
	}
	s.Total = wSkill*s.Skill + wPriority*s.Priority + wDependency*s.Dependency + wAI*s.AI + wImpact*s.Impact
	return s
}

// skillMatch is the fraction of task labels present in the agent's
// skill set, or 0.5 when either side is empty.
func skillMatch(agent *task.Agent, t *task.Task) float64 {
	if agent == nil || len(agent.Skills) == 0 || len(t.Labels) == 0 {
		return defaultSubScore
	}
	skills := make(map[string]bool, len(agent.Skills))
	for _, s := range agent.Skills {
		skills[strings.ToLower(s)] = true
	}
	matched := 0
	for _, l := range t.Labels {
		if skills[strings.ToLower(l)] {
			matched++
		}
	}
	return float64(matched) / float64(len(t.Labels))
}

// priorityScore maps priority to a fixed [0,1] value.
func priorityScore(p task.Priority) float64 {
	switch p {
	case task.PriorityUrgent:
		return 1.0
	case task.PriorityHigh:
		return 0.8
	case task.PriorityMedium:
		return 0.5
	case task.PriorityLow:
		return 0.2
	default:
		return 0.5
	}
}

// dependencyScore rewards tasks that unblock other work: 0.5 per
// currently-todo dependent, plus 0.5 for sitting on the critical path.
// Deliberately uncapped; a task unblocking several others should
// outrank everything else on this factor.
func (f *Framework) dependencyScore(t *task.Task, dctx Context) float64 {
	dependents := make(map[string]bool)
	if dctx.Graph != nil {
		for _, id := range dctx.Graph.Dependents(t.ID) {
			dependents[id] = true
		}
	}
	if dctx.Snapshot != nil {
		for i := range dctx.Snapshot.Tasks {
			other := &dctx.Snapshot.Tasks[i]
			for _, depID := range other.DependencyIDs {
				if depID == t.ID {
					dependents[other.ID] = true
				}
			}
		}
	}

	score := 0.0
	for id := range dependents {
		if id == t.ID {
			continue
		}
		if dctx.Snapshot != nil {
			if dep := dctx.Snapshot.Get(id); dep != nil && dep.Status == task.StatusTodo {
				score += 0.5
			}
		}
	}

	if dctx.CriticalPath != nil {
		for _, id := range dctx.CriticalPath.CriticalPath {
			if id == t.ID {
				score += 0.5
				break
			}
		}
	}
	return score
}
