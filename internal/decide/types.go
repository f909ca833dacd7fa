// Package decide implements the hybrid decision framework: mandatory
// rule-based safety checks fused with optional AI scoring, and the
// multi-factor scorer that picks the best task for an agent.
package decide

import (
	"time"

	"github.com/joshharrison/heddle/internal/cpm"
	"github.com/joshharrison/heddle/internal/depgraph"
	"github.com/joshharrison/heddle/internal/insight"
	"github.com/joshharrison/heddle/internal/task"
)

// Context carries the request-scoped inputs for a decision round.
// Everything here is read-only for the duration of the round.
type Context struct {
	Agent        *task.Agent
	Snapshot     *task.Snapshot
	Graph        *depgraph.Graph
	CriticalPath *cpm.Result
}

// Breakdown records how a combined confidence was produced.
type Breakdown struct {
	RuleComponent float64 `json:"rule_component"`
	AIComponent   float64 `json:"ai_component"`
	RuleWeight    float64 `json:"rule_weight"`
	AIWeight      float64 `json:"ai_weight"`
}

// Decision is the outcome of evaluating one assignment. Ephemeral:
// produced per request, never persisted by this engine.
type Decision struct {
	ID             string           `json:"id"`
	TaskID         string           `json:"task_id"`
	Allow          bool             `json:"allow"`
	Confidence     float64          `json:"confidence"`
	Reason         string           `json:"reason"`
	SafetyCritical bool             `json:"safety_critical"`
	Degraded       bool             `json:"degraded"`
	Insight        *insight.Insight `json:"insight,omitempty"`
	Breakdown      *Breakdown       `json:"breakdown,omitempty"`
	EvaluatedAt    time.Time        `json:"evaluated_at"`
}

// Scores are the per-factor components behind a candidate's total.
type Scores struct {
	Skill      float64 `json:"skill"`
	Priority   float64 `json:"priority"`
	Dependency float64 `json:"dependency"`
	AI         float64 `json:"ai"`
	Impact     float64 `json:"impact"`
	Total      float64 `json:"total"`
}

// Candidate is one task considered during selection, with its decision
// and score components, for explainability.
type Candidate struct {
	Task     *task.Task `json:"task"`
	Decision Decision   `json:"decision"`
	Scores   Scores     `json:"scores"`
}
