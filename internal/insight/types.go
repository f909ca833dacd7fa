// Package insight defines the optional AI scoring interface consumed
// by the decision framework, plus the Anthropic-backed implementation.
// Unavailability is routine here, not exceptional: callers fall back to
// documented neutral defaults on any error.
package insight

import (
	"context"
	"errors"

	"github.com/joshharrison/heddle/internal/task"
)

// ErrUnavailable is returned by providers that cannot produce an
// insight, including the Noop provider.
var ErrUnavailable = errors.New("insight provider unavailable")

// RiskAssessment is the structured risk portion of an insight.
type RiskAssessment struct {
	Level       string   `json:"level,omitempty"`
	Factors     []string `json:"factors,omitempty"`
	Mitigations []string `json:"mitigations,omitempty"`
}

// Insight is the semantic analysis of one candidate assignment.
// All numeric fields are normalized to [0,1].
type Insight struct {
	Intent               string         `json:"intent,omitempty"`
	SemanticDependencies []string       `json:"semantic_dependencies,omitempty"`
	RiskFactors          []string       `json:"risk_factors,omitempty"`
	Suggestions          []string       `json:"suggestions,omitempty"`
	Confidence           float64        `json:"confidence"`
	Reasoning            string         `json:"reasoning,omitempty"`
	Risk                 RiskAssessment `json:"risk,omitempty"`
	Suitability          float64        `json:"suitability"`
	TimelineReduction    float64        `json:"timeline_reduction"`
	RiskReduction        float64        `json:"risk_reduction"`
	EffortHours          float64        `json:"effort_hours,omitempty"`
}

// Context carries the request-scoped inputs a provider may use.
type Context struct {
	Agent    *task.Agent
	Snapshot *task.Snapshot
}

// Provider produces insights for candidate assignments. Implementations
// may block on external I/O; callers bound each call with a timeout.
type Provider interface {
	Analyze(ctx context.Context, t *task.Task, rc Context) (*Insight, error)
}

// Noop is the null provider: AI scoring disabled. Every call reports
// ErrUnavailable so callers take their documented fallback path.
type Noop struct{}

// Analyze implements Provider.
func (Noop) Analyze(context.Context, *task.Task, Context) (*Insight, error) {
	return nil, ErrUnavailable
}

// clamp01 bounds a value to [0,1]. Model output is not trusted to
// respect the schema's ranges.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
