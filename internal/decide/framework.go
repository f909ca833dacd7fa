package decide

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joshharrison/heddle/internal/insight"
	"github.com/joshharrison/heddle/internal/rules"
	"github.com/joshharrison/heddle/internal/task"
)

// Default weights for fusing rule and AI confidence. The rule weight
// never drops below ruleWeightFloor: safety evidence always dominates.
const (
	defaultRuleWeight = 0.7
	defaultAIWeight   = 0.3
	ruleWeightFloor   = 0.5
)

// Config tunes a Framework. Zero values take documented defaults.
type Config struct {
	RuleWeight      float64
	AIWeight        float64
	AITimeout       time.Duration
	MaxConcurrentAI int
}

// Framework fuses the safety rule engine with an optional AI insight
// provider. A nil provider means AI scoring is disabled; all decisions
// then run rule-only.
type Framework struct {
	rules    *rules.Engine
	provider insight.Provider
	metrics  *Metrics

	mu         sync.RWMutex
	ruleWeight float64
	aiWeight   float64

	aiTimeout     time.Duration
	maxConcurrent int
}

// New creates a Framework. An invalid weight pair in cfg is replaced by
// the defaults rather than rejected: construction always succeeds.
func New(ruleEngine *rules.Engine, provider insight.Provider, cfg Config) *Framework {
	f := &Framework{
		rules:         ruleEngine,
		provider:      provider,
		metrics:       &Metrics{},
		ruleWeight:    defaultRuleWeight,
		aiWeight:      defaultAIWeight,
		aiTimeout:     cfg.AITimeout,
		maxConcurrent: cfg.MaxConcurrentAI,
	}
	if f.aiTimeout == 0 {
		f.aiTimeout = 10 * time.Second
	}
	if f.maxConcurrent == 0 {
		f.maxConcurrent = 4
	}
	if cfg.RuleWeight != 0 || cfg.AIWeight != 0 {
		// Best effort; defaults stay when the pair is invalid.
		_ = f.SetWeights(cfg.RuleWeight, cfg.AIWeight)
	}
	return f
}

// SetWeights reconfigures the confidence fusion weights. The pair is
// normalized to sum 1.0; a pair whose normalized rule weight falls
// below 0.5 is rejected and the prior weights are retained.
func (f *Framework) SetWeights(rule, ai float64) error {
	if rule <= 0 || ai < 0 {
		return fmt.Errorf("invalid weights: rule=%.2f ai=%.2f", rule, ai)
	}
	norm := rule / (rule + ai)
	if norm < ruleWeightFloor {
		return fmt.Errorf("rule weight %.2f below floor %.2f after normalization", norm, ruleWeightFloor)
	}
	f.mu.Lock()
	f.ruleWeight = norm
	f.aiWeight = 1 - norm
	f.mu.Unlock()
	return nil
}

// Weights returns the current rule and AI weights.
func (f *Framework) Weights() (rule, ai float64) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.ruleWeight, f.aiWeight
}

// Metrics returns the framework's counters.
func (f *Framework) Metrics() *Metrics {
	return f.metrics
}

// MakeDecision evaluates one candidate assignment. The safety path is
// non-negotiable: a rule rejection returns immediately and no AI output
// can flip it. For valid tasks an insight is fetched under a timeout;
// failure degrades the decision to rule-only confidence instead of
// failing it.
func (f *Framework) MakeDecision(ctx context.Context, t *task.Task, dctx Context) Decision {
	d := Decision{
		ID:          uuid.NewString(),
		TaskID:      t.ID,
		EvaluatedAt: time.Now(),
	}

	rr := f.rules.Analyze(t, dctx.Snapshot)
	if !rr.IsValid {
		d.Allow = false
		d.Confidence = rr.Confidence
		d.Reason = "Rule violation: " + rr.Reason
		d.SafetyCritical = true
		f.metrics.recordDecision(false)
		return d
	}

	ins, degraded := f.fetchInsight(ctx, t, dctx)
	d.Allow = true
	d.Insight = ins
	d.Degraded = degraded
	d.Confidence, d.Breakdown = f.combine(rr.Confidence, ins)
	d.Reason = rr.Reason
	if ins != nil && ins.Reasoning != "" {
		d.Reason += "; AI: " + ins.Reasoning
	}
	f.metrics.recordDecision(true)
	return d
}

// fetchInsight asks the provider for an insight under the per-call
// timeout. Any failure is recovered locally: the caller gets a nil
// insight and a degraded flag, never an error.
func (f *Framework) fetchInsight(ctx context.Context, t *task.Task, dctx Context) (*insight.Insight, bool) {
	if f.provider == nil {
		return nil, false // AI disabled, not degraded
	}

	callCtx, cancel := context.WithTimeout(ctx, f.aiTimeout)
	defer cancel()

	ins, err := f.provider.Analyze(callCtx, t, insight.Context{
		Agent:    dctx.Agent,
		Snapshot: dctx.Snapshot,
	})
	f.metrics.recordCall(err != nil)
	if err != nil || ins == nil {
		f.metrics.recordFallback()
		return nil, true
	}
	return ins, false
}

// combine fuses rule and AI confidence. Without an insight the rule
// confidence stands alone.
func (f *Framework) combine(ruleConf float64, ins *insight.Insight) (float64, *Breakdown) {
	rw, aw := f.Weights()
	if ins == nil {
		return ruleConf, &Breakdown{
			RuleComponent: ruleConf,
			RuleWeight:    rw,
			AIWeight:      aw,
		}
	}
	combined := ruleConf*rw + ins.Confidence*aw
	return combined, &Breakdown{
		RuleComponent: ruleConf,
		AIComponent:   ins.Confidence,
		RuleWeight:    rw,
		AIWeight:      aw,
	}
}
