package decide

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/joshharrison/heddle/internal/insight"
	"github.com/joshharrison/heddle/internal/rules"
	"github.com/joshharrison/heddle/internal/task"
)

func mktask(id, name string, status task.Status) task.Task {
	return task.Task{ID: id, Name: name, Status: status, Priority: task.PriorityMedium}
}

func deploySnapshot(testStatus task.Status) *task.Snapshot {
	return task.NewSnapshot([]task.Task{
		mktask("t1", "Design database schema", task.StatusTodo),
		mktask("t2", "Implement API", task.StatusTodo),
		mktask("t3", "Test API", testStatus),
		mktask("t4", "Deploy to production", task.StatusTodo),
	})
}

func newFramework(p insight.Provider, cfg Config) *Framework {
	return New(rules.NewEngine(), p, cfg)
}

func TestMakeDecision_RuleViolation(t *testing.T) {
	snap := deploySnapshot(task.StatusTodo)
	fw := newFramework(nil, Config{})

	d := fw.MakeDecision(context.Background(), snap.Get("t4"), Context{Snapshot: snap})

	if d.Allow {
		t.Fatal("deployment with incomplete tests must be rejected")
	}
	if !strings.HasPrefix(d.Reason, "Rule violation: Deployment blocked: 1 testing tasks incomplete") {
		t.Errorf("reason = %q", d.Reason)
	}
	if !d.SafetyCritical {
		t.Error("rejection should be safety critical")
	}
	if d.Confidence != 0.95 {
		t.Errorf("confidence = %.2f, want rule confidence 0.95", d.Confidence)
	}
}

func TestMakeDecision_SafetyNeverOverriddenByAI(t *testing.T) {
	snap := deploySnapshot(task.StatusTodo)

	// An adversarially enthusiastic provider: maximum confidence and
	// suitability for everything. The outcome must not change.
	mock := &insight.Mock{Default: &insight.Insight{
		Confidence:  1.0,
		Suitability: 1.0,
		Reasoning:   "ship it",
	}}
	fw := newFramework(mock, Config{})

	d := fw.MakeDecision(context.Background(), snap.Get("t4"), Context{Snapshot: snap})

	if d.Allow {
		t.Fatal("AI output must never flip a safety rejection")
	}
	if d.Insight != nil {
		t.Error("rejected decisions carry no insight")
	}
	if calls := mock.Calls(); len(calls) != 0 {
		t.Errorf("provider consulted for a rejection: %v", calls)
	}
}

func TestMakeDecision_CombinesConfidences(t *testing.T) {
	snap := deploySnapshot(task.StatusDone)
	mock := &insight.Mock{Default: &insight.Insight{Confidence: 0.8, Reasoning: "solid fit"}}
	fw := newFramework(mock, Config{})

	d := fw.MakeDecision(context.Background(), snap.Get("t4"), Context{Snapshot: snap})

	if !d.Allow {
		t.Fatalf("expected allow, got %q", d.Reason)
	}
	want := 0.9*0.7 + 0.8*0.3
	if math.Abs(d.Confidence-want) > 1e-9 {
		t.Errorf("confidence = %.4f, want %.4f", d.Confidence, want)
	}
	if d.Breakdown == nil {
		t.Fatal("allowed decisions carry a confidence breakdown")
	}
	if d.Breakdown.RuleComponent != 0.9 || d.Breakdown.AIComponent != 0.8 {
		t.Errorf("breakdown = %+v", d.Breakdown)
	}
	if d.Breakdown.RuleWeight != 0.7 || d.Breakdown.AIWeight != 0.3 {
		t.Errorf("breakdown weights = %+v", d.Breakdown)
	}
	if !strings.Contains(d.Reason, "AI: solid fit") {
		t.Errorf("reason should carry the AI component, got %q", d.Reason)
	}
	if d.Degraded {
		t.Error("successful insight is not degraded")
	}
}

func TestMakeDecision_ProviderFailureDegrades(t *testing.T) {
	snap := deploySnapshot(task.StatusDone)
	mock := &insight.Mock{Err: errors.New("rate limited")}
	fw := newFramework(mock, Config{})

	d := fw.MakeDecision(context.Background(), snap.Get("t4"), Context{Snapshot: snap})

	if !d.Allow {
		t.Fatalf("provider failure must not reject, got %q", d.Reason)
	}
	if !d.Degraded {
		t.Error("fallback decisions carry the degraded flag")
	}
	if d.Confidence != 0.9 {
		t.Errorf("confidence should fall back to rule confidence, got %.2f", d.Confidence)
	}

	m := fw.Metrics().Snapshot()
	if m.ProviderFailures != 1 || m.Fallbacks != 1 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestMakeDecision_ProviderTimeoutDegrades(t *testing.T) {
	snap := deploySnapshot(task.StatusDone)
	mock := &insight.Mock{
		Delay:   200 * time.Millisecond,
		Default: &insight.Insight{Confidence: 0.8},
	}
	fw := newFramework(mock, Config{AITimeout: 10 * time.Millisecond})

	d := fw.MakeDecision(context.Background(), snap.Get("t4"), Context{Snapshot: snap})

	if !d.Allow || !d.Degraded {
		t.Errorf("timeout should degrade, not fail: allow=%v degraded=%v", d.Allow, d.Degraded)
	}
}

func TestMakeDecision_NilProviderIsRuleOnly(t *testing.T) {
	snap := deploySnapshot(task.StatusDone)
	fw := newFramework(nil, Config{})

	d := fw.MakeDecision(context.Background(), snap.Get("t4"), Context{Snapshot: snap})

	if !d.Allow {
		t.Fatalf("expected allow, got %q", d.Reason)
	}
	if d.Degraded {
		t.Error("disabled AI is not a degradation")
	}
	if d.Confidence != 0.9 {
		t.Errorf("confidence = %.2f, want rule confidence", d.Confidence)
	}

	m := fw.Metrics().Snapshot()
	if m.ProviderCalls != 0 {
		t.Errorf("nil provider should never be called, metrics = %+v", m)
	}
}

func TestSetWeights_FloorEnforced(t *testing.T) {
	fw := newFramework(nil, Config{})

	if err := fw.SetWeights(0.3, 0.7); err == nil {
		t.Fatal("rule weight below floor must be rejected")
	}
	rule, ai := fw.Weights()
	if rule != 0.7 || ai != 0.3 {
		t.Errorf("rejected update must retain prior weights, got %.2f/%.2f", rule, ai)
	}

	if err := fw.SetWeights(0.6, 0.4); err != nil {
		t.Fatalf("valid weights rejected: %v", err)
	}
	rule, ai = fw.Weights()
	if math.Abs(rule-0.6) > 1e-9 || math.Abs(ai-0.4) > 1e-9 {
		t.Errorf("weights = %.2f/%.2f, want 0.6/0.4", rule, ai)
	}
	if math.Abs((rule+ai)-1.0) > 1e-9 {
		t.Errorf("weights must normalize to sum 1.0, got %.4f", rule+ai)
	}
}

func TestSetWeights_Normalizes(t *testing.T) {
	fw := newFramework(nil, Config{})
	if err := fw.SetWeights(3, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rule, ai := fw.Weights()
	if math.Abs(rule-0.75) > 1e-9 || math.Abs(ai-0.25) > 1e-9 {
		t.Errorf("weights = %.2f/%.2f, want 0.75/0.25", rule, ai)
	}
}

func TestMetrics_Reset(t *testing.T) {
	snap := deploySnapshot(task.StatusDone)
	fw := newFramework(nil, Config{})
	fw.MakeDecision(context.Background(), snap.Get("t4"), Context{Snapshot: snap})

	if m := fw.Metrics().Snapshot(); m.Decisions != 1 {
		t.Fatalf("metrics = %+v", m)
	}
	fw.Metrics().Reset()
	if m := fw.Metrics().Snapshot(); m.Decisions != 0 {
		t.Errorf("reset left counters: %+v", m)
	}
}
