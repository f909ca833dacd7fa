package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joshharrison/heddle/internal/depgraph"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "heddle.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.RuleWeight != 0.7 || cfg.AIWeight != 0.3 {
		t.Errorf("weights = %.2f/%.2f, want 0.7/0.3", cfg.RuleWeight, cfg.AIWeight)
	}
	d, err := cfg.AITimeoutDuration()
	if err != nil || d != 10*time.Second {
		t.Errorf("timeout = %v, %v", d, err)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
rule_weight: 0.8
ai_weight: 0.2
ai_timeout: 30s
max_concurrent_ai: 8
model: claude-sonnet-4-0
cycle_policy: error
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RuleWeight != 0.8 || cfg.AIWeight != 0.2 {
		t.Errorf("weights = %.2f/%.2f", cfg.RuleWeight, cfg.AIWeight)
	}
	if cfg.MaxConcurrentAI != 8 {
		t.Errorf("max_concurrent_ai = %d", cfg.MaxConcurrentAI)
	}
	if cfg.CyclePolicy != "error" {
		t.Errorf("cycle_policy = %q", cfg.CyclePolicy)
	}
	if d, _ := cfg.AITimeoutDuration(); d != 30*time.Second {
		t.Errorf("timeout = %v", d)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "model: claude-sonnet-4-0\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RuleWeight != 0.7 || cfg.AIWeight != 0.3 {
		t.Errorf("untouched weights = %.2f/%.2f", cfg.RuleWeight, cfg.AIWeight)
	}
	if cfg.Model != "claude-sonnet-4-0" {
		t.Errorf("model = %q", cfg.Model)
	}
}

func TestValidate_RuleWeightFloor(t *testing.T) {
	cfg := Default()
	cfg.RuleWeight = 0.3
	cfg.AIWeight = 0.7
	if err := cfg.Validate(); err == nil {
		t.Error("rule weight below half must be rejected")
	}

	// Un-normalized values are fine as long as the ratio holds.
	cfg.RuleWeight = 3
	cfg.AIWeight = 1
	if err := cfg.Validate(); err != nil {
		t.Errorf("3:1 ratio rejected: %v", err)
	}
}

func TestValidate_UnknownCyclePolicy(t *testing.T) {
	cfg := Default()
	cfg.CyclePolicy = "ignore"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown cycle_policy must be rejected")
	}
}

func TestValidate_BadTimeout(t *testing.T) {
	cfg := Default()
	cfg.AITimeout = "soon"
	if err := cfg.Validate(); err == nil {
		t.Error("unparseable ai_timeout must be rejected")
	}
}

func TestLoad_ExtraPatterns(t *testing.T) {
	path := writeConfig(t, `
extra_patterns:
  - name: infra_before_services
    dependent_any: [service, worker]
    dependency_any: [terraform, provision]
    confidence: 0.8
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	pats := cfg.Patterns()
	last := pats[len(pats)-1]
	if last.Name != "infra_before_services" || last.Confidence != 0.8 {
		t.Errorf("extra pattern not appended: %+v", last)
	}
}

func TestValidate_ExtraPatternSanity(t *testing.T) {
	for _, tc := range []struct {
		name       string
		confidence float64
	}{
		{"", 0.5},
		{"bad_confidence", 1.5},
	} {
		c := Default()
		c.ExtraPatterns = append(c.ExtraPatterns, depgraph.Pattern{
			Name:          tc.name,
			DependencyAny: []string{"setup"},
			Confidence:    tc.confidence,
		})
		if err := c.Validate(); err == nil {
			t.Errorf("pattern %q conf %.1f must be rejected", tc.name, tc.confidence)
		}
	}
}
