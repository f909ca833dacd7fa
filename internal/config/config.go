// Package config loads engine configuration from a YAML file. Flags at
// the CLI layer override file values; invalid configuration is rejected
// at load time so a running engine never sees it.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joshharrison/heddle/internal/depgraph"
)

// Config holds all recognized engine options.
type Config struct {
	RuleWeight      float64 `yaml:"rule_weight"`
	AIWeight        float64 `yaml:"ai_weight"`
	AITimeout       string  `yaml:"ai_timeout"`
	MaxConcurrentAI int     `yaml:"max_concurrent_ai"`
	Model           string  `yaml:"model"`
	CyclePolicy     string  `yaml:"cycle_policy"`

	// ExtraPatterns are appended after the built-in inference patterns.
	ExtraPatterns []depgraph.Pattern `yaml:"extra_patterns,omitempty"`
}

// Default returns the documented default configuration.
func Default() *Config {
	return &Config{
		RuleWeight:      0.7,
		AIWeight:        0.3,
		AITimeout:       "10s",
		MaxConcurrentAI: 4,
		CyclePolicy:     string(depgraph.PolicyBreak),
	}
}

// Load reads a YAML config file, applies defaults for absent fields,
// and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects invalid option combinations synchronously.
func (c *Config) Validate() error {
	if c.RuleWeight <= 0 || c.AIWeight < 0 {
		return fmt.Errorf("invalid weights: rule_weight=%.2f ai_weight=%.2f", c.RuleWeight, c.AIWeight)
	}
	if c.RuleWeight/(c.RuleWeight+c.AIWeight) < 0.5 {
		return fmt.Errorf("rule_weight must stay at or above 0.5 after normalization")
	}
	if _, err := c.AITimeoutDuration(); err != nil {
		return err
	}
	if c.MaxConcurrentAI < 0 {
		return fmt.Errorf("max_concurrent_ai must not be negative")
	}
	switch depgraph.CyclePolicy(c.CyclePolicy) {
	case "", depgraph.PolicyBreak, depgraph.PolicyError:
	default:
		return fmt.Errorf("unknown cycle_policy %q", c.CyclePolicy)
	}
	for _, p := range c.ExtraPatterns {
		if p.Name == "" {
			return fmt.Errorf("extra pattern missing name")
		}
		if p.Confidence <= 0 || p.Confidence > 1 {
			return fmt.Errorf("pattern %s: confidence %.2f outside (0,1]", p.Name, p.Confidence)
		}
	}
	return nil
}

// AITimeoutDuration parses the per-call AI timeout.
func (c *Config) AITimeoutDuration() (time.Duration, error) {
	if c.AITimeout == "" {
		return 10 * time.Second, nil
	}
	d, err := time.ParseDuration(c.AITimeout)
	if err != nil {
		return 0, fmt.Errorf("parse ai_timeout: %w", err)
	}
	return d, nil
}

// Patterns returns the full inference pattern list: built-ins followed
// by any configured extras.
func (c *Config) Patterns() []depgraph.Pattern {
	if len(c.ExtraPatterns) == 0 {
		return depgraph.DefaultPatterns
	}
	out := make([]depgraph.Pattern, 0, len(depgraph.DefaultPatterns)+len(c.ExtraPatterns))
	out = append(out, depgraph.DefaultPatterns...)
	out = append(out, c.ExtraPatterns...)
	return out
}
