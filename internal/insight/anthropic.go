package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tidwall/gjson"

	"github.com/joshharrison/heddle/internal/task"
)

// Anthropic is a Provider backed by the Claude API.
type Anthropic struct {
	inner anthropic.Client
	model anthropic.Model
}

// NewAnthropic creates a Claude-backed provider. apiKey defaults to
// ANTHROPIC_API_KEY env; model defaults to Claude Sonnet.
func NewAnthropic(apiKey, model string) (*Anthropic, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	inner := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	m := anthropic.ModelClaudeSonnet4_0
	if model != "" {
		m = anthropic.Model(model)
	}

	return &Anthropic{inner: inner, model: m}, nil
}

const analyzePrompt = `You are an expert software project manager evaluating whether one task is a good next assignment for one agent.

Return your answer as JSON with this exact structure:
{
  "intent": "<one sentence: what this task is really about>",
  "semantic_dependencies": ["<task names this implicitly depends on>"],
  "risk_factors": ["<risk>"],
  "suggestions": ["<suggestion>"],
  "confidence": <0.0-1.0, how confident you are in this analysis>,
  "reasoning": "<short justification>",
  "risk": {"level": "low|medium|high", "factors": ["<factor>"], "mitigations": ["<mitigation>"]},
  "suitability": <0.0-1.0, fit between this task and this agent>,
  "timeline_reduction": <0.0-1.0, how much assigning this now shortens the project>,
  "risk_reduction": <0.0-1.0, how much assigning this now reduces project risk>,
  "effort_hours": <estimated effort in hours>
}

Return ONLY the JSON object. No markdown fences, no commentary outside the JSON.

`

// buildPrompt constructs the full analysis prompt.
func buildPrompt(t *task.Task, rc Context) (string, error) {
	payload := map[string]any{
		"task": t,
	}
	if rc.Agent != nil {
		payload["agent"] = rc.Agent
	}
	if rc.Snapshot != nil {
		// Titles only: enough for semantic context, cheap on tokens.
		names := make([]string, 0, rc.Snapshot.Len())
		for i := range rc.Snapshot.Tasks {
			names = append(names, rc.Snapshot.Tasks[i].Name)
		}
		payload["project_tasks"] = names
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	return analyzePrompt + string(data), nil
}

// Analyze calls the Claude API and parses the response into an Insight.
func (a *Anthropic) Analyze(ctx context.Context, t *task.Task, rc Context) (*Insight, error) {
	prompt, err := buildPrompt(t, rc)
	if err != nil {
		return nil, err
	}

	resp, err := a.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: int64(2048),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude API call: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	ins, err := parseInsight(text)
	if err != nil {
		return nil, err
	}
	return ins, nil
}

// parseInsight extracts an Insight from model output. gjson keeps this
// tolerant: a response with missing or extra fields still parses, and
// malformed numerics fall back to zero values rather than failing the
// whole call.
func parseInsight(text string) (*Insight, error) {
	text = stripJSONFences(text)
	if !gjson.Valid(text) {
		return nil, fmt.Errorf("parse insight response: not valid JSON\nraw: %s", text)
	}

	ins := &Insight{
		Intent:            gjson.Get(text, "intent").String(),
		Confidence:        clamp01(gjson.Get(text, "confidence").Float()),
		Reasoning:         gjson.Get(text, "reasoning").String(),
		Suitability:       clamp01(gjson.Get(text, "suitability").Float()),
		TimelineReduction: clamp01(gjson.Get(text, "timeline_reduction").Float()),
		RiskReduction:     clamp01(gjson.Get(text, "risk_reduction").Float()),
		EffortHours:       gjson.Get(text, "effort_hours").Float(),
	}
	ins.Risk.Level = gjson.Get(text, "risk.level").String()
	for _, v := range gjson.Get(text, "semantic_dependencies").Array() {
		ins.SemanticDependencies = append(ins.SemanticDependencies, v.String())
	}
	for _, v := range gjson.Get(text, "risk_factors").Array() {
		ins.RiskFactors = append(ins.RiskFactors, v.String())
	}
	for _, v := range gjson.Get(text, "suggestions").Array() {
		ins.Suggestions = append(ins.Suggestions, v.String())
	}
	for _, v := range gjson.Get(text, "risk.factors").Array() {
		ins.Risk.Factors = append(ins.Risk.Factors, v.String())
	}
	for _, v := range gjson.Get(text, "risk.mitigations").Array() {
		ins.Risk.Mitigations = append(ins.Risk.Mitigations, v.String())
	}
	return ins, nil
}

// stripJSONFences removes markdown code fences that Claude sometimes adds.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
