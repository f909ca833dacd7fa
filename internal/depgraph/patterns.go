package depgraph

import (
	"strings"

	"github.com/joshharrison/heddle/internal/task"
)

// Pattern is a declarative inference rule: when the dependent task's
// text matches DependentAny and the candidate dependency's text matches
// DependencyAny, an edge is proposed at the given confidence.
type Pattern struct {
	Name          string   `json:"name" yaml:"name"`
	DependentAny  []string `json:"dependent_any" yaml:"dependent_any"`
	DependencyAny []string `json:"dependency_any" yaml:"dependency_any"`
	Confidence    float64  `json:"confidence" yaml:"confidence"`
	Mandatory     bool     `json:"mandatory" yaml:"mandatory"`

	// SharedVocab additionally requires the two task names to share at
	// least one meaningful word, for same-component rules.
	SharedVocab bool `json:"shared_vocab,omitempty" yaml:"shared_vocab,omitempty"`
}

// DefaultPatterns is the canonical inference rule set, evaluated in
// order for every ordered pair of distinct tasks.
var DefaultPatterns = []Pattern{
	{
		Name:          "setup_before_everything",
		DependentAny:  nil, // matches any dependent
		DependencyAny: []string{"setup", "set up", "scaffold", "initialize", "init ", "configure", "environment", "bootstrap"},
		Confidence:    0.90,
		Mandatory:     true,
	},
	{
		Name:          "design_before_implementation",
		DependentAny:  []string{"implement", "build", "develop", "code", "write"},
		DependencyAny: []string{"design", "architect", "wireframe", "mockup"},
		Confidence:    0.85,
	},
	{
		Name:          "backend_before_frontend",
		DependentAny:  []string{"frontend", "front-end", "ui integration", "client-side", "integrate"},
		DependencyAny: []string{"backend", "back-end", "api", "server", "endpoint"},
		Confidence:    0.75,
	},
	{
		Name:          "implementation_before_testing",
		DependentAny:  []string{"test", "qa", "verify", "validation"},
		DependencyAny: []string{"implement", "build", "develop", "code", "api", "feature"},
		Confidence:    0.95,
		Mandatory:     true,
	},
	{
		Name:          "testing_before_deployment",
		DependentAny:  []string{"deploy", "release", "launch", "ship", "rollout"},
		DependencyAny: []string{"test", "qa", "verify", "quality"},
		Confidence:    0.95,
		Mandatory:     true,
	},
	{
		Name:          "schema_before_models",
		DependentAny:  []string{"model", "orm", "entity", "repository"},
		DependencyAny: []string{"schema", "migration", "database design"},
		Confidence:    0.80,
	},
	{
		Name:          "auth_before_authorization",
		DependentAny:  []string{"authorization", "permission", "role", "access control"},
		DependencyAny: []string{"authentication", "login", "signin", "sign-in"},
		Confidence:    0.90,
		Mandatory:     true,
	},
	{
		Name:          "crud_before_advanced",
		DependentAny:  []string{"optimize", "advanced", "search", "filter", "pagination", "cache", "performance"},
		DependencyAny: []string{"crud", "basic"},
		Confidence:    0.70,
	},
	{
		Name:          "same_component_impl_before_test",
		DependentAny:  []string{"test", "qa", "verify"},
		DependencyAny: []string{"implement", "build", "develop", "create"},
		Confidence:    0.85,
		Mandatory:     true,
		SharedVocab:   true,
	},
}

// taskText returns the lowercase name+description used for matching.
func taskText(t *task.Task) string {
	if t.Description == "" {
		return strings.ToLower(t.Name)
	}
	return strings.ToLower(t.Name + " " + t.Description)
}

// matchesAny reports whether text contains any of the keywords.
// An empty keyword list matches everything.
func matchesAny(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Matches tests the pattern against a (dependent, dependency) pair.
func (p Pattern) Matches(dependent, dependency *task.Task) bool {
	return matchesAny(taskText(dependent), p.DependentAny) &&
		matchesAny(taskText(dependency), p.DependencyAny)
}

// stopwords excluded when comparing task name vocabulary.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "to": true, "for": true,
	"of": true, "in": true, "on": true, "and": true, "or": true,
	"with": true, "new": true, "add": true,
	"implement": true, "build": true, "create": true, "develop": true,
	"test": true, "tests": true, "testing": true, "write": true,
}

// meaningfulWords returns the non-stopword tokens of a task name.
func meaningfulWords(name string) []string {
	fields := strings.Fields(strings.ToLower(name))
	var out []string
	for _, f := range fields {
		f = strings.Trim(f, ".,:;()[]\"'")
		if len(f) > 1 && !stopwords[f] {
			out = append(out, f)
		}
	}
	return out
}

// shareVocabulary reports whether two task names share at least one
// meaningful word after stopword removal.
func shareVocabulary(a, b *task.Task) bool {
	seen := make(map[string]bool)
	for _, w := range meaningfulWords(a.Name) {
		seen[w] = true
	}
	for _, w := range meaningfulWords(b.Name) {
		if seen[w] {
			return true
		}
	}
	return false
}
