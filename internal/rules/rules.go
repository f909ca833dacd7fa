// Package rules implements the mandatory, deterministic safety checks
// that gate every assignment decision. Rule results are never
// overridden by AI scoring.
package rules

import (
	"fmt"
	"strings"

	"github.com/joshharrison/heddle/internal/task"
)

// Result is the outcome of a safety analysis for one (task, snapshot)
// pair.
type Result struct {
	IsValid        bool    `json:"is_valid"`
	Confidence     float64 `json:"confidence"`
	Reason         string  `json:"reason"`
	SafetyCritical bool    `json:"safety_critical"`
	Mandatory      bool    `json:"mandatory"`
}

// Vocabulary classifies tasks for the mandatory ordering checks.
// Kept as data so individual word lists can be tested and extended
// without touching check logic.
var (
	deploymentWords = []string{"deploy", "release", "launch", "ship", "rollout"}
	testingWords    = []string{"test", "qa", "verify", "quality"}
)

// Engine runs the safety checks. It is stateless and safe for
// concurrent use.
type Engine struct{}

// NewEngine returns a safety rule engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Analyze runs the three safety checks in order, short-circuiting on
// the first failure. A failing result is returned immediately; no AI
// signal is ever consulted for a rejection.
func (e *Engine) Analyze(t *task.Task, snap *task.Snapshot) Result {
	if r := e.checkIllogical(t); !r.IsValid {
		return r
	}
	if r := e.checkDependencies(t, snap); !r.IsValid {
		return r
	}
	if r := e.checkMandatoryOrdering(t, snap); !r.IsValid {
		return r
	}
	return Result{
		IsValid:    true,
		Confidence: 0.9,
		Reason:     "all safety checks passed",
	}
}

// checkIllogical flags assignment requests that are self-evidently
// invalid given snapshot state.
func (e *Engine) checkIllogical(t *task.Task) Result {
	switch {
	case t.Status == task.StatusDone:
		return Result{
			Confidence:     1.0,
			Reason:         fmt.Sprintf("task %s is already done", t.ID),
			SafetyCritical: true,
			Mandatory:      true,
		}
	case t.Status == task.StatusInProgress:
		return Result{
			Confidence:     0.95,
			Reason:         fmt.Sprintf("task %s is already in progress", t.ID),
			SafetyCritical: true,
			Mandatory:      true,
		}
	case t.AssignedTo != "":
		return Result{
			Confidence:     0.95,
			Reason:         fmt.Sprintf("task %s is already assigned to %s", t.ID, t.AssignedTo),
			SafetyCritical: true,
			Mandatory:      true,
		}
	}
	return Result{IsValid: true}
}

// checkDependencies fails when any declared dependency is not done.
// The reason names the incomplete prerequisites so the caller gets an
// actionable message, not a generic failure.
func (e *Engine) checkDependencies(t *task.Task, snap *task.Snapshot) Result {
	var incomplete []string
	for _, depID := range t.DependencyIDs {
		dep := snap.Get(depID)
		if dep == nil {
			// Unknown ids belong to the external store; not ours to police.
			continue
		}
		if dep.Status != task.StatusDone {
			incomplete = append(incomplete, fmt.Sprintf("%s (%s)", dep.ID, dep.Status))
		}
	}
	if len(incomplete) > 0 {
		return Result{
			Confidence:     0.9,
			Reason:         fmt.Sprintf("dependencies incomplete: %s", strings.Join(incomplete, ", ")),
			SafetyCritical: true,
			Mandatory:      true,
		}
	}
	return Result{IsValid: true}
}

// checkMandatoryOrdering rejects deployment tasks while testing tasks
// remain incomplete. When the snapshot contains no testing-classified
// task at all, the check passes trivially: deployment is not blocked
// purely for lack of tests. That asymmetry is inherited policy,
// surfaced to operators via depgraph.Validate rather than changed here.
func (e *Engine) checkMandatoryOrdering(t *task.Task, snap *task.Snapshot) Result {
	if !matchesVocab(t, deploymentWords) {
		return Result{IsValid: true}
	}

	incomplete := 0
	for i := range snap.Tasks {
		other := &snap.Tasks[i]
		if other.ID == t.ID || !matchesVocab(other, testingWords) {
			continue
		}
		if other.Status != task.StatusDone {
			incomplete++
		}
	}
	if incomplete > 0 {
		return Result{
			Confidence:     0.95,
			Reason:         fmt.Sprintf("Deployment blocked: %d testing tasks incomplete", incomplete),
			SafetyCritical: true,
			Mandatory:      true,
		}
	}
	return Result{IsValid: true}
}

func matchesVocab(t *task.Task, words []string) bool {
	text := strings.ToLower(t.Name + " " + t.Description)
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
