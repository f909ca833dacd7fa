// Package report assembles the results of one analysis cycle into a
// single artifact and renders it for terminals or machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/joshharrison/heddle/internal/cpm"
	"github.com/joshharrison/heddle/internal/decide"
	"github.com/joshharrison/heddle/internal/depgraph"
	"github.com/joshharrison/heddle/internal/task"
	"github.com/joshharrison/heddle/internal/ui"
)

// Analysis is the complete output of one engine run over a snapshot.
type Analysis struct {
	ID           string             `json:"id"`
	CreatedAt    time.Time          `json:"created_at"`
	TaskCount    int                `json:"task_count"`
	Edges        []depgraph.Edge    `json:"edges"`
	CriticalPath []string           `json:"critical_path"`
	TotalHours   float64            `json:"total_hours"`
	Waves        [][]string         `json:"waves"`
	Validation   depgraph.Report    `json:"validation"`
	Candidates   []decide.Candidate `json:"candidates,omitempty"`
	Selected     string             `json:"selected,omitempty"`
}

// Build assembles an Analysis from engine outputs. candidates and
// selected may be empty when no selection round ran.
func Build(g *depgraph.Graph, path *cpm.Result, validation depgraph.Report, candidates []decide.Candidate, selected *task.Task) *Analysis {
	a := &Analysis{
		ID:         fmt.Sprintf("heddle-%s", time.Now().Format("2006-01-02-150405")),
		CreatedAt:  time.Now(),
		TaskCount:  g.TaskCount(),
		Edges:      g.Edges,
		Validation: validation,
		Candidates: candidates,
	}
	if path != nil {
		a.CriticalPath = path.CriticalPath
		a.TotalHours = path.TotalHours
		for _, w := range path.Waves {
			a.Waves = append(a.Waves, w.TaskIDs)
		}
	}
	if selected != nil {
		a.Selected = selected.ID
	}
	return a
}

// WriteJSON renders the analysis as indented JSON.
func (a *Analysis) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}

// PrintEdges writes a terminal-friendly edge listing.
func (a *Analysis) PrintEdges(w io.Writer, g *depgraph.Graph) {
	fmt.Fprintf(w, "%s %d tasks, %d dependency edges\n\n", ui.BoldCyan("🧵 Heddle"), a.TaskCount, len(a.Edges))

	edges := make([]depgraph.Edge, len(a.Edges))
	copy(edges, a.Edges)
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].DependentID != edges[j].DependentID {
			return edges[i].DependentID < edges[j].DependentID
		}
		return edges[i].DependencyID < edges[j].DependencyID
	})

	for _, e := range edges {
		fmt.Fprintf(w, "  %s %s %s  %s %s\n",
			ui.TaskPrefix(e.DependentID),
			ui.EdgeArrow(e.Type == depgraph.Hard),
			ui.TaskPrefix(e.DependencyID),
			ui.Dim(fmt.Sprintf("%.2f", e.Confidence)),
			ui.Dim(e.Pattern))
	}
	if len(edges) == 0 {
		fmt.Fprintf(w, "  %s\n", ui.Dim("no dependencies inferred"))
	}
}

// PrintCriticalPath writes the critical path with the schedule for
// each task on it.
func (a *Analysis) PrintCriticalPath(w io.Writer, g *depgraph.Graph, path *cpm.Result) {
	fmt.Fprintf(w, "%s critical path: %d tasks, %.1fh total\n\n", ui.BoldCyan("🧵 Heddle"), len(a.CriticalPath), a.TotalHours)
	for _, id := range a.CriticalPath {
		t := g.Tasks[id]
		s := path.Schedules[id]
		fmt.Fprintf(w, "  %s %s %s %s\n",
			ui.StatusIcon(string(t.Status)),
			ui.TaskPrefix(id),
			t.Name,
			ui.Dim(fmt.Sprintf("[%.1fh-%.1fh]", s.ES, s.EF)))
	}

	fmt.Fprintf(w, "\n  %s\n", ui.Bold("parallel waves"))
	for i, wave := range a.Waves {
		fmt.Fprintf(w, "  🌊 %s %d: %v\n", ui.BoldWhite("WAVE"), i+1, wave)
	}
}

// PrintValidation writes the diagnostic report.
func (a *Analysis) PrintValidation(w io.Writer) {
	v := a.Validation
	verdict := ui.BoldGreen("valid")
	if !v.Valid {
		verdict = ui.BoldRed("invalid")
	}
	fmt.Fprintf(w, "%s graph %s: %d tasks, %d edges (%d hard, %d soft)\n",
		ui.BoldCyan("🧵 Heddle"), verdict,
		v.Statistics.TaskCount, v.Statistics.EdgeCount,
		v.Statistics.HardEdges, v.Statistics.SoftEdges)

	for _, issue := range v.Issues {
		fmt.Fprintf(w, "  %s %s\n", ui.Red("✗"), issue)
	}
	for _, warning := range v.Warnings {
		fmt.Fprintf(w, "  %s %s\n", ui.Yellow("⚠"), warning)
	}
	if v.Valid && len(v.Warnings) == 0 {
		fmt.Fprintf(w, "  %s no issues found\n", ui.Green("✓"))
	}
}

// PrintSelection writes the outcome of a selection round, including
// per-candidate decisions and scores for explainability.
func (a *Analysis) PrintSelection(w io.Writer, agent *task.Agent) {
	name := "agent"
	if agent != nil && agent.ID != "" {
		name = agent.ID
	}
	if a.Selected == "" {
		fmt.Fprintf(w, "%s no assignable task for %s\n", ui.BoldCyan("🧵 Heddle"), ui.Bold(name))
	} else {
		fmt.Fprintf(w, "%s assign %s to %s\n", ui.BoldCyan("🧵 Heddle"), ui.TaskPrefix(a.Selected), ui.Bold(name))
	}

	for _, c := range a.Candidates {
		icon := ui.VerdictIcon(c.Decision.Allow, c.Decision.SafetyCritical)
		if c.Decision.Allow {
			degraded := ""
			if c.Decision.Degraded {
				degraded = ui.Yellow(" (ai degraded)")
			}
			fmt.Fprintf(w, "  %s %s score %.3f confidence %.2f%s\n",
				icon, ui.TaskPrefix(c.Task.ID), c.Scores.Total, c.Decision.Confidence, degraded)
		} else {
			fmt.Fprintf(w, "  %s %s %s\n", icon, ui.TaskPrefix(c.Task.ID), ui.Dim(c.Decision.Reason))
		}
	}
}
