// Package store adapts the external task store's JSON export into an
// in-memory snapshot. The engine never writes back: assignment is the
// store's responsibility.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joshharrison/heddle/internal/task"
)

// rawTask mirrors the store's export format, tolerating the field
// spellings different board backends use.
type rawTask struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Title         string   `json:"title"` // some boards export title instead of name
	Description   string   `json:"description"`
	Status        string   `json:"status"`
	Priority      string   `json:"priority"`
	Labels        []string `json:"labels"`
	DependencyIDs []string `json:"dependency_ids"`
	Dependencies  []string `json:"dependencies"` // alias
	EstimateHours float64  `json:"estimate_hours"`
	AssignedTo    string   `json:"assigned_to"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

// LoadSnapshot reads a task snapshot from a JSON file. The file holds
// either a bare task array or an object with a "tasks" key.
func LoadSnapshot(path string) (*task.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return ParseSnapshot(data)
}

// ParseSnapshot decodes snapshot JSON.
func ParseSnapshot(data []byte) (*task.Snapshot, error) {
	var raw []rawTask
	if err := json.Unmarshal(data, &raw); err != nil {
		var wrapper struct {
			Tasks []rawTask `json:"tasks"`
		}
		if err2 := json.Unmarshal(data, &wrapper); err2 != nil {
			return nil, fmt.Errorf("parse snapshot: %w", err)
		}
		raw = wrapper.Tasks
	}

	tasks := make([]task.Task, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, rt := range raw {
		if rt.ID == "" {
			return nil, fmt.Errorf("task %d: missing id", i)
		}
		if seen[rt.ID] {
			return nil, fmt.Errorf("duplicate task id %s", rt.ID)
		}
		seen[rt.ID] = true

		t, err := rt.toTask()
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", rt.ID, err)
		}
		tasks = append(tasks, t)
	}
	return task.NewSnapshot(tasks), nil
}

func (rt rawTask) toTask() (task.Task, error) {
	name := rt.Name
	if name == "" {
		name = rt.Title
	}
	if name == "" {
		return task.Task{}, fmt.Errorf("missing name")
	}

	status, err := parseStatus(rt.Status)
	if err != nil {
		return task.Task{}, err
	}
	priority, err := parsePriority(rt.Priority)
	if err != nil {
		return task.Task{}, err
	}

	deps := rt.DependencyIDs
	if len(deps) == 0 {
		deps = rt.Dependencies
	}

	t := task.Task{
		ID:            rt.ID,
		Name:          name,
		Description:   rt.Description,
		Status:        status,
		Priority:      priority,
		Labels:        rt.Labels,
		DependencyIDs: deps,
		EstimateHours: rt.EstimateHours,
		AssignedTo:    rt.AssignedTo,
	}
	if t.CreatedAt, err = parseTime(rt.CreatedAt); err != nil {
		return task.Task{}, fmt.Errorf("created_at: %w", err)
	}
	if t.UpdatedAt, err = parseTime(rt.UpdatedAt); err != nil {
		return task.Task{}, fmt.Errorf("updated_at: %w", err)
	}
	return t, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: %w", s, err)
	}
	return ts, nil
}

func parseStatus(s string) (task.Status, error) {
	switch normalize(s) {
	case "", "todo", "open", "backlog":
		return task.StatusTodo, nil
	case "in_progress", "inprogress", "doing", "active":
		return task.StatusInProgress, nil
	case "blocked":
		return task.StatusBlocked, nil
	case "done", "closed", "completed":
		return task.StatusDone, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

func parsePriority(s string) (task.Priority, error) {
	switch normalize(s) {
	case "urgent", "critical":
		return task.PriorityUrgent, nil
	case "high":
		return task.PriorityHigh, nil
	case "", "medium", "normal":
		return task.PriorityMedium, nil
	case "low":
		return task.PriorityLow, nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

func normalize(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(strings.ToLower(s)), "-", "_")
}
