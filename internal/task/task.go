package task

import "time"

// Status is the lifecycle state of a task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusDone       Status = "done"
)

// Priority ranks how urgently a task should be picked up.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Task is a single unit of project work. The engine treats tasks as a
// read-only snapshot per invocation; mutation happens in the external
// task store, never here.
type Task struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Status        Status    `json:"status"`
	Priority      Priority  `json:"priority"`
	Labels        []string  `json:"labels,omitempty"`
	DependencyIDs []string  `json:"dependency_ids,omitempty"`
	EstimateHours float64   `json:"estimate_hours,omitempty"`
	AssignedTo    string    `json:"assigned_to,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

// Duration returns the estimated effort in hours, defaulting to 1 when
// no estimate is set. Used as the edge weight in critical path analysis.
func (t *Task) Duration() float64 {
	if t.EstimateHours > 0 {
		return t.EstimateHours
	}
	return 1
}

// Agent is a worker requesting task assignments.
type Agent struct {
	ID     string   `json:"id"`
	Name   string   `json:"name,omitempty"`
	Skills []string `json:"skills,omitempty"`
}

// Snapshot is an immutable point-in-time view of all project tasks.
type Snapshot struct {
	Tasks []Task `json:"tasks"`

	byID map[string]*Task
}

// NewSnapshot builds a snapshot from a task list and indexes it by id.
func NewSnapshot(tasks []Task) *Snapshot {
	s := &Snapshot{Tasks: tasks}
	s.reindex()
	return s
}

func (s *Snapshot) reindex() {
	s.byID = make(map[string]*Task, len(s.Tasks))
	for i := range s.Tasks {
		s.byID[s.Tasks[i].ID] = &s.Tasks[i]
	}
}

// Get returns the task with the given id, or nil if absent.
func (s *Snapshot) Get(id string) *Task {
	if s.byID == nil {
		s.reindex()
	}
	return s.byID[id]
}

// Len returns the number of tasks in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.Tasks)
}
