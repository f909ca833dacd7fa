package insight

import (
	"context"
	"sync"
	"time"

	"github.com/joshharrison/heddle/internal/task"
)

// Mock is a scripted Provider for tests: per-task insights, an optional
// forced error, and an optional delay to exercise timeout paths.
type Mock struct {
	Insights map[string]*Insight // keyed by task id
	Default  *Insight
	Err      error
	Delay    time.Duration

	mu    sync.Mutex
	calls []string
}

// Analyze implements Provider.
func (m *Mock) Analyze(ctx context.Context, t *task.Task, _ Context) (*Insight, error) {
	m.mu.Lock()
	m.calls = append(m.calls, t.ID)
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if ins, ok := m.Insights[t.ID]; ok {
		return ins, nil
	}
	if m.Default != nil {
		return m.Default, nil
	}
	return nil, ErrUnavailable
}

// Calls returns the task ids analyzed so far, in call order.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}
