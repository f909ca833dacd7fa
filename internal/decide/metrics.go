package decide

import "sync"

// Metrics counts provider calls and decision outcomes. Scoped to one
// framework instance and cumulative until Reset; never process-global.
type Metrics struct {
	mu               sync.Mutex
	providerCalls    int
	providerFailures int
	fallbacks        int
	decisions        int
	rejections       int
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	ProviderCalls    int `json:"provider_calls"`
	ProviderFailures int `json:"provider_failures"`
	Fallbacks        int `json:"fallbacks"`
	Decisions        int `json:"decisions"`
	Rejections       int `json:"rejections"`
}

func (m *Metrics) recordCall(failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providerCalls++
	if failed {
		m.providerFailures++
	}
}

func (m *Metrics) recordFallback() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks++
}

func (m *Metrics) recordDecision(allowed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions++
	if !allowed {
		m.rejections++
	}
}

// Snapshot returns a copy of the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		ProviderCalls:    m.providerCalls,
		ProviderFailures: m.providerFailures,
		Fallbacks:        m.fallbacks,
		Decisions:        m.decisions,
		Rejections:       m.rejections,
	}
}

// Reset zeroes all counters.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providerCalls = 0
	m.providerFailures = 0
	m.fallbacks = 0
	m.decisions = 0
	m.rejections = 0
}
