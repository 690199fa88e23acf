package observability

import (
	"sync"
)

// Metrics provides basic in-memory counters for transitions, sweep runs and
// taxonomy errors.
type Metrics struct {
	mu          sync.Mutex
	transitions map[string]int64
	sweeps      map[string]int64
	sweepErrors map[string]int64
	errorCount  map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		transitions: make(map[string]int64),
		sweeps:      make(map[string]int64),
		sweepErrors: make(map[string]int64),
		errorCount:  make(map[string]int64),
	}
}

// RecordTransition counts an applied ticket transition.
func (m *Metrics) RecordTransition(action string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions[action]++
}

// RecordSweep counts one completed run of a registered sweep.
func (m *Metrics) RecordSweep(name string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweeps[name]++
}

// RecordSweepError counts a failed sweep run.
func (m *Metrics) RecordSweepError(name string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepErrors[name]++
}

// RecordError counts a taxonomy error returned at the API boundary.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// Snapshot copies the counters for the metrics endpoint.
func (m *Metrics) Snapshot() map[string]map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]map[string]int64{
		"transitions":  copyCounters(m.transitions),
		"sweeps":       copyCounters(m.sweeps),
		"sweep_errors": copyCounters(m.sweepErrors),
		"errors":       copyCounters(m.errorCount),
	}
}

func copyCounters(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
