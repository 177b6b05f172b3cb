package monitoring

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// StepStatus reports one pipeline step of a run (fetch, evaluate, notify).
type StepStatus struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RunStatus is the operator-visible outcome of one analysis run: a success
// flag, human-readable errors and a per-step breakdown instead of raw
// exceptions.
type RunStatus struct {
	RunID           string                `json:"run_id"`
	Success         bool                  `json:"success"`
	Timestamp       string                `json:"timestamp"`
	DurationSeconds float64               `json:"duration_seconds"`
	Steps           map[string]StepStatus `json:"steps"`
	Errors          []string              `json:"errors"`
}

// Monitor tracks the health of the most recent run.
type Monitor struct {
	mu             sync.RWMutex
	lastRunSuccess bool
	lastRunTime    time.Time
	lastRunStatus  *RunStatus
}

func NewMonitor() *Monitor {
	return &Monitor{}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = time.Now()
	m.mu.Unlock()

	log.Printf("✅ Run completed successfully - %s (took %v)", summary, duration)
}

func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	// Partial failures don't flip the health status.
	log.Printf("⚠️  PARTIAL FAILURE: %s (Duration: %v)", err.Error(), duration)
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = time.Now()
	m.mu.Unlock()

	log.Printf("🚨 CRITICAL FAILURE: %s (Duration: %v)", err.Error(), duration)
}

// SetRunStatus stores the structured status of the latest run for the
// /status endpoint.
func (m *Monitor) SetRunStatus(status RunStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastRunStatus = &status
}

// LastRunStatus returns the latest structured run status, if any.
func (m *Monitor) LastRunStatus() (RunStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastRunStatus == nil {
		return RunStatus{}, false
	}
	return *m.lastRunStatus, true
}

func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return true // no runs yet
	}
	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return "No runs yet"
	}
	if m.lastRunSuccess {
		return fmt.Sprintf("✅ Last run: %s", m.lastRunTime.Format("Jan 2 15:04"))
	}
	return fmt.Sprintf("❌ Last run failed: %s", m.lastRunTime.Format("Jan 2 15:04"))
}
