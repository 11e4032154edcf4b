// Package monitoring forwards swallowed pipeline errors to an external error
// tracker so local failures stay visible after the run continues.
package monitoring

import (
	"sync"
	"time"
)

// Reporter receives errors the pipeline logged and continued past.
type Reporter interface {
	// SetRunID tags every later capture with the run identifier.
	SetRunID(id string)
	CaptureError(err error, tags map[string]string)
	// Flush blocks until buffered events are sent or timeout passes.
	Flush(timeout time.Duration) bool
}

// NopReporter discards everything. Used when no DSN is configured.
type NopReporter struct{}

func Nop() *NopReporter { return &NopReporter{} }

func (NopReporter) SetRunID(string)                       {}
func (NopReporter) CaptureError(error, map[string]string) {}
func (NopReporter) Flush(time.Duration) bool              { return true }

// OrNop returns r, or a no-op reporter when r is nil.
func OrNop(r Reporter) Reporter {
	if r == nil {
		return Nop()
	}
	return r
}

// Capture is one recorded CaptureError call.
type Capture struct {
	RunID string
	Err   error
	Tags  map[string]string
}

// MemoryReporter keeps captures in memory for tests and dry runs.
type MemoryReporter struct {
	mu       sync.Mutex
	runID    string
	captures []Capture
}

func NewMemoryReporter() *MemoryReporter { return &MemoryReporter{} }

func (m *MemoryReporter) SetRunID(id string) {
	m.mu.Lock()
	m.runID = id
	m.mu.Unlock()
}

func (m *MemoryReporter) CaptureError(err error, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.captures = append(m.captures, Capture{RunID: m.runID, Err: err, Tags: tags})
}

func (m *MemoryReporter) Flush(time.Duration) bool { return true }

// Captures returns a copy of everything captured so far.
func (m *MemoryReporter) Captures() []Capture {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Capture(nil), m.captures...)
}
