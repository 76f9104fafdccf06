// Package metrics is the process-wide metrics facade.
//
// Core code records through the package functions; a concrete Backend
// (Datadog today) is installed once at startup with SetBackend. Until then
// every call goes to a no-op backend, so libraries and tests never need to
// configure anything.
package metrics

import (
	"sync"
	"time"
)

// Metric names recorded by the import pipeline.
const (
	StepTotal           = "etl_step_total"
	StepDurationSeconds = "etl_step_duration_seconds"
	RecordsTotal        = "etl_records_total"
	BytesTotal          = "etl_bytes_total"
	BatchesTotal        = "etl_batches_total"
)

// Labels are metric dimensions (step, status, kind, ...).
type Labels map[string]string

// Backend receives metric observations.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	current Backend = nopBackend{}
)

// SetBackend installs b as the process backend. A nil b restores the no-op.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		current = nopBackend{}
		return
	}
	current = b
}

func backend() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// IncCounter adds delta to a counter.
func IncCounter(name string, delta float64, labels Labels) {
	backend().IncCounter(name, delta, labels)
}

// ObserveHistogram records one sample.
func ObserveHistogram(name string, value float64, labels Labels) {
	backend().ObserveHistogram(name, value, labels)
}

// Flush pushes buffered observations, if the backend buffers.
func Flush() error {
	return backend().Flush()
}

// RecordStep counts one pipeline step and its duration under step/status labels.
func RecordStep(step, status string, d time.Duration) {
	l := Labels{"step": step, "status": status}
	b := backend()
	b.IncCounter(StepTotal, 1, l)
	b.ObserveHistogram(StepDurationSeconds, d.Seconds(), l)
}
