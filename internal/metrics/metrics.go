// Package metrics records operational metrics for an extract run behind a
// small backend-agnostic interface.
//
// The global backend defaults to a no-op, so instrumentation is always safe
// to call. Concrete systems live in subpackages (prompush, datadog) and are
// installed with SetBackend by the CLI.
package metrics

import "time"

// Metric names.
const (
	StepTotal       = "trialinv_step_total"
	StepDuration    = "trialinv_step_duration_seconds"
	RowsTotal       = "trialinv_rows_total"
	LastSuccessTime = "trialinv_last_success_timestamp_seconds"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// SetGauge sets a gauge to value.
	SetGauge(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) SetGauge(name string, value float64, labels Labels)         {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep counts one execution of a pipeline stage and observes its
// duration. status is "success" or the error class of the failure.
func RecordStep(trial, step, status string, d time.Duration) {
	lbls := Labels{
		"trial":  trial,
		"step":   step,
		"status": status,
	}
	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRows adds delta to the row counter for kind: "fetched", "excluded",
// "not_viable" or "written".
func RecordRows(trial, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(delta), Labels{
		"trial": trial,
		"kind":  kind,
	})
}

// RecordSuccess stamps the completion time of a successful run.
func RecordSuccess(trial string, at time.Time) {
	backend.SetGauge(LastSuccessTime, float64(at.Unix()), Labels{"trial": trial})
}
