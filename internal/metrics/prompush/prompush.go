// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// A batch CLI has no scrape endpoint, so the run's collectors live in a
// private registry that is pushed once, at the end of the run, to the
// gateway under job=<job> and trial=<trial code>.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"trialinv/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string
	jobName    string
	trial      string
	reg        *prometheus.Registry

	stepCounter  *prometheus.CounterVec // trialinv_step_total
	stepDuration *prometheus.SummaryVec // trialinv_step_duration_seconds
	rowCounter   *prometheus.CounterVec // trialinv_rows_total
	lastSuccess  prometheus.Gauge       // trialinv_last_success_timestamp_seconds
}

// NewBackend constructs a Pushgateway backend. jobName defaults to
// "trialinv"; trial becomes a grouping label so runs for different trials do
// not overwrite each other.
func NewBackend(jobName, trial, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "trialinv"
	}

	reg := prometheus.NewRegistry()

	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Pipeline stage executions, partitioned by step and status.",
		},
		[]string{"step", "status"},
	)
	stepDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.StepDuration,
			Help:       "Duration of pipeline stages in seconds, partitioned by step and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step", "status"},
	)
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Row counts per kind (fetched, excluded, not_viable, written).",
		},
		[]string{"kind"},
	)
	lastSuccess := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: metrics.LastSuccessTime,
			Help: "Unix time of the last successful snapshot write.",
		},
	)

	for _, c := range []prometheus.Collector{stepCounter, stepDuration, rowCounter, lastSuccess} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}

	return &Backend{
		gatewayURL:   gatewayURL,
		jobName:      jobName,
		trial:        trial,
		reg:          reg,
		stepCounter:  stepCounter,
		stepDuration: stepDuration,
		rowCounter:   rowCounter,
		lastSuccess:  lastSuccess,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)
	case metrics.RowsTotal:
		b.rowCounter.WithLabelValues(labels["kind"]).Add(delta)
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StepDuration {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

func (b *Backend) SetGauge(name string, value float64, labels metrics.Labels) {
	if name == metrics.LastSuccessTime {
		b.lastSuccess.Set(value)
	}
}

// Flush pushes the registry to the Pushgateway, replacing the previous push
// for the same job and trial.
func (b *Backend) Flush() error {
	p := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg)
	if b.trial != "" {
		p = p.Grouping("trial", b.trial)
	}
	if err := p.Push(); err != nil {
		return fmt.Errorf("prompush: push to %s: %w", b.gatewayURL, err)
	}
	return nil
}
