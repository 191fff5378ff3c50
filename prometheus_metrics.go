package batchsched

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics exports scheduler activity as Prometheus collectors.
// Every series carries a "scheduler" label with the scheduler name.
type PrometheusMetrics struct {
	submitted prometheus.Counter
	executed  prometheus.Counter
	finished  prometheus.Counter
	failed    prometheus.Counter
	retried   prometheus.Counter
	removed   prometheus.Counter
	waiting   prometheus.Gauge
	running   prometheus.Gauge
}

// NewPrometheusMetrics registers the scheduler collectors with reg.
// A nil reg registers with the default registerer.
func NewPrometheusMetrics(reg prometheus.Registerer, scheduler string) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	labels := prometheus.Labels{"scheduler": scheduler}
	counter := func(name, help string) prometheus.Counter {
		return f.NewCounter(prometheus.CounterOpts{
			Namespace:   "batchsched",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return f.NewGauge(prometheus.GaugeOpts{
			Namespace:   "batchsched",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}
	return &PrometheusMetrics{
		submitted: counter("jobs_submitted_total", "Jobs accepted by Submit."),
		executed:  counter("job_executions_total", "Executor invocations, retries included."),
		finished:  counter("jobs_finished_total", "Jobs that completed successfully."),
		failed:    counter("jobs_failed_total", "Jobs that failed terminally."),
		retried:   counter("job_retries_total", "Failed executions that were requeued."),
		removed:   counter("jobs_removed_total", "Waiting jobs dropped by Cancel or Clear."),
		waiting:   gauge("jobs_waiting", "Jobs in the waiting queue."),
		running:   gauge("jobs_running", "Jobs currently executing."),
	}
}

// IncSubmitted increments jobs_submitted_total.
func (m *PrometheusMetrics) IncSubmitted() { m.submitted.Inc() }

// IncExecuted increments job_executions_total.
func (m *PrometheusMetrics) IncExecuted() { m.executed.Inc() }

// IncFinished increments jobs_finished_total.
func (m *PrometheusMetrics) IncFinished() { m.finished.Inc() }

// IncFailed increments jobs_failed_total.
func (m *PrometheusMetrics) IncFailed() { m.failed.Inc() }

// IncRetried increments job_retries_total.
func (m *PrometheusMetrics) IncRetried() { m.retried.Inc() }

// AddRemoved adds n to jobs_removed_total.
func (m *PrometheusMetrics) AddRemoved(n int) { m.removed.Add(float64(n)) }

// SetDepth sets the jobs_waiting and jobs_running gauges.
func (m *PrometheusMetrics) SetDepth(waiting, running int) {
	m.waiting.Set(float64(waiting))
	m.running.Set(float64(running))
}
