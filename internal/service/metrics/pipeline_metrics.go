package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	jobsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aethflow",
			Subsystem: "pipeline",
			Name:      "jobs_started_total",
			Help:      "Processing jobs accepted for execution",
		},
	)

	jobsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aethflow",
			Subsystem: "pipeline",
			Name:      "jobs_finished_total",
			Help:      "Processing jobs finished, by terminal status",
		},
		[]string{"status"},
	)

	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aethflow",
			Subsystem: "pipeline",
			Name:      "job_duration_seconds",
			Help:      "End-to-end job duration, by terminal status",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
		[]string{"status"},
	)

	rowsRead = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aethflow",
			Subsystem: "pipeline",
			Name:      "rows_read_total",
			Help:      "Raw CSV rows read across all jobs",
		},
	)

	rowsSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aethflow",
			Subsystem: "pipeline",
			Name:      "rows_skipped_total",
			Help:      "Malformed CSV rows skipped across all jobs",
		},
	)

	windowsEmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aethflow",
			Subsystem: "pipeline",
			Name:      "windows_emitted_total",
			Help:      "Averaging windows emitted across all jobs",
		},
	)

	stageLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aethflow",
			Subsystem: "pipeline",
			Name:      "stage_latency_seconds",
			Help:      "Latency of pipeline stages",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	pipelineErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aethflow",
			Subsystem: "pipeline",
			Name:      "errors_total",
			Help:      "Pipeline errors by kind",
		},
		[]string{"kind"},
	)
)

func register() {
	once.Do(func() {
		prometheus.MustRegister(
			jobsStarted, jobsFinished, jobDuration,
			rowsRead, rowsSkipped, windowsEmitted,
			stageLatency, pipelineErrors,
		)
	})
}

// PipelineMetrics is the Prometheus-backed implementation of the pipeline
// metrics contract.
type PipelineMetrics struct{}

func NewPipelineMetrics() *PipelineMetrics {
	register()
	return &PipelineMetrics{}
}

func (m *PipelineMetrics) RecordJobStarted() { jobsStarted.Inc() }

func (m *PipelineMetrics) RecordJobFinished(status string, seconds float64) {
	jobsFinished.WithLabelValues(status).Inc()
	jobDuration.WithLabelValues(status).Observe(seconds)
}

func (m *PipelineMetrics) RecordRowsRead(n int64) { rowsRead.Add(float64(n)) }

func (m *PipelineMetrics) RecordRowsSkipped(n int64) { rowsSkipped.Add(float64(n)) }

func (m *PipelineMetrics) RecordWindowsEmitted(n int64) { windowsEmitted.Add(float64(n)) }

func (m *PipelineMetrics) RecordStageLatency(stage string, seconds float64) {
	stageLatency.WithLabelValues(stage).Observe(seconds)
}

func (m *PipelineMetrics) RecordError(kind string) {
	pipelineErrors.WithLabelValues(kind).Inc()
}
