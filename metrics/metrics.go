// Package metrics defines the Prometheus instrumentation for the API
// server: prediction traffic, training runs, and export volume.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the server updates.
type Metrics struct {
	PredictionsTotal   prometheus.Counter
	PredictionFailures prometheus.Counter
	BatchRowsSkipped   prometheus.Counter
	TrainingRuns       prometheus.Counter
	TrainingFailures   prometheus.Counter
	TrainingDuration   prometheus.Histogram
	ExportedRows       prometheus.Counter
}

// New registers all collectors with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers against a caller-supplied registry, which keeps
// tests isolated from the global state.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		PredictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "studentpredict_api_predictions_total",
			Help: "Total number of predictions served.",
		}),
		PredictionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "studentpredict_api_prediction_failures_total",
			Help: "Total number of prediction requests that failed.",
		}),
		BatchRowsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "studentpredict_api_batch_rows_skipped_total",
			Help: "Total number of batch rows excluded for incomplete features.",
		}),
		TrainingRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "studentpredict_api_training_runs_total",
			Help: "Total number of completed training runs.",
		}),
		TrainingFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "studentpredict_api_training_failures_total",
			Help: "Total number of failed training runs.",
		}),
		TrainingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "studentpredict_api_training_duration_seconds",
			Help:    "Duration of a full training run.",
			Buckets: []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		}),
		ExportedRows: factory.NewCounter(prometheus.CounterOpts{
			Name: "studentpredict_api_exported_rows_total",
			Help: "Total number of rows written by CSV exports.",
		}),
	}
}
