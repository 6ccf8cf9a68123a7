package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWithRegistry(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.PredictionsTotal.Inc()
	m.PredictionsTotal.Inc()
	m.BatchRowsSkipped.Add(3)

	if got := testutil.ToFloat64(m.PredictionsTotal); got != 2 {
		t.Errorf("PredictionsTotal = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.BatchRowsSkipped); got != 3 {
		t.Errorf("BatchRowsSkipped = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.TrainingRuns); got != 0 {
		t.Errorf("TrainingRuns = %v, want 0", got)
	}
}

func TestSeparateRegistries(t *testing.T) {
	a := NewWithRegistry(prometheus.NewRegistry())
	b := NewWithRegistry(prometheus.NewRegistry())

	a.TrainingRuns.Inc()

	if got := testutil.ToFloat64(b.TrainingRuns); got != 0 {
		t.Errorf("second registry TrainingRuns = %v, want 0", got)
	}
}
