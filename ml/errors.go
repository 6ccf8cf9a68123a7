package ml

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrModelNotTrained is returned when no trained artifact exists at the
	// configured path. Callers surface it as "train first".
	ErrModelNotTrained = errors.New("model not trained")

	// ErrDatasetNotFound is returned when the training CSV does not exist.
	ErrDatasetNotFound = errors.New("training dataset not found")

	// ErrNoUsableRows is returned by batch prediction when every input row
	// was excluded for missing features.
	ErrNoUsableRows = errors.New("no rows with complete feature data")
)

// DataInsufficientError reports a dataset with too few labeled rows to train.
type DataInsufficientError struct {
	Found    int
	Required int
}

func (e *DataInsufficientError) Error() string {
	return fmt.Sprintf("insufficient data for training: need at least %d labeled samples, got %d", e.Required, e.Found)
}

// InvalidInputError reports prediction input whose required features are
// missing or not finite numbers. Fields lists every offending feature.
type InvalidInputError struct {
	Fields []string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: missing or non-numeric fields: %s", strings.Join(e.Fields, ", "))
}

// InvalidThresholdError reports a decision threshold outside (0, 1).
type InvalidThresholdError struct {
	Value float64
}

func (e *InvalidThresholdError) Error() string {
	return fmt.Sprintf("threshold %g out of range, must be strictly between 0 and 1", e.Value)
}
