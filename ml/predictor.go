package ml

import (
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog/log"
)

// Features is one prediction input. The required fields are pointers so a
// missing JSON key is distinguishable from a zero. final_exam_score is
// accepted for symmetry with stored records but never used by the model.
type Features struct {
	Attendance     *float64 `json:"attendance"`
	Marks          *float64 `json:"marks"`
	InternalScore  *float64 `json:"internal_score"`
	FinalExamScore *float64 `json:"final_exam_score,omitempty"`
}

// vector validates the three model features and returns them in
// FeatureNames order, along with the names of any missing or non-finite
// ones.
func (f Features) vector() ([]float64, []string) {
	var bad []string
	vals := []*float64{f.Attendance, f.Marks, f.InternalScore}
	out := make([]float64, len(vals))
	for i, v := range vals {
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			bad = append(bad, FeatureNames[i])
			continue
		}
		out[i] = *v
	}
	return out, bad
}

// Prediction is the scored outcome for one sample.
type Prediction struct {
	Probability     float64         `json:"probability"`
	Prediction      int             `json:"prediction"`
	ThresholdUsed   float64         `json:"threshold_used"`
	ThresholdSource ThresholdSource `json:"threshold_source"`
}

// BatchRow ties prediction input to the enrollment it came from.
type BatchRow struct {
	StudentID uint
	CourseID  uint
	Features
}

// BatchPrediction tags a prediction with its originating row.
type BatchPrediction struct {
	StudentID uint `json:"student_id"`
	CourseID  uint `json:"course_id"`
	Prediction
}

// SkippedRow records why a batch row was excluded.
type SkippedRow struct {
	Index     int
	StudentID uint
	CourseID  uint
	Reason    string
}

// BatchResult holds order-preserved predictions plus the excluded rows.
type BatchResult struct {
	Predictions []BatchPrediction
	Skipped     []SkippedRow
}

// Predictor scores samples with the persisted artifact. The artifact loads
// lazily on first use and stays in memory until Reload, so callers control
// when a freshly trained model goes live. Concurrent predictions during a
// reload are safe.
type Predictor struct {
	mu        sync.RWMutex
	artifact  *Artifact
	modelPath string
	resolver  *ThresholdResolver
}

func NewPredictor(modelPath string, resolver *ThresholdResolver) *Predictor {
	return &Predictor{modelPath: modelPath, resolver: resolver}
}

// Reload swaps in the artifact currently on disk.
func (p *Predictor) Reload() error {
	artifact, err := LoadArtifact(p.modelPath)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.artifact = artifact
	p.mu.Unlock()
	log.Info().Str("path", p.modelPath).Time("trained_at", artifact.TrainedAt).Msg("model artifact loaded")
	return nil
}

func (p *Predictor) ensure() (*Artifact, error) {
	p.mu.RLock()
	a := p.artifact
	p.mu.RUnlock()
	if a != nil {
		return a, nil
	}

	if err := p.Reload(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.artifact, nil
}

// Predict scores a single sample against the resolved threshold.
func (p *Predictor) Predict(f Features) (*Prediction, error) {
	artifact, err := p.ensure()
	if err != nil {
		return nil, err
	}

	vec, bad := f.vector()
	if len(bad) > 0 {
		return nil, &InvalidInputError{Fields: bad}
	}

	threshold, source := p.resolver.Resolve()
	return scoreSample(artifact, vec, threshold, source)
}

// PredictBatch scores many rows with a single threshold resolution, so the
// whole batch is judged by the same cut. Rows with invalid features are
// excluded with a reason, order is preserved, and the call fails only when
// nothing at all is usable.
func (p *Predictor) PredictBatch(rows []BatchRow) (*BatchResult, error) {
	artifact, err := p.ensure()
	if err != nil {
		return nil, err
	}

	threshold, source := p.resolver.Resolve()
	result := &BatchResult{}

	for i, row := range rows {
		vec, bad := row.vector()
		if len(bad) > 0 {
			result.Skipped = append(result.Skipped, SkippedRow{
				Index:     i,
				StudentID: row.StudentID,
				CourseID:  row.CourseID,
				Reason:    (&InvalidInputError{Fields: bad}).Error(),
			})
			continue
		}

		pred, err := scoreSample(artifact, vec, threshold, source)
		if err != nil {
			return nil, err
		}
		result.Predictions = append(result.Predictions, BatchPrediction{
			StudentID:  row.StudentID,
			CourseID:   row.CourseID,
			Prediction: *pred,
		})
	}

	if len(result.Predictions) == 0 {
		return nil, fmt.Errorf("%w: %d rows submitted", ErrNoUsableRows, len(rows))
	}
	return result, nil
}

func scoreSample(artifact *Artifact, vec []float64, threshold float64, source ThresholdSource) (*Prediction, error) {
	scaled, err := artifact.Scaler.TransformRow(vec)
	if err != nil {
		return nil, err
	}
	prob := artifact.Classifier.PredictProba(scaled)

	predicted := 0
	if prob >= threshold {
		predicted = 1
	}
	return &Prediction{
		Probability:     prob,
		Prediction:      predicted,
		ThresholdUsed:   threshold,
		ThresholdSource: source,
	}, nil
}
