package ml

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

const (
	// MinTrainingRows is the fewest labeled samples accepted for a run.
	MinTrainingRows = 10

	// RecommendedThreshold is the fixed policy threshold written into each
	// run's metadata. The pipeline does not search for a better cut.
	RecommendedThreshold = 0.6

	testFraction     = 0.2
	splitSeed        = 42
	calibrationFolds = 5
)

// Trainer owns the offline pipeline: dataset CSV in, artifact and metadata
// files out.
type Trainer struct {
	modelPath string
	meta      *MetadataStore
}

func NewTrainer(modelPath string, meta *MetadataStore) *Trainer {
	return &Trainer{modelPath: modelPath, meta: meta}
}

// TrainingResult is the summary handed back after a successful run.
type TrainingResult struct {
	Evaluation
	SamplesUsed          int
	ClassCounts          map[string]int
	ClassDistribution    map[string]float64
	RecommendedThreshold float64
	UserThreshold        *float64
	TrainedAt            time.Time
	ModelPath            string
	MetadataPath         string
}

// TrainFromCSV runs the whole pipeline on the dataset at csvPath: load and
// filter, seeded 80/20 split, scale on the training partition, cross-fit
// calibration, evaluate on the held-out partition, then persist artifact
// and metadata. The seeded split makes identical input produce identical
// metrics. Nothing on disk changes until evaluation has succeeded.
func (t *Trainer) TrainFromCSV(csvPath string) (*TrainingResult, error) {
	rows, err := LoadCSV(csvPath)
	if err != nil {
		return nil, err
	}

	labeled := Labeled(rows)
	if len(labeled) < MinTrainingRows {
		return nil, &DataInsufficientError{Found: len(labeled), Required: MinTrainingRows}
	}

	X, y, err := FeatureMatrix(labeled)
	if err != nil {
		return nil, fmt.Errorf("build feature matrix: %w", err)
	}

	trainIdx, testIdx := trainTestSplit(len(labeled), testFraction, splitSeed)
	XTrain, yTrain := subset(X, y, trainIdx)
	XTest, yTest := subset(X, y, testIdx)

	var scaler StandardScaler
	scaler.Fit(XTrain)
	XTrainScaled, err := scaler.Transform(XTrain)
	if err != nil {
		return nil, err
	}
	XTestScaled, err := scaler.Transform(XTest)
	if err != nil {
		return nil, err
	}

	clf, err := FitCalibratedClassifier(XTrainScaled, yTrain, calibrationFolds)
	if err != nil {
		return nil, fmt.Errorf("fit classifier: %w", err)
	}

	probs := make([]float64, len(yTest))
	for i := range probs {
		probs[i] = clf.PredictProba(mat.Row(nil, i, XTestScaled))
	}
	eval, err := Evaluate(yTest, probs)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	counts, dist := classBalance(y)
	now := time.Now().UTC()

	artifact := &Artifact{
		Version:      artifactVersion,
		TrainedAt:    now,
		FeatureNames: FeatureNames,
		Scaler:       scaler,
		Classifier:   *clf,
	}
	if err := SaveArtifact(t.modelPath, artifact); err != nil {
		return nil, err
	}

	auc := eval.ROCAUC
	samples := len(labeled)
	recommended := RecommendedThreshold
	meta := Metadata{
		ROCAUC:               &auc,
		SamplesUsed:          &samples,
		ClassCounts:          counts,
		ClassDistribution:    dist,
		RecommendedThreshold: &recommended,
	}
	if err := t.meta.Save(meta); err != nil {
		return nil, err
	}

	log.Info().
		Float64("accuracy", eval.Accuracy).
		Float64("roc_auc", eval.ROCAUC).
		Int("samples", samples).
		Str("model", t.modelPath).
		Msg("training run completed")

	return &TrainingResult{
		Evaluation:           eval,
		SamplesUsed:          samples,
		ClassCounts:          counts,
		ClassDistribution:    dist,
		RecommendedThreshold: recommended,
		UserThreshold:        meta.UserThreshold,
		TrainedAt:            now,
		ModelPath:            t.modelPath,
		MetadataPath:         t.meta.Path(),
	}, nil
}

// trainTestSplit shuffles row indices with a fixed seed and carves off
// ceil(fraction*n) of them for the test partition.
func trainTestSplit(n int, fraction float64, seed int64) (train, test []int) {
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)
	nTest := int(math.Ceil(float64(n) * fraction))
	return perm[nTest:], perm[:nTest]
}

func subset(X *mat.Dense, y []float64, idx []int) (*mat.Dense, []float64) {
	_, d := X.Dims()
	Xs := mat.NewDense(len(idx), d, nil)
	ys := make([]float64, len(idx))
	for i, src := range idx {
		Xs.SetRow(i, mat.Row(nil, src, X))
		ys[i] = y[src]
	}
	return Xs, ys
}

func classBalance(y []float64) (map[string]int, map[string]float64) {
	counts := make(map[string]int)
	for _, label := range y {
		counts[strconv.Itoa(int(label))]++
	}
	dist := make(map[string]float64, len(counts))
	for k, c := range counts {
		dist[k] = float64(c) / float64(len(y))
	}
	return counts, dist
}
