package ml

import (
	"fmt"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// Evaluation holds held-out classification metrics from one training run.
type Evaluation struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1_score"`
	ROCAUC    float64 `json:"roc_auc"`
}

// Evaluate scores calibrated probabilities against true labels. Hard
// predictions use the conventional 0.5 cut; ratios with a zero denominator
// come back as 0 rather than NaN. AUC requires both classes in the test
// partition, otherwise the run fails.
func Evaluate(yTrue, probs []float64) (Evaluation, error) {
	if len(yTrue) == 0 || len(yTrue) != len(probs) {
		return Evaluation{}, fmt.Errorf("evaluation needs matching labels and probabilities, got %d and %d", len(yTrue), len(probs))
	}

	var tp, fp, tn, fn float64
	var pos, neg int
	for i, label := range yTrue {
		predicted := probs[i] >= 0.5
		switch {
		case label == 1 && predicted:
			tp++
		case label == 1 && !predicted:
			fn++
		case label == 0 && predicted:
			fp++
		default:
			tn++
		}
		if label == 1 {
			pos++
		} else {
			neg++
		}
	}

	if pos == 0 || neg == 0 {
		return Evaluation{}, fmt.Errorf("test partition contains a single class, ROC AUC is undefined")
	}

	ev := Evaluation{
		Accuracy:  (tp + tn) / float64(len(yTrue)),
		Precision: safeDiv(tp, tp+fp),
		Recall:    safeDiv(tp, tp+fn),
	}
	ev.F1 = safeDiv(2*ev.Precision*ev.Recall, ev.Precision+ev.Recall)

	scores := append([]float64(nil), probs...)
	classes := make([]bool, len(yTrue))
	for i, label := range yTrue {
		classes[i] = label == 1
	}
	stat.SortWeightedLabeled(scores, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, scores, classes, nil)
	ev.ROCAUC = integrate.Trapezoidal(fpr, tpr)

	return ev, nil
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
