package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SigmoidCalibrator maps raw decision scores to calibrated probabilities via
// Platt scaling: p = 1 / (1 + exp(A*score + B)).
type SigmoidCalibrator struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// Fit estimates A and B with Newton iterations on the cross-entropy of
// prior-smoothed targets, Platt's original procedure. The smoothing keeps
// the fit finite even when one class dominates the scores.
func (c *SigmoidCalibrator) Fit(scores, y []float64) error {
	n := len(scores)
	if n == 0 || n != len(y) {
		return fmt.Errorf("calibration needs matching scores and labels, got %d and %d", len(scores), n)
	}

	var prior0, prior1 float64
	for _, label := range y {
		if label > 0 {
			prior1++
		} else {
			prior0++
		}
	}

	hiTarget := (prior1 + 1.0) / (prior1 + 2.0)
	loTarget := 1.0 / (prior0 + 2.0)
	targets := make([]float64, n)
	for i, label := range y {
		if label > 0 {
			targets[i] = hiTarget
		} else {
			targets[i] = loTarget
		}
	}

	objective := func(a, b float64) float64 {
		var obj float64
		for i, s := range scores {
			fApB := s*a + b
			if fApB >= 0 {
				obj += targets[i]*fApB + math.Log1p(math.Exp(-fApB))
			} else {
				obj += (targets[i]-1)*fApB + math.Log1p(math.Exp(fApB))
			}
		}
		return obj
	}

	const (
		maxIter = 100
		minStep = 1e-10
		sigma   = 1e-12
	)

	a := 0.0
	b := math.Log((prior0 + 1.0) / (prior1 + 1.0))
	fval := objective(a, b)

	for iter := 0; iter < maxIter; iter++ {
		h11, h22 := sigma, sigma
		var h21, g1, g2 float64

		for i, s := range scores {
			fApB := s*a + b
			var p, q float64
			if fApB >= 0 {
				p = math.Exp(-fApB) / (1.0 + math.Exp(-fApB))
				q = 1.0 / (1.0 + math.Exp(-fApB))
			} else {
				p = 1.0 / (1.0 + math.Exp(fApB))
				q = math.Exp(fApB) / (1.0 + math.Exp(fApB))
			}
			d2 := p * q
			h11 += s * s * d2
			h22 += d2
			h21 += s * d2
			d1 := targets[i] - p
			g1 += s * d1
			g2 += d1
		}

		if math.Abs(g1) < 1e-5 && math.Abs(g2) < 1e-5 {
			break
		}

		det := h11*h22 - h21*h21
		dA := -(h22*g1 - h21*g2) / det
		dB := -(-h21*g1 + h11*g2) / det
		gd := g1*dA + g2*dB

		stepSize := 1.0
		for stepSize >= minStep {
			newA := a + stepSize*dA
			newB := b + stepSize*dB
			newF := objective(newA, newB)
			if newF < fval+1e-4*stepSize*gd {
				a, b, fval = newA, newB, newF
				break
			}
			stepSize /= 2.0
		}
		if stepSize < minStep {
			break
		}
	}

	c.A = a
	c.B = b
	return nil
}

// Calibrate returns the calibrated probability for one decision score.
func (c *SigmoidCalibrator) Calibrate(score float64) float64 {
	fApB := c.A*score + c.B
	if fApB >= 0 {
		return math.Exp(-fApB) / (1.0 + math.Exp(-fApB))
	}
	return 1.0 / (1.0 + math.Exp(fApB))
}

// CalibratedClassifier pairs fitted regression coefficients with a sigmoid
// calibrator over their decision scores. This is the scoring half of the
// persisted artifact.
type CalibratedClassifier struct {
	Weights     []float64         `json:"weights"`
	Intercept   float64           `json:"intercept"`
	Calibration SigmoidCalibrator `json:"calibration"`
}

func (c *CalibratedClassifier) decision(x []float64) float64 {
	s := c.Intercept
	for j, w := range c.Weights {
		s += w * x[j]
	}
	return s
}

// PredictProba returns the calibrated positive-class probability.
func (c *CalibratedClassifier) PredictProba(x []float64) float64 {
	return c.Calibration.Calibrate(c.decision(x))
}

// Predict applies the conventional 0.5 cut used for held-out evaluation.
// Serving-time thresholds belong to the Predictor.
func (c *CalibratedClassifier) Predict(x []float64) int {
	if c.PredictProba(x) >= 0.5 {
		return 1
	}
	return 0
}

// FitCalibratedClassifier cross-fits the calibrator: contiguous folds each
// score their held-out slice with a regression trained on the rest, one
// sigmoid is fitted on the pooled out-of-fold scores, and the final
// regression is refit on the full set.
func FitCalibratedClassifier(X *mat.Dense, y []float64, folds int) (*CalibratedClassifier, error) {
	n, d := X.Dims()
	if folds > n {
		folds = n
	}
	if folds < 2 {
		return nil, fmt.Errorf("calibration needs at least 2 samples, got %d", n)
	}

	scores := make([]float64, n)
	for f := 0; f < folds; f++ {
		start := f * n / folds
		end := (f + 1) * n / folds

		XFold := mat.NewDense(n-(end-start), d, nil)
		yFold := make([]float64, 0, n-(end-start))
		ri := 0
		for i := 0; i < n; i++ {
			if i >= start && i < end {
				continue
			}
			XFold.SetRow(ri, mat.Row(nil, i, X))
			yFold = append(yFold, y[i])
			ri++
		}

		member := NewLogisticRegression()
		if err := member.Fit(XFold, yFold); err != nil {
			return nil, fmt.Errorf("calibration fold %d: %w", f, err)
		}
		for i := start; i < end; i++ {
			scores[i] = member.DecisionFunction(mat.Row(nil, i, X))
		}
	}

	var cal SigmoidCalibrator
	if err := cal.Fit(scores, y); err != nil {
		return nil, err
	}

	final := NewLogisticRegression()
	if err := final.Fit(X, y); err != nil {
		return nil, err
	}

	return &CalibratedClassifier{
		Weights:     final.Weights,
		Intercept:   final.Intercept,
		Calibration: cal,
	}, nil
}
