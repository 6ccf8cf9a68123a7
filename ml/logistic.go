package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// LogisticRegression is a binary classifier fit by batch gradient descent on
// the L2-regularized log loss. Weights start at zero, so training is fully
// deterministic for a given dataset.
type LogisticRegression struct {
	LearningRate float64
	MaxIter      int
	Tol          float64
	L2           float64

	Weights   []float64
	Intercept float64
	Fitted    bool
}

func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{
		LearningRate: 0.1,
		MaxIter:      200,
		Tol:          1e-6,
		L2:           1.0,
	}
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// Fit trains on X (n samples by d features) with binary labels y.
func (m *LogisticRegression) Fit(X *mat.Dense, y []float64) error {
	n, d := X.Dims()
	if n == 0 {
		return fmt.Errorf("empty training matrix")
	}
	if len(y) != n {
		return fmt.Errorf("label count %d does not match %d rows", len(y), n)
	}

	w := mat.NewVecDense(d, nil)
	b := 0.0

	yVec := mat.NewVecDense(n, y)
	z := mat.NewVecDense(n, nil)
	p := mat.NewVecDense(n, nil)
	resid := mat.NewVecDense(n, nil)
	grad := mat.NewVecDense(d, nil)

	for iter := 0; iter < m.MaxIter; iter++ {
		z.MulVec(X, w)
		for i := 0; i < n; i++ {
			p.SetVec(i, sigmoid(z.AtVec(i)+b))
		}
		resid.SubVec(p, yVec)

		grad.MulVec(X.T(), resid)
		grad.ScaleVec(1.0/float64(n), grad)
		if m.L2 > 0 {
			grad.AddScaledVec(grad, m.L2/float64(n), w)
		}
		gradB := mat.Sum(resid) / float64(n)

		w.AddScaledVec(w, -m.LearningRate, grad)
		b -= m.LearningRate * gradB

		if mat.Norm(grad, 2)+math.Abs(gradB) < m.Tol {
			break
		}
	}

	m.Weights = make([]float64, d)
	for j := 0; j < d; j++ {
		m.Weights[j] = w.AtVec(j)
	}
	m.Intercept = b
	m.Fitted = true
	return nil
}

// DecisionFunction returns the raw linear score for one sample.
func (m *LogisticRegression) DecisionFunction(x []float64) float64 {
	s := m.Intercept
	for j, w := range m.Weights {
		s += w * x[j]
	}
	return s
}

// PredictProba returns the uncalibrated positive-class probability.
func (m *LogisticRegression) PredictProba(x []float64) float64 {
	return sigmoid(m.DecisionFunction(x))
}
