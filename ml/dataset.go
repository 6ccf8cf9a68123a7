package ml

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/mat"
)

// FeatureNames lists the model inputs in design-matrix column order.
var FeatureNames = []string{"attendance", "marks", "internal_score"}

// DatasetRow is one line of the training CSV. Pointer fields distinguish an
// empty cell from a zero, so partially filled records survive parsing and
// can be filtered instead of silently coerced.
type DatasetRow struct {
	StudentID      *int     `csv:"student_id"`
	CourseID       *int     `csv:"course_id"`
	Attendance     *float64 `csv:"attendance"`
	Marks          *float64 `csv:"marks"`
	InternalScore  *float64 `csv:"internal_score"`
	FinalExamScore *float64 `csv:"final_exam_score"`
	Result         *float64 `csv:"result"`
}

// LoadCSV reads every row of the dataset at path.
func LoadCSV(path string) ([]DatasetRow, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrDatasetNotFound, path)
		}
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	var rows []DatasetRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	return rows, nil
}

// Labeled returns the rows that carry a result label. Unlabeled rows are
// unusable for training and are dropped before the minimum-size check.
func Labeled(rows []DatasetRow) []DatasetRow {
	out := make([]DatasetRow, 0, len(rows))
	for _, r := range rows {
		if r.Result != nil {
			out = append(out, r)
		}
	}
	return out
}

// FeatureMatrix builds the design matrix and label vector from labeled rows.
// A missing or non-finite feature inside a labeled row fails the whole
// build; labels must be 0 or 1.
func FeatureMatrix(rows []DatasetRow) (*mat.Dense, []float64, error) {
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("no labeled rows in dataset")
	}

	X := mat.NewDense(len(rows), len(FeatureNames), nil)
	y := make([]float64, len(rows))

	for i, r := range rows {
		features := []*float64{r.Attendance, r.Marks, r.InternalScore}
		for j, v := range features {
			if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
				return nil, nil, fmt.Errorf("row %d: feature %s missing or not numeric", i, FeatureNames[j])
			}
			X.Set(i, j, *v)
		}
		if r.Result == nil {
			return nil, nil, fmt.Errorf("row %d: missing result", i)
		}
		if *r.Result != 0 && *r.Result != 1 {
			return nil, nil, fmt.Errorf("row %d: result %g is not a binary label", i, *r.Result)
		}
		y[i] = *r.Result
	}

	return X, y, nil
}
