package handlers

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/Programmer-Ayush-Raj/Student-Performance-Predictor/metrics"
	"github.com/Programmer-Ayush-Raj/Student-Performance-Predictor/ml"
	"github.com/Programmer-Ayush-Raj/Student-Performance-Predictor/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func exportRouter(db *gorm.DB, stack *mlStack, m *metrics.Metrics) *gin.Engine {
	h := NewExportHandler(db, stack.cfg, m)
	r := gin.New()
	r.POST("/api/export", h.ExportCSV)
	return r
}

func TestExportCSVEndpoint(t *testing.T) {
	db := setupTestDB(t)
	stack := newMLStack(t)
	m := newTestMetrics()
	router := exportRouter(db, stack, m)

	student := seedStudent(t, db, "Exported", "exported@example.com")
	seedEnrollment(t, db, models.Enrollment{
		StudentID:      student.ID,
		CourseID:       101,
		Attendance:     floatPtr(92),
		Marks:          floatPtr(81),
		InternalScore:  floatPtr(17),
		FinalExamScore: floatPtr(74),
		Result:         intPtr(1),
	})
	seedEnrollment(t, db, models.Enrollment{
		StudentID:     student.ID,
		CourseID:      102,
		Attendance:    floatPtr(55),
		Marks:         floatPtr(40),
		InternalScore: floatPtr(8),
		Result:        intPtr(0),
	})
	// Ungraded row, must not appear in the dataset.
	seedEnrollment(t, db, models.Enrollment{
		StudentID:  student.ID,
		CourseID:   103,
		Attendance: floatPtr(70),
	})

	w := performRequest(t, router, http.MethodPost, "/api/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="student_data_export.csv"`, w.Header().Get("Content-Disposition"))

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "student_id,course_id,attendance,marks,internal_score,final_exam_score,result", lines[0])
	assert.Equal(t, fmt.Sprintf("%d,101,92,81,17,74,1", student.ID), lines[1])
	// A missing final exam score exports as an empty cell.
	assert.Equal(t, fmt.Sprintf("%d,102,55,40,8,,0", student.ID), lines[2])

	_, err := os.Stat(stack.cfg.Model.ExportPath())
	require.NoError(t, err, "the export also lands on disk for retraining")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ExportedRows))
}

func TestExportCSVEndpointRetrainable(t *testing.T) {
	db := setupTestDB(t)
	stack := newMLStack(t)
	router := exportRouter(db, stack, newTestMetrics())

	student := seedStudent(t, db, "Round", "round@example.com")
	seedEnrollment(t, db, models.Enrollment{
		StudentID:     student.ID,
		CourseID:      101,
		Attendance:    floatPtr(90),
		Marks:         floatPtr(85),
		InternalScore: floatPtr(18),
		Result:        intPtr(1),
	})

	w := performRequest(t, router, http.MethodPost, "/api/export", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The exported file parses under the training loader's schema.
	rows, err := ml.LoadCSV(stack.cfg.Model.ExportPath())
	require.NoError(t, err)
	assert.Len(t, ml.Labeled(rows), 1)
}

func TestExportCSVEndpointNoData(t *testing.T) {
	db := setupTestDB(t)
	stack := newMLStack(t)
	router := exportRouter(db, stack, newTestMetrics())

	t.Run("empty table", func(t *testing.T) {
		w := performRequest(t, router, http.MethodPost, "/api/export", nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "no data available for export")
	})

	t.Run("only incomplete rows", func(t *testing.T) {
		student := seedStudent(t, db, "Sparse", "sparse@example.com")
		seedEnrollment(t, db, models.Enrollment{StudentID: student.ID, CourseID: 101, Marks: floatPtr(50)})

		w := performRequest(t, router, http.MethodPost, "/api/export", nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "no data available for export")
	})
}
