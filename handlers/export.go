package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/Programmer-Ayush-Raj/Student-Performance-Predictor/config"
	"github.com/Programmer-Ayush-Raj/Student-Performance-Predictor/metrics"
	"github.com/Programmer-Ayush-Raj/Student-Performance-Predictor/models"

	"github.com/gin-gonic/gin"
	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type ExportHandler struct {
	db      *gorm.DB
	cfg     *config.Config
	metrics *metrics.Metrics
}

func NewExportHandler(db *gorm.DB, cfg *config.Config, m *metrics.Metrics) *ExportHandler {
	return &ExportHandler{db: db, cfg: cfg, metrics: m}
}

// exportRow matches the training CSV layout, so an export is immediately
// usable as a training dataset.
type exportRow struct {
	StudentID      uint     `csv:"student_id"`
	CourseID       uint     `csv:"course_id"`
	Attendance     float64  `csv:"attendance"`
	Marks          float64  `csv:"marks"`
	InternalScore  float64  `csv:"internal_score"`
	FinalExamScore *float64 `csv:"final_exam_score"`
	Result         int      `csv:"result"`
}

func (h *ExportHandler) ExportCSV(c *gin.Context) {
	var enrollments []models.Enrollment
	err := h.db.
		Where("attendance IS NOT NULL AND marks IS NOT NULL AND internal_score IS NOT NULL AND result IS NOT NULL").
		Order("id").
		Find(&enrollments).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}
	if len(enrollments) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no data available for export"})
		return
	}

	rows := make([]exportRow, len(enrollments))
	for i, e := range enrollments {
		rows[i] = exportRow{
			StudentID:      e.StudentID,
			CourseID:       e.CourseID,
			Attendance:     *e.Attendance,
			Marks:          *e.Marks,
			InternalScore:  *e.InternalScore,
			FinalExamScore: e.FinalExamScore,
			Result:         *e.Result,
		}
	}

	path := h.cfg.Model.ExportPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	f, err := os.Create(path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		f.Close()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	if err := f.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	h.metrics.ExportedRows.Add(float64(len(rows)))
	log.Info().Int("rows", len(rows)).Str("path", path).Msg("enrollment data exported")

	c.FileAttachment(path, filepath.Base(path))
}
