package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Programmer-Ayush-Raj/Student-Performance-Predictor/metrics"
	"github.com/Programmer-Ayush-Raj/Student-Performance-Predictor/ml"
	"github.com/Programmer-Ayush-Raj/Student-Performance-Predictor/models"
	"github.com/Programmer-Ayush-Raj/Student-Performance-Predictor/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// predictionsChannel receives every scored sample as JSON for downstream
// consumers (dashboards, notification workers).
const predictionsChannel = "studentpredict:predictions"

type PredictionHandler struct {
	db        *gorm.DB
	cache     *services.CacheService
	predictor *ml.Predictor
	metrics   *metrics.Metrics
}

func NewPredictionHandler(db *gorm.DB, cache *services.CacheService, predictor *ml.Predictor, m *metrics.Metrics) *PredictionHandler {
	return &PredictionHandler{db: db, cache: cache, predictor: predictor, metrics: m}
}

func (h *PredictionHandler) Predict(c *gin.Context) {
	var features ml.Features
	if err := c.ShouldBindJSON(&features); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pred, err := h.predictor.Predict(features)
	if err != nil {
		h.metrics.PredictionFailures.Inc()
		respondMLError(c, err)
		return
	}

	h.metrics.PredictionsTotal.Inc()
	go h.cache.Publish(context.Background(), predictionsChannel, pred)

	c.JSON(http.StatusOK, pred)
}

func (h *PredictionHandler) PredictBatch(c *gin.Context) {
	var enrollments []models.Enrollment
	if err := h.db.Order("id").Find(&enrollments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	rows := make([]ml.BatchRow, len(enrollments))
	for i, e := range enrollments {
		rows[i] = ml.BatchRow{
			StudentID: e.StudentID,
			CourseID:  e.CourseID,
			Features: ml.Features{
				Attendance:     e.Attendance,
				Marks:          e.Marks,
				InternalScore:  e.InternalScore,
				FinalExamScore: e.FinalExamScore,
			},
		}
	}

	result, err := h.predictor.PredictBatch(rows)
	if err != nil {
		h.metrics.PredictionFailures.Inc()
		if errors.Is(err, ml.ErrNoUsableRows) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no enrollments with complete data found for batch prediction"})
			return
		}
		respondMLError(c, err)
		return
	}

	if len(result.Skipped) > 0 {
		h.metrics.BatchRowsSkipped.Add(float64(len(result.Skipped)))
		log.Warn().
			Int("skipped", len(result.Skipped)).
			Int("scored", len(result.Predictions)).
			Msg("batch prediction excluded incomplete enrollments")
	}
	h.metrics.PredictionsTotal.Add(float64(len(result.Predictions)))
	go h.cache.Publish(context.Background(), predictionsChannel, result.Predictions)

	c.JSON(http.StatusOK, gin.H{
		"predictions": result.Predictions,
		"total":       len(result.Predictions),
	})
}
