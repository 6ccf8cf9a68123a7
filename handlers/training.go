package handlers

import (
	"net/http"
	"time"

	"github.com/Programmer-Ayush-Raj/Student-Performance-Predictor/config"
	"github.com/Programmer-Ayush-Raj/Student-Performance-Predictor/metrics"
	"github.com/Programmer-Ayush-Raj/Student-Performance-Predictor/ml"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type TrainingHandler struct {
	cfg       *config.Config
	trainer   *ml.Trainer
	predictor *ml.Predictor
	metrics   *metrics.Metrics
}

func NewTrainingHandler(cfg *config.Config, trainer *ml.Trainer, predictor *ml.Predictor, m *metrics.Metrics) *TrainingHandler {
	return &TrainingHandler{cfg: cfg, trainer: trainer, predictor: predictor, metrics: m}
}

// RetrainResponse mirrors the training summary clients already consume.
// user_threshold is always present and always null right after a run,
// because training replaces the metadata file wholesale.
type RetrainResponse struct {
	Accuracy             float64            `json:"accuracy"`
	Precision            float64            `json:"precision"`
	Recall               float64            `json:"recall"`
	F1                   float64            `json:"f1_score"`
	ROCAUC               float64            `json:"roc_auc"`
	ModelPath            string             `json:"model_path"`
	MetadataPath         string             `json:"metadata_path"`
	Timestamp            time.Time          `json:"timestamp"`
	SamplesUsed          int                `json:"samples_used"`
	ClassDistribution    map[string]float64 `json:"class_distribution"`
	ClassCounts          map[string]int     `json:"class_counts"`
	RecommendedThreshold float64            `json:"recommended_threshold"`
	UserThreshold        *float64           `json:"user_threshold"`
}

func (h *TrainingHandler) Retrain(c *gin.Context) {
	start := time.Now()

	result, err := h.trainer.TrainFromCSV(h.cfg.Model.TrainingDataPath())
	if err != nil {
		h.metrics.TrainingFailures.Inc()
		respondMLError(c, err)
		return
	}

	h.metrics.TrainingRuns.Inc()
	h.metrics.TrainingDuration.Observe(time.Since(start).Seconds())

	// Serve the fresh artifact immediately. A reload failure leaves the
	// previous model live, which is still consistent with its files.
	if err := h.predictor.Reload(); err != nil {
		log.Error().Err(err).Msg("model reload after training failed")
	}

	c.JSON(http.StatusOK, RetrainResponse{
		Accuracy:             result.Accuracy,
		Precision:            result.Precision,
		Recall:               result.Recall,
		F1:                   result.F1,
		ROCAUC:               result.ROCAUC,
		ModelPath:            result.ModelPath,
		MetadataPath:         result.MetadataPath,
		Timestamp:            result.TrainedAt,
		SamplesUsed:          result.SamplesUsed,
		ClassDistribution:    result.ClassDistribution,
		ClassCounts:          result.ClassCounts,
		RecommendedThreshold: result.RecommendedThreshold,
		UserThreshold:        result.UserThreshold,
	})
}
