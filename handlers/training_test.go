package handlers

import (
	"net/http"
	"os"
	"testing"

	"github.com/Programmer-Ayush-Raj/Student-Performance-Predictor/metrics"
	"github.com/Programmer-Ayush-Raj/Student-Performance-Predictor/ml"
	"github.com/Programmer-Ayush-Raj/Student-Performance-Predictor/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainingRouter(stack *mlStack, m *metrics.Metrics) *gin.Engine {
	h := NewTrainingHandler(stack.cfg, stack.trainer, stack.predictor, m)
	r := gin.New()
	r.POST("/api/retrain", h.Retrain)
	return r
}

func TestRetrainEndpoint(t *testing.T) {
	stack := newMLStack(t)
	stack.writeDataset(t, 60)
	m := newTestMetrics()
	router := trainingRouter(stack, m)

	w := performRequest(t, router, http.MethodPost, "/api/retrain", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	decodeJSON(t, w, &resp)
	for _, key := range []string{
		"accuracy", "precision", "recall", "f1_score", "roc_auc",
		"model_path", "metadata_path", "timestamp", "samples_used",
		"class_distribution", "class_counts", "recommended_threshold",
		"user_threshold",
	} {
		assert.Contains(t, resp, key)
	}
	// user_threshold is present but null: training rewrites the metadata
	// and any earlier user choice is gone.
	assert.Nil(t, resp["user_threshold"])
	assert.EqualValues(t, 60, resp["samples_used"])
	assert.GreaterOrEqual(t, resp["accuracy"].(float64), 0.9)
	assert.Equal(t, stack.cfg.Model.ModelPath, resp["model_path"])

	_, err := os.Stat(stack.cfg.Model.ModelPath)
	require.NoError(t, err)
	_, err = os.Stat(stack.cfg.Model.MetadataPath)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TrainingRuns))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.TrainingFailures))
}

func TestRetrainEndpointServesNewModel(t *testing.T) {
	db := setupTestDB(t)
	stack := newMLStack(t)
	m := newTestMetrics()

	r := gin.New()
	training := NewTrainingHandler(stack.cfg, stack.trainer, stack.predictor, m)
	prediction := NewPredictionHandler(db, services.NewDisabledCacheService(), stack.predictor, m)
	r.POST("/api/retrain", training.Retrain)
	r.POST("/api/predict", prediction.Predict)

	body := ml.Features{
		Attendance:    floatPtr(90),
		Marks:         floatPtr(80),
		InternalScore: floatPtr(18),
	}

	// Nothing trained yet.
	w := performRequest(t, r, http.MethodPost, "/api/predict", body)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	stack.writeDataset(t, 60)
	w = performRequest(t, r, http.MethodPost, "/api/retrain", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The fresh artifact serves immediately, no process restart needed.
	w = performRequest(t, r, http.MethodPost, "/api/predict", body)
	require.Equal(t, http.StatusOK, w.Code)

	var pred ml.Prediction
	decodeJSON(t, w, &pred)
	assert.Equal(t, 1, pred.Prediction)
}

func TestRetrainEndpointMissingDataset(t *testing.T) {
	stack := newMLStack(t)
	m := newTestMetrics()
	router := trainingRouter(stack, m)

	w := performRequest(t, router, http.MethodPost, "/api/retrain", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "training dataset not found")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TrainingFailures))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.TrainingRuns))
}

func TestRetrainEndpointInsufficientData(t *testing.T) {
	stack := newMLStack(t)
	stack.writeDataset(t, 7)
	m := newTestMetrics()
	router := trainingRouter(stack, m)

	w := performRequest(t, router, http.MethodPost, "/api/retrain", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient data for training")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TrainingFailures))

	_, err := os.Stat(stack.cfg.Model.ModelPath)
	assert.True(t, os.IsNotExist(err), "failed training must not leave an artifact")
}
