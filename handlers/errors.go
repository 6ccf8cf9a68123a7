package handlers

import (
	"errors"
	"net/http"

	"github.com/Programmer-Ayush-Raj/Student-Performance-Predictor/ml"

	"github.com/gin-gonic/gin"
)

// respondMLError maps ml package errors onto HTTP statuses: caller mistakes
// are 400, a missing dataset is 404, an untrained model is 503, and
// anything unrecognized stays a generic 500.
func respondMLError(c *gin.Context, err error) {
	var invalidInput *ml.InvalidInputError
	var invalidThreshold *ml.InvalidThresholdError
	var insufficient *ml.DataInsufficientError

	switch {
	case errors.As(err, &invalidInput),
		errors.As(err, &invalidThreshold),
		errors.As(err, &insufficient),
		errors.Is(err, ml.ErrNoUsableRows):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ml.ErrDatasetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ml.ErrModelNotTrained):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
