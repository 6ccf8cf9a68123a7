package handlers

import (
	"net/http"

	"github.com/Programmer-Ayush-Raj/Student-Performance-Predictor/ml"

	"github.com/gin-gonic/gin"
)

type ThresholdHandler struct {
	resolver *ml.ThresholdResolver
}

func NewThresholdHandler(resolver *ml.ThresholdResolver) *ThresholdHandler {
	return &ThresholdHandler{resolver: resolver}
}

type ThresholdRequest struct {
	Threshold *float64 `json:"threshold" binding:"required"`
}

func (h *ThresholdHandler) GetThreshold(c *gin.Context) {
	value, source := h.resolver.Resolve()
	c.JSON(http.StatusOK, gin.H{"threshold": value, "source": source})
}

func (h *ThresholdHandler) SetThreshold(c *gin.Context) {
	var req ThresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "threshold is required"})
		return
	}

	if _, err := h.resolver.SetUserThreshold(*req.Threshold); err != nil {
		respondMLError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"threshold": *req.Threshold, "source": "metadata"})
}
