package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Programmer-Ayush-Raj/Student-Performance-Predictor/models"
	"github.com/Programmer-Ayush-Raj/Student-Performance-Predictor/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type EnrollmentsHandler struct {
	db    *gorm.DB
	cache *services.CacheService
}

func NewEnrollmentsHandler(db *gorm.DB, cache *services.CacheService) *EnrollmentsHandler {
	return &EnrollmentsHandler{db: db, cache: cache}
}

type CreateEnrollmentRequest struct {
	StudentID      uint     `json:"student_id" binding:"required"`
	CourseID       uint     `json:"course_id" binding:"required"`
	Attendance     *float64 `json:"attendance"`
	Marks          *float64 `json:"marks"`
	InternalScore  *float64 `json:"internal_score"`
	FinalExamScore *float64 `json:"final_exam_score"`
	Result         *int     `json:"result"`
}

type UpdateEnrollmentRequest struct {
	CourseID       *uint    `json:"course_id"`
	Attendance     *float64 `json:"attendance"`
	Marks          *float64 `json:"marks"`
	InternalScore  *float64 `json:"internal_score"`
	FinalExamScore *float64 `json:"final_exam_score"`
	Result         *int     `json:"result"`
}

func enrollmentCacheKey(id int) string {
	return fmt.Sprintf("enrollments:id:%d", id)
}

func validResult(r *int) bool {
	return r == nil || *r == 0 || *r == 1
}

func (h *EnrollmentsHandler) ListEnrollments(c *gin.Context) {
	p := ParsePagination(c)
	studentID := c.Query("student_id")
	cacheKey := fmt.Sprintf("enrollments:page:%d:limit:%d:student:%s", p.Page, p.Limit, studentID)

	var cached PageResponse
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && cached.Items != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	query := h.db.Model(&models.Enrollment{})
	if studentID != "" {
		sid, err := strconv.Atoi(studentID)
		if err != nil || sid <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid student_id filter"})
			return
		}
		query = query.Where("student_id = ?", sid)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	var enrollments []models.Enrollment
	if err := query.Order("id").Offset(p.Offset()).Limit(p.Limit).Find(&enrollments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	resp := NewPageResponse(enrollments, total, p)
	go h.cache.Set(context.Background(), cacheKey, resp, 30*time.Second)

	c.JSON(http.StatusOK, resp)
}

func (h *EnrollmentsHandler) GetEnrollment(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid enrollment id"})
		return
	}

	cacheKey := enrollmentCacheKey(id)
	var cached models.Enrollment
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && cached.ID != 0 {
		c.JSON(http.StatusOK, cached)
		return
	}

	var enrollment models.Enrollment
	if err := h.db.First(&enrollment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Enrollment with ID %d not found", id)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	go h.cache.Set(context.Background(), cacheKey, enrollment, 60*time.Second)

	c.JSON(http.StatusOK, enrollment)
}

func (h *EnrollmentsHandler) CreateEnrollment(c *gin.Context) {
	var req CreateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !validResult(req.Result) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "result must be 0 or 1"})
		return
	}

	if err := h.db.First(&models.Student{}, req.StudentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Student with ID %d not found", req.StudentID)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	enrollment := models.Enrollment{
		StudentID:      req.StudentID,
		CourseID:       req.CourseID,
		Attendance:     req.Attendance,
		Marks:          req.Marks,
		InternalScore:  req.InternalScore,
		FinalExamScore: req.FinalExamScore,
		Result:         req.Result,
	}
	if err := h.db.Create(&enrollment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database insert failed"})
		return
	}

	c.JSON(http.StatusCreated, enrollment)
}

func (h *EnrollmentsHandler) UpdateEnrollment(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid enrollment id"})
		return
	}

	var req UpdateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !validResult(req.Result) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "result must be 0 or 1"})
		return
	}

	var enrollment models.Enrollment
	if err := h.db.First(&enrollment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Enrollment with ID %d not found", id)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	if req.CourseID != nil {
		enrollment.CourseID = *req.CourseID
	}
	if req.Attendance != nil {
		enrollment.Attendance = req.Attendance
	}
	if req.Marks != nil {
		enrollment.Marks = req.Marks
	}
	if req.InternalScore != nil {
		enrollment.InternalScore = req.InternalScore
	}
	if req.FinalExamScore != nil {
		enrollment.FinalExamScore = req.FinalExamScore
	}
	if req.Result != nil {
		enrollment.Result = req.Result
	}

	if err := h.db.Save(&enrollment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database update failed"})
		return
	}

	go h.cache.Delete(context.Background(), enrollmentCacheKey(id))

	c.JSON(http.StatusOK, enrollment)
}

func (h *EnrollmentsHandler) DeleteEnrollment(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid enrollment id"})
		return
	}

	var enrollment models.Enrollment
	if err := h.db.First(&enrollment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Enrollment with ID %d not found", id)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	if err := h.db.Delete(&enrollment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database delete failed"})
		return
	}

	go h.cache.Delete(context.Background(), enrollmentCacheKey(id))

	c.Status(http.StatusNoContent)
}
