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

type StudentsHandler struct {
	db    *gorm.DB
	cache *services.CacheService
}

func NewStudentsHandler(db *gorm.DB, cache *services.CacheService) *StudentsHandler {
	return &StudentsHandler{db: db, cache: cache}
}

type CreateStudentRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

type UpdateStudentRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email" binding:"omitempty,email"`
}

func studentCacheKey(id int) string {
	return fmt.Sprintf("students:id:%d", id)
}

func (h *StudentsHandler) ListStudents(c *gin.Context) {
	p := ParsePagination(c)
	cacheKey := fmt.Sprintf("students:page:%d:limit:%d", p.Page, p.Limit)

	var cached PageResponse
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && cached.Items != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	var total int64
	if err := h.db.Model(&models.Student{}).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	var students []models.Student
	if err := h.db.Order("id").Offset(p.Offset()).Limit(p.Limit).Find(&students).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	resp := NewPageResponse(students, total, p)
	go h.cache.Set(context.Background(), cacheKey, resp, 30*time.Second)

	c.JSON(http.StatusOK, resp)
}

func (h *StudentsHandler) GetStudent(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid student id"})
		return
	}

	cacheKey := studentCacheKey(id)
	var cached models.Student
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && cached.ID != 0 {
		c.JSON(http.StatusOK, cached)
		return
	}

	var student models.Student
	if err := h.db.First(&student, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Student with ID %d not found", id)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	go h.cache.Set(context.Background(), cacheKey, student, 60*time.Second)

	c.JSON(http.StatusOK, student)
}

func (h *StudentsHandler) CreateStudent(c *gin.Context) {
	var req CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	student := models.Student{Name: req.Name, Email: req.Email}
	if err := h.db.Create(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database insert failed"})
		return
	}

	c.JSON(http.StatusCreated, student)
}

func (h *StudentsHandler) UpdateStudent(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid student id"})
		return
	}

	var req UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var student models.Student
	if err := h.db.First(&student, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Student with ID %d not found", id)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	if req.Name != nil {
		student.Name = *req.Name
	}
	if req.Email != nil {
		student.Email = *req.Email
	}

	if err := h.db.Save(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database update failed"})
		return
	}

	go h.cache.Delete(context.Background(), studentCacheKey(id))

	c.JSON(http.StatusOK, student)
}

func (h *StudentsHandler) DeleteStudent(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid student id"})
		return
	}

	var student models.Student
	if err := h.db.First(&student, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Student with ID %d not found", id)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	// Enrollments go with their student.
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ?", student.ID).Delete(&models.Enrollment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&student).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database delete failed"})
		return
	}

	go h.cache.Delete(context.Background(), studentCacheKey(id))

	c.Status(http.StatusNoContent)
}
