package models

import "time"

// Enrollment holds one student's record for one course. Score columns are
// nullable: they fill in over a term, and result stays NULL until the course
// is graded. Only rows with a result are usable as training data.
type Enrollment struct {
	ID             uint      `gorm:"column:id;primaryKey" json:"id"`
	StudentID      uint      `gorm:"column:student_id;index" json:"student_id"`
	CourseID       uint      `gorm:"column:course_id" json:"course_id"`
	Attendance     *float64  `gorm:"column:attendance" json:"attendance"`
	Marks          *float64  `gorm:"column:marks" json:"marks"`
	InternalScore  *float64  `gorm:"column:internal_score" json:"internal_score"`
	FinalExamScore *float64  `gorm:"column:final_exam_score" json:"final_exam_score"`
	Result         *int      `gorm:"column:result" json:"result"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Enrollment) TableName() string { return "enrollments" }
