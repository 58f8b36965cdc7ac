package models

import (
	"gorm.io/gorm"
)

// Enrollment modes. Verified-track learners are the ones subject to
// verification checkpoints inside a course.
const (
	EnrollmentModeAudit    = "audit"
	EnrollmentModeVerified = "verified"
	EnrollmentModeCredit   = "credit"
)

type Enrollment struct {
	gorm.Model
	UserID    uint   `json:"user_id" gorm:"index;not null"`
	CourseKey string `json:"course_key" gorm:"index;not null"`
	Mode      string `json:"mode" gorm:"default:'audit'"`
	Status    string `json:"status" gorm:"default:'ENROLLED'"` // ENROLLED, COMPLETED
	IsDeleted bool   `gorm:"default:false"`
	User      User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
