package models

import (
	"gorm.io/gorm"
)

// Verification attempt statuses for an in-course checkpoint.
// "submitted" and "approved" both count as having completed the checkpoint:
// we do not make learners wait for review before unlocking exam content.
const (
	VerificationStatusSubmitted = "submitted"
	VerificationStatusApproved  = "approved"
	VerificationStatusDenied    = "denied"
)

// VerificationStatus records a learner's photo-verification attempt at a
// checkpoint block inside a course.
type VerificationStatus struct {
	gorm.Model
	Username           string `json:"username" gorm:"index;not null"`
	CourseKey          string `json:"course_key" gorm:"index;not null"`
	CheckpointLocation string `json:"checkpoint_location" gorm:"index;not null"`
	Status             string `json:"status"`
	IsDeleted          bool   `gorm:"default:false"`
}

// SkippedVerification records that a learner opted out of in-course
// verification for a whole course. One skip covers every checkpoint.
type SkippedVerification struct {
	gorm.Model
	Username  string `json:"username" gorm:"index;not null"`
	CourseKey string `json:"course_key" gorm:"index;not null"`
}
