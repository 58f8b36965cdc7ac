package models

import (
	"time"

	"gorm.io/gorm"
)

// Certificate statuses
const (
	CertificateStatusGenerating = "GENERATING"
	CertificateStatusDownloadable = "DOWNLOADABLE"
	CertificateStatusError      = "ERROR"
)

// Certificate represents an issued certificate for course completion
type Certificate struct {
	gorm.Model
	UserID            uint      `json:"user_id" gorm:"index;not null"`
	Username          string    `json:"username" gorm:"index;not null"`
	CourseKey         string    `json:"course_key" gorm:"index;not null"`
	CertificateNumber string    `json:"certificate_number" gorm:"unique"`
	Status            string    `json:"status" gorm:"default:'GENERATING'"`
	Grade             float64   `json:"grade" gorm:"default:0"`
	DownloadURL       string    `json:"download_url"`
	IssuedAt          time.Time `json:"issued_at"`
	IsDeleted         bool      `gorm:"default:false"`
}
