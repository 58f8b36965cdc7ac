package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	ProfileImage        string `gorm:"default:''"`
	Username            string `gorm:"unique;not null"`
	Name                string `gorm:"default:''"` // full name, as sent to credit providers
	Email               string `gorm:"unique;not null"`
	MailingAddress      *string
	Country             *string
	Role                string `gorm:"default:'USER'"` // USER, SUPPORT, ADMIN
	Password            string `gorm:"not null"`
	IsEmailVerified     bool   `gorm:"default:false"`
	LastLogin           time.Time
	FailedLoginAttempts int        `gorm:"default:0"`
	LastFailedLogin     *time.Time `json:"last_failed_login"`
	IsBlocked           bool       `gorm:"default:false"`
	IsDeleted           bool       `gorm:"default:false"`
}
