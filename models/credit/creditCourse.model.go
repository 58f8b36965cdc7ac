package credit

import "gorm.io/gorm"

// CreditCourse marks a course as eligible for university credit.
type CreditCourse struct {
	gorm.Model
	CourseKey string           `json:"course_key" gorm:"uniqueIndex;not null"`
	Enabled   bool             `json:"enabled" gorm:"default:false"`
	Providers []CreditProvider `json:"providers" gorm:"many2many:credit_course_providers"`
}

// CreditProvider is an institution that can grant credit for a course,
// identified by a unique id (e.g. "asu").
type CreditProvider struct {
	gorm.Model
	ProviderID  string `json:"provider_id" gorm:"uniqueIndex;not null"`
	DisplayName string `json:"display_name"`
	URL         string `json:"url"` // where the learner's browser posts the signed request

	// When integration is disabled we send the learner to a provider-hosted
	// form (GET) instead of posting the signed parameters (POST).
	EnableIntegration bool `json:"enable_integration" gorm:"default:false"`

	// Shared secret used to sign requests exchanged with the provider.
	// Never serialized in API responses.
	SecretKey string `json:"-"`
}
