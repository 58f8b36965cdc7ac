package credit

import "gorm.io/gorm"

// CreditEligibility records that a learner satisfied every active
// requirement of a credit course. Written once, never mutated.
type CreditEligibility struct {
	gorm.Model
	Username string `json:"username" gorm:"uniqueIndex:idx_eligibility_identity;not null"`
	CourseID uint   `json:"course_id" gorm:"uniqueIndex:idx_eligibility_identity;not null"`

	// Same naming constraint as CreditRequest: a field called ProviderID
	// would collide with CreditProvider.ProviderID in gorm's relation
	// resolution.
	CreditProviderID uint           `json:"provider_id" gorm:"column:provider_id;index;not null"`
	Course           CreditCourse   `json:"-" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	Provider         CreditProvider `json:"-" gorm:"foreignKey:CreditProviderID;references:ID;constraint:OnDelete:CASCADE"`

	// Set once the eligibility notification email went out, so the daily
	// reminder job does not nag learners twice.
	NotificationSent bool `json:"notification_sent" gorm:"default:false"`
}
