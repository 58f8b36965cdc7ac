package credit

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Requirement statuses a learner can hold against a single requirement.
// A learner with no status row has neither satisfied nor failed it.
const (
	RequirementStatusSatisfied = "satisfied"
	RequirementStatusFailed    = "failed"
)

// CreditRequirement is a named rule attached to a credit course, identified
// by (namespace, name) within the course. The criteria payload carries
// whatever clients need to evaluate the rule (e.g. {"min_grade": 0.8}).
// Requirements are soft-deleted by flipping Active, never removed.
type CreditRequirement struct {
	gorm.Model
	CourseID    uint           `json:"course_id" gorm:"uniqueIndex:idx_requirement_identity;not null"`
	Namespace   string         `json:"namespace" gorm:"uniqueIndex:idx_requirement_identity;not null"`
	Name        string         `json:"name" gorm:"uniqueIndex:idx_requirement_identity;not null"`
	DisplayName string         `json:"display_name"`
	Criteria    datatypes.JSON `json:"criteria"`
	Active      bool           `json:"active" gorm:"default:true"`
	Course      CreditCourse   `json:"-" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
}

// CreditRequirementStatus is an append-only record of a learner's outcome
// for one requirement. The latest row per (username, requirement) wins.
// The reason payload is requirement-specific, e.g. the final grade recorded
// when the grade requirement was satisfied.
type CreditRequirementStatus struct {
	gorm.Model
	Username      string            `json:"username" gorm:"index;not null"`
	RequirementID uint              `json:"requirement_id" gorm:"index;not null"`
	Status        string            `json:"status" gorm:"not null"`
	Reason        datatypes.JSON    `json:"reason"`
	Requirement   CreditRequirement `json:"-" gorm:"foreignKey:RequirementID;constraint:OnDelete:CASCADE"`
}
