package credit

import (
	"encoding/json"
	"log"

	creditModels "educredit/models/credit"

	"gorm.io/gorm"
)

// NotifyEligibility, when set, is called after a learner becomes eligible
// for credit in a course. Wired to the email service at startup; failures
// are the callback's problem, eligibility is already recorded.
var NotifyEligibility func(username, courseKey string)

// IsUserEligible recomputes on demand whether the user satisfied every
// active requirement of the course. A missing status row for any active
// requirement means not eligible.
func IsUserEligible(db *gorm.DB, courseKey, username string) (bool, error) {
	course, err := getEnabledCreditCourse(db, courseKey)
	if err != nil {
		if err == ErrInvalidCreditCourse {
			return false, nil
		}
		return false, err
	}

	var requirements []creditModels.CreditRequirement
	err = db.Where("course_id = ? AND active = ?", course.ID, true).Find(&requirements).Error
	if err != nil {
		return false, err
	}
	if len(requirements) == 0 {
		return false, nil
	}

	for _, requirement := range requirements {
		status, err := latestRequirementStatus(db, username, requirement.ID)
		if err != nil {
			return false, err
		}
		if status == nil || status.Status != creditModels.RequirementStatusSatisfied {
			return false, nil
		}
	}
	return true, nil
}

// SetCreditRequirementStatus appends a satisfied/failed outcome for one
// requirement of a course. Status history is append-only; the newest row
// wins. When the new status completes the full requirement set, a
// CreditEligibility record is created and the learner is notified.
func SetCreditRequirementStatus(db *gorm.DB, username, courseKey, namespace, name, status string, reason map[string]interface{}) error {
	if status != creditModels.RequirementStatusSatisfied && status != creditModels.RequirementStatusFailed {
		return ErrInvalidCreditStatus
	}

	course, err := getEnabledCreditCourse(db, courseKey)
	if err != nil {
		return err
	}

	var requirement creditModels.CreditRequirement
	err = db.Where("course_id = ? AND namespace = ? AND name = ? AND active = ?", course.ID, namespace, name, true).
		First(&requirement).Error
	if err == gorm.ErrRecordNotFound {
		return ErrInvalidCreditRequirements
	} else if err != nil {
		return err
	}

	reasonJSON, err := json.Marshal(reason)
	if err != nil {
		return err
	}
	record := creditModels.CreditRequirementStatus{
		Username:      username,
		RequirementID: requirement.ID,
		Status:        status,
		Reason:        reasonJSON,
	}
	if err := db.Create(&record).Error; err != nil {
		return err
	}

	if status != creditModels.RequirementStatusSatisfied {
		return nil
	}

	eligible, err := IsUserEligible(db, courseKey, username)
	if err != nil || !eligible {
		return err
	}
	return establishEligibility(db, course, username, courseKey)
}

// establishEligibility records eligibility once per (username, course).
// Re-satisfying requirements later never creates a second record.
func establishEligibility(db *gorm.DB, course creditModels.CreditCourse, username, courseKey string) error {
	var existing creditModels.CreditEligibility
	err := db.Where("username = ? AND course_id = ?", username, course.ID).First(&existing).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	provider, err := firstCourseProvider(db, course.ID)
	if err != nil {
		return err
	}

	eligibility := creditModels.CreditEligibility{
		Username:         username,
		CourseID:         course.ID,
		CreditProviderID: provider.ID,
	}
	if err := db.Create(&eligibility).Error; err != nil {
		return err
	}

	log.Printf("[CREDIT] User %s became eligible for credit in course %s", username, courseKey)
	if NotifyEligibility != nil {
		NotifyEligibility(username, courseKey)
	}
	return nil
}

// latestRequirementStatus returns the newest status row for a user and
// requirement, or nil when the user has no recorded outcome yet.
func latestRequirementStatus(db *gorm.DB, username string, requirementID uint) (*creditModels.CreditRequirementStatus, error) {
	var status creditModels.CreditRequirementStatus
	err := db.Where("username = ? AND requirement_id = ?", username, requirementID).
		Order("created_at DESC, id DESC").
		First(&status).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func firstCourseProvider(db *gorm.DB, courseID uint) (creditModels.CreditProvider, error) {
	var provider creditModels.CreditProvider
	err := db.Joins("JOIN credit_course_providers ccp ON ccp.credit_provider_id = credit_providers.id").
		Where("ccp.credit_course_id = ?", courseID).
		Order("credit_providers.provider_id ASC").
		First(&provider).Error
	return provider, err
}
