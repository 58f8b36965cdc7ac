package credit

import (
	"encoding/json"
	"log"

	creditModels "educredit/models/credit"

	"gorm.io/gorm"
)

// RequirementSpec is the wire format used by course configuration sync to
// declare a single credit requirement.
type RequirementSpec struct {
	Namespace   string                 `json:"namespace"`
	Name        string                 `json:"name"`
	DisplayName string                 `json:"display_name"`
	Criteria    map[string]interface{} `json:"criteria"`
}

// SetCreditRequirements syncs the credit requirements of a course.
//
// Each submitted requirement is upserted by its (namespace, name) identity:
// re-submitting an existing requirement replaces its criteria and
// reactivates it. Afterwards, any still-active requirement whose namespace
// appears in the submission but whose (namespace, name) was not re-submitted
// is deactivated. Namespaces absent from the submission are left alone, so
// one subsystem's sync never disables another's requirements.
func SetCreditRequirements(db *gorm.DB, courseKey string, requirements []RequirementSpec) error {
	for _, req := range requirements {
		if req.Namespace == "" || req.Name == "" || req.DisplayName == "" || req.Criteria == nil {
			return ErrInvalidCreditRequirements
		}
	}

	course, err := getEnabledCreditCourse(db, courseKey)
	if err != nil {
		return err
	}

	submittedNamespaces := make(map[string]bool)
	submittedNames := make(map[string]map[string]bool)

	for _, req := range requirements {
		criteria, err := json.Marshal(req.Criteria)
		if err != nil {
			return ErrInvalidCreditRequirements
		}

		var existing creditModels.CreditRequirement
		err = db.Where("course_id = ? AND namespace = ? AND name = ?", course.ID, req.Namespace, req.Name).
			First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			existing = creditModels.CreditRequirement{
				CourseID:    course.ID,
				Namespace:   req.Namespace,
				Name:        req.Name,
				DisplayName: req.DisplayName,
				Criteria:    criteria,
				Active:      true,
			}
			if err := db.Create(&existing).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		} else {
			existing.DisplayName = req.DisplayName
			existing.Criteria = criteria
			existing.Active = true
			if err := db.Save(&existing).Error; err != nil {
				return err
			}
		}

		submittedNamespaces[req.Namespace] = true
		if submittedNames[req.Namespace] == nil {
			submittedNames[req.Namespace] = make(map[string]bool)
		}
		submittedNames[req.Namespace][req.Name] = true
	}

	// Deactivate requirements dropped from the submitted namespaces.
	for namespace := range submittedNamespaces {
		var stale []creditModels.CreditRequirement
		err := db.Where("course_id = ? AND namespace = ? AND active = ?", course.ID, namespace, true).
			Find(&stale).Error
		if err != nil {
			return err
		}
		for _, requirement := range stale {
			if submittedNames[namespace][requirement.Name] {
				continue
			}
			if err := db.Model(&requirement).Update("active", false).Error; err != nil {
				return err
			}
			log.Printf("[CREDIT] Deactivated requirement %s/%s for course %s", requirement.Namespace, requirement.Name, courseKey)
		}
	}

	return nil
}

// GetCreditRequirements returns the active requirements of a course,
// optionally filtered by namespace. Pass an empty namespace for all.
func GetCreditRequirements(db *gorm.DB, courseKey string, namespace string) ([]creditModels.CreditRequirement, error) {
	course, err := getEnabledCreditCourse(db, courseKey)
	if err != nil {
		return nil, err
	}

	query := db.Where("course_id = ? AND active = ?", course.ID, true)
	if namespace != "" {
		query = query.Where("namespace = ?", namespace)
	}

	var requirements []creditModels.CreditRequirement
	if err := query.Order("id ASC").Find(&requirements).Error; err != nil {
		return nil, err
	}
	return requirements, nil
}

// IsCreditCourse reports whether the course is registered and enabled for credit.
func IsCreditCourse(db *gorm.DB, courseKey string) (bool, error) {
	var count int64
	err := db.Model(&creditModels.CreditCourse{}).
		Where("course_key = ? AND enabled = ?", courseKey, true).
		Count(&count).Error
	return count > 0, err
}

func getEnabledCreditCourse(db *gorm.DB, courseKey string) (creditModels.CreditCourse, error) {
	var course creditModels.CreditCourse
	err := db.Where("course_key = ? AND enabled = ?", courseKey, true).First(&course).Error
	if err == gorm.ErrRecordNotFound {
		return course, ErrInvalidCreditCourse
	}
	return course, err
}
