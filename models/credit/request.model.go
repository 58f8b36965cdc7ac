package credit

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Request statuses. "pending" is implicit: a request with no status rows is
// pending. "approved" and "rejected" are terminal.
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// CreditRequest tracks a learner's request for credit from a provider.
// Each (username, course, provider) triple gets exactly one row; re-issuing
// a request before the provider responds updates the stored parameters but
// keeps the same UUID, so the provider's eventual callback still matches.
type CreditRequest struct {
	gorm.Model
	UUID     string `json:"uuid" gorm:"uniqueIndex;size:32;not null"`
	Username string `json:"username" gorm:"uniqueIndex:idx_request_identity;not null"`
	CourseID uint   `json:"course_id" gorm:"uniqueIndex:idx_request_identity;not null"`

	// Named CreditProviderID rather than ProviderID: the latter collides
	// with CreditProvider.ProviderID (the string business id) and makes
	// gorm resolve the relation as a has-one against that field.
	CreditProviderID uint           `json:"provider_id" gorm:"column:provider_id;uniqueIndex:idx_request_identity;not null"`
	Parameters       datatypes.JSON `json:"parameters"`
	Course           CreditCourse   `json:"-" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	Provider         CreditProvider `json:"-" gorm:"foreignKey:CreditProviderID;references:ID;constraint:OnDelete:CASCADE"`
}

// CreditRequestStatus is one entry in a request's status history.
// Rows are immutable; the latest row is the request's current status.
type CreditRequestStatus struct {
	gorm.Model
	RequestID uint          `json:"request_id" gorm:"index;not null"`
	Status    string        `json:"status" gorm:"not null"`
	Request   CreditRequest `json:"-" gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE"`
}

// CurrentStatus returns the latest status recorded for the request, or
// "pending" when no status rows exist yet.
func (r *CreditRequest) CurrentStatus(db *gorm.DB) (string, error) {
	var status CreditRequestStatus
	err := db.Where("request_id = ?", r.ID).
		Order("created_at DESC, id DESC").
		First(&status).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return RequestStatusPending, nil
		}
		return "", err
	}
	return status.Status, nil
}

// IsTerminalRequestStatus reports whether a status ends the request's
// lifecycle. Terminal requests cannot be re-issued.
func IsTerminalRequestStatus(status string) bool {
	return status == RequestStatusApproved || status == RequestStatusRejected
}
