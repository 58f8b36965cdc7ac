package credit

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"educredit/models"
	creditModels "educredit/models/credit"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProviderRequest is what the learner's browser sends to the credit
// provider. The server never posts it itself.
type ProviderRequest struct {
	URL        string                 `json:"url"`
	Method     string                 `json:"method"`
	Parameters map[string]interface{} `json:"parameters"`
}

// ProviderInfo identifies a provider in request summaries.
type ProviderInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// RequestSummary describes one credit request with its current status.
type RequestSummary struct {
	UUID      string       `json:"uuid"`
	Timestamp time.Time    `json:"timestamp"`
	CourseKey string       `json:"course_key"`
	Provider  ProviderInfo `json:"provider"`
	Status    string       `json:"status"`
}

// CreateCreditRequest initiates (or re-issues) a request for credit from a
// provider on behalf of an eligible user.
//
// The request row is get-or-created: re-issuing before the provider has
// responded rebuilds the parameters from the user's current profile and
// grade but keeps the same UUID, so the provider callback still matches.
// Once the provider has approved or rejected the request it can never be
// re-issued.
func CreateCreditRequest(db *gorm.DB, courseKey, providerID, username string) (*ProviderRequest, error) {
	course, err := getEnabledCreditCourse(db, courseKey)
	if err != nil {
		return nil, err
	}

	provider, err := courseProvider(db, course.ID, providerID)
	if err != nil {
		return nil, err
	}

	// Eligibility is established ahead of time, when the user's final
	// requirement is satisfied. No record means not eligible.
	var eligibility creditModels.CreditEligibility
	err = db.Where("username = ? AND course_id = ?", username, course.ID).First(&eligibility).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrUserIsNotEligible
	} else if err != nil {
		return nil, err
	}

	var request creditModels.CreditRequest
	err = db.Where("username = ? AND course_id = ? AND provider_id = ?", username, course.ID, provider.ID).
		First(&request).Error
	if err == gorm.ErrRecordNotFound {
		request = creditModels.CreditRequest{
			UUID:             newRequestUUID(),
			Username:         username,
			CourseID:         course.ID,
			CreditProviderID: provider.ID,
		}
		if err := db.Create(&request).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	} else {
		status, err := request.CurrentStatus(db)
		if err != nil {
			return nil, err
		}
		if creditModels.IsTerminalRequestStatus(status) {
			return nil, ErrRequestAlreadyCompleted
		}
	}

	var user models.User
	err = db.Where("username = ? AND is_deleted = ?", username, false).First(&user).Error
	if err != nil {
		return nil, fmt.Errorf("look up user %s: %w", username, err)
	}

	finalGrade, err := recordedFinalGrade(db, course.ID, username)
	if err != nil {
		return nil, err
	}

	parsedKey, err := creditModels.ParseCourseKey(courseKey)
	if err != nil {
		return nil, ErrInvalidCreditCourse
	}

	mailingAddress := ""
	if user.MailingAddress != nil {
		mailingAddress = *user.MailingAddress
	}
	country := ""
	if user.Country != nil {
		country = *user.Country
	}

	// Parameters are rebuilt from scratch on every issue so the provider
	// always sees the user's current profile.
	signed := map[string]string{
		"request_uuid":         request.UUID,
		"timestamp":            time.Now().UTC().Format(time.RFC3339),
		"course_org":           parsedKey.Org,
		"course_num":           parsedKey.Number,
		"course_run":           parsedKey.Run,
		"final_grade":          strconv.FormatFloat(finalGrade, 'f', -1, 64),
		"user_username":        user.Username,
		"user_email":           user.Email,
		"user_full_name":       user.Name,
		"user_mailing_address": mailingAddress,
		"user_country":         country,
	}
	signature := Sign(signed, provider.SecretKey)

	parameters := make(map[string]interface{}, len(signed)+1)
	for key, value := range signed {
		parameters[key] = value
	}
	parameters["final_grade"] = finalGrade
	parameters[SignatureKey] = signature

	parametersJSON, err := json.Marshal(parameters)
	if err != nil {
		return nil, err
	}
	if err := db.Model(&request).Update("parameters", parametersJSON).Error; err != nil {
		return nil, err
	}

	// Every issue is audited with a fresh "pending" entry.
	pending := creditModels.CreditRequestStatus{
		RequestID: request.ID,
		Status:    creditModels.RequestStatusPending,
	}
	if err := db.Create(&pending).Error; err != nil {
		return nil, err
	}

	method := "GET"
	if provider.EnableIntegration {
		method = "POST"
	}

	return &ProviderRequest{
		URL:        provider.URL,
		Method:     method,
		Parameters: parameters,
	}, nil
}

// UpdateCreditRequestStatus appends a provider's approve/reject decision to
// a request's status history. Prior history is never mutated.
func UpdateCreditRequestStatus(db *gorm.DB, requestUUID, status string) error {
	if status != creditModels.RequestStatusApproved && status != creditModels.RequestStatusRejected {
		return ErrInvalidCreditStatus
	}

	var request creditModels.CreditRequest
	err := db.Where("uuid = ?", requestUUID).First(&request).Error
	if err == gorm.ErrRecordNotFound {
		return ErrCreditRequestNotFound
	} else if err != nil {
		return err
	}

	record := creditModels.CreditRequestStatus{
		RequestID: request.ID,
		Status:    status,
	}
	return db.Create(&record).Error
}

// GetCreditRequestsForUser returns every credit request of a user, ordered
// by course key then provider id, each annotated with its current status.
func GetCreditRequestsForUser(db *gorm.DB, username string) ([]RequestSummary, error) {
	var requests []creditModels.CreditRequest
	err := db.Joins("Course").Joins("Provider").
		Where("credit_requests.username = ?", username).
		Order("\"Course\".course_key ASC, \"Provider\".provider_id ASC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]RequestSummary, 0, len(requests))
	for _, request := range requests {
		status, err := request.CurrentStatus(db)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, RequestSummary{
			UUID:      request.UUID,
			Timestamp: request.CreatedAt,
			CourseKey: request.Course.CourseKey,
			Provider: ProviderInfo{
				ID:          request.Provider.ProviderID,
				DisplayName: request.Provider.DisplayName,
			},
			Status: status,
		})
	}
	return summaries, nil
}

// GetCreditRequestByUUID looks up a request by its UUID, scoped to a
// provider so one provider cannot act on another's requests.
func GetCreditRequestByUUID(db *gorm.DB, requestUUID, providerID string) (*creditModels.CreditRequest, error) {
	var request creditModels.CreditRequest
	err := db.Joins("Provider").
		Where("credit_requests.uuid = ? AND \"Provider\".provider_id = ?", requestUUID, providerID).
		First(&request).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrCreditRequestNotFound
	} else if err != nil {
		return nil, err
	}
	return &request, nil
}

// recordedFinalGrade digs the user's final grade out of the reason payload
// recorded when the grade requirement was satisfied. A user without one is
// treated as not eligible, however they got this far.
func recordedFinalGrade(db *gorm.DB, courseID uint, username string) (float64, error) {
	var requirement creditModels.CreditRequirement
	err := db.Where("course_id = ? AND namespace = ? AND name = ?", courseID, "grade", "grade").
		First(&requirement).Error
	if err == gorm.ErrRecordNotFound {
		return 0, ErrUserIsNotEligible
	} else if err != nil {
		return 0, err
	}

	status, err := latestRequirementStatus(db, username, requirement.ID)
	if err != nil {
		return 0, err
	}
	if status == nil || status.Status != creditModels.RequirementStatusSatisfied {
		return 0, ErrUserIsNotEligible
	}

	var reason map[string]interface{}
	if len(status.Reason) > 0 {
		if err := json.Unmarshal(status.Reason, &reason); err != nil {
			return 0, err
		}
	}
	grade, ok := reason["final_grade"].(float64)
	if !ok {
		return 0, ErrUserIsNotEligible
	}
	return grade, nil
}

// courseProvider resolves a provider id and checks it is associated with
// the course.
func courseProvider(db *gorm.DB, courseID uint, providerID string) (creditModels.CreditProvider, error) {
	var provider creditModels.CreditProvider
	err := db.Joins("JOIN credit_course_providers ccp ON ccp.credit_provider_id = credit_providers.id").
		Where("ccp.credit_course_id = ? AND credit_providers.provider_id = ?", courseID, providerID).
		First(&provider).Error
	if err == gorm.ErrRecordNotFound {
		return provider, ErrCreditProviderNotFound
	}
	return provider, err
}

// newRequestUUID returns a 32-character hex request identifier.
func newRequestUUID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
