package credit

import (
	"regexp"
	"testing"
	"time"

	creditModels "educredit/models/credit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var hexUUID = regexp.MustCompile(`^[0-9a-f]{32}$`)

func TestCreateCreditRequestRequiresEligibility(t *testing.T) {
	db := newTestDB(t)
	provider := seedProvider(t, db, "hogwarts", true)
	seedCreditCourse(t, db, testCourseKey, true, provider)
	seedRequirements(t, db, testCourseKey)
	seedUser(t, db, "ron")

	_, err := CreateCreditRequest(db, testCourseKey, "hogwarts", "ron")
	assert.ErrorIs(t, err, ErrUserIsNotEligible)

	// A failed requirement never establishes eligibility either.
	err = SetCreditRequirementStatus(db, "ron", testCourseKey, "grade", "grade",
		creditModels.RequirementStatusFailed, nil)
	require.NoError(t, err)

	_, err = CreateCreditRequest(db, testCourseKey, "hogwarts", "ron")
	assert.ErrorIs(t, err, ErrUserIsNotEligible)
}

func TestCreateCreditRequestUnknownCourseOrProvider(t *testing.T) {
	db := newTestDB(t)
	provider := seedProvider(t, db, "hogwarts", true)
	seedCreditCourse(t, db, testCourseKey, true, provider)
	seedProvider(t, db, "unaffiliated", true)

	_, err := CreateCreditRequest(db, "NoSuch/Course/2026", "hogwarts", "ron")
	assert.ErrorIs(t, err, ErrInvalidCreditCourse)

	// Real provider, but not associated with this course.
	_, err = CreateCreditRequest(db, testCourseKey, "unaffiliated", "ron")
	assert.ErrorIs(t, err, ErrCreditProviderNotFound)

	_, err = CreateCreditRequest(db, testCourseKey, "no-such-provider", "ron")
	assert.ErrorIs(t, err, ErrCreditProviderNotFound)
}

func TestCreateCreditRequestBuildsSignedParameters(t *testing.T) {
	db := newTestDB(t)
	provider := seedProvider(t, db, "hogwarts", true)
	seedCreditCourse(t, db, testCourseKey, true, provider)
	seedRequirements(t, db, testCourseKey)

	address := "4 Privet Drive"
	country := "GB"
	user := seedUser(t, db, "ron")
	require.NoError(t, db.Model(&user).Updates(map[string]interface{}{
		"mailing_address": address,
		"country":         country,
	}).Error)

	satisfyAll(t, db, testCourseKey, "ron", 0.95)

	request, err := CreateCreditRequest(db, testCourseKey, "hogwarts", "ron")
	require.NoError(t, err)

	assert.Equal(t, provider.URL, request.URL)
	assert.Equal(t, "POST", request.Method)

	params := request.Parameters
	assert.Regexp(t, hexUUID, params["request_uuid"])
	assert.Equal(t, "HogwartsX", params["course_org"])
	assert.Equal(t, "Potions101", params["course_num"])
	assert.Equal(t, "2026", params["course_run"])
	assert.Equal(t, 0.95, params["final_grade"])
	assert.Equal(t, "ron", params["user_username"])
	assert.Equal(t, "ron@example.com", params["user_email"])
	assert.Equal(t, "Ron Weasley", params["user_full_name"])
	assert.Equal(t, address, params["user_mailing_address"])
	assert.Equal(t, country, params["user_country"])

	_, err = time.Parse(time.RFC3339, params["timestamp"].(string))
	assert.NoError(t, err)

	// The signature must be verifiable with the provider's secret over the
	// string form of the parameters.
	signed := make(map[string]string, len(params))
	for key, value := range params {
		if key == SignatureKey || key == "final_grade" {
			continue
		}
		signed[key] = value.(string)
	}
	signed["final_grade"] = "0.95"
	assert.True(t, VerifySignature(signed, provider.SecretKey, params[SignatureKey].(string)))

	// Each issue is recorded as pending.
	status, err := currentStatusOf(db, params["request_uuid"].(string))
	require.NoError(t, err)
	assert.Equal(t, creditModels.RequestStatusPending, status)
}

func TestCreateCreditRequestMissingProfileFieldsBlank(t *testing.T) {
	db := newTestDB(t)
	provider := seedProvider(t, db, "hogwarts", true)
	seedCreditCourse(t, db, testCourseKey, true, provider)
	seedRequirements(t, db, testCourseKey)
	seedUser(t, db, "ron")
	satisfyAll(t, db, testCourseKey, "ron", 0.95)

	request, err := CreateCreditRequest(db, testCourseKey, "hogwarts", "ron")
	require.NoError(t, err)

	assert.Equal(t, "", request.Parameters["user_mailing_address"])
	assert.Equal(t, "", request.Parameters["user_country"])
}

func TestCreateCreditRequestGetWithoutIntegration(t *testing.T) {
	db := newTestDB(t)
	provider := seedProvider(t, db, "hogwarts", false)
	seedCreditCourse(t, db, testCourseKey, true, provider)
	seedRequirements(t, db, testCourseKey)
	seedUser(t, db, "ron")
	satisfyAll(t, db, testCourseKey, "ron", 0.95)

	request, err := CreateCreditRequest(db, testCourseKey, "hogwarts", "ron")
	require.NoError(t, err)
	assert.Equal(t, "GET", request.Method)
}

func TestCreateCreditRequestReissueKeepsUUID(t *testing.T) {
	db := newTestDB(t)
	provider := seedProvider(t, db, "hogwarts", true)
	seedCreditCourse(t, db, testCourseKey, true, provider)
	seedRequirements(t, db, testCourseKey)
	user := seedUser(t, db, "ron")
	satisfyAll(t, db, testCourseKey, "ron", 0.95)

	first, err := CreateCreditRequest(db, testCourseKey, "hogwarts", "ron")
	require.NoError(t, err)

	// Profile changes between issues show up in the refreshed parameters.
	require.NoError(t, db.Model(&user).Update("email", "ronald@example.com").Error)

	second, err := CreateCreditRequest(db, testCourseKey, "hogwarts", "ron")
	require.NoError(t, err)

	assert.Equal(t, first.Parameters["request_uuid"], second.Parameters["request_uuid"])
	assert.Equal(t, "ronald@example.com", second.Parameters["user_email"])

	var count int64
	require.NoError(t, db.Model(&creditModels.CreditRequest{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateCreditRequestCompletedCannotReissue(t *testing.T) {
	db := newTestDB(t)
	provider := seedProvider(t, db, "hogwarts", true)
	seedCreditCourse(t, db, testCourseKey, true, provider)
	seedRequirements(t, db, testCourseKey)
	seedUser(t, db, "ron")
	satisfyAll(t, db, testCourseKey, "ron", 0.95)

	request, err := CreateCreditRequest(db, testCourseKey, "hogwarts", "ron")
	require.NoError(t, err)
	requestUUID := request.Parameters["request_uuid"].(string)

	require.NoError(t, UpdateCreditRequestStatus(db, requestUUID, creditModels.RequestStatusApproved))

	_, err = CreateCreditRequest(db, testCourseKey, "hogwarts", "ron")
	assert.ErrorIs(t, err, ErrRequestAlreadyCompleted)

	require.NoError(t, UpdateCreditRequestStatus(db, requestUUID, creditModels.RequestStatusRejected))

	_, err = CreateCreditRequest(db, testCourseKey, "hogwarts", "ron")
	assert.ErrorIs(t, err, ErrRequestAlreadyCompleted)
}

func TestCreateCreditRequestWithoutRecordedGrade(t *testing.T) {
	db := newTestDB(t)
	provider := seedProvider(t, db, "hogwarts", true)
	seedCreditCourse(t, db, testCourseKey, true, provider)
	seedRequirements(t, db, testCourseKey)
	seedUser(t, db, "ron")

	// Satisfy the grade requirement without a final_grade in the reason.
	err := SetCreditRequirementStatus(db, "ron", testCourseKey, "reverification", "midterm-checkpoint",
		creditModels.RequirementStatusSatisfied, nil)
	require.NoError(t, err)
	err = SetCreditRequirementStatus(db, "ron", testCourseKey, "grade", "grade",
		creditModels.RequirementStatusSatisfied, map[string]interface{}{})
	require.NoError(t, err)

	_, err = CreateCreditRequest(db, testCourseKey, "hogwarts", "ron")
	assert.ErrorIs(t, err, ErrUserIsNotEligible)
}

func TestUpdateCreditRequestStatusValidation(t *testing.T) {
	db := newTestDB(t)

	err := UpdateCreditRequestStatus(db, "ffffffffffffffffffffffffffffffff", "pending")
	assert.ErrorIs(t, err, ErrInvalidCreditStatus)

	err = UpdateCreditRequestStatus(db, "ffffffffffffffffffffffffffffffff", creditModels.RequestStatusApproved)
	assert.ErrorIs(t, err, ErrCreditRequestNotFound)
}

func TestGetCreditRequestsForUser(t *testing.T) {
	db := newTestDB(t)
	hogwarts := seedProvider(t, db, "hogwarts", true)
	acme := seedProvider(t, db, "acme-university", true)
	seedCreditCourse(t, db, testCourseKey, true, hogwarts)
	charms := seedCreditCourse(t, db, "HogwartsX/Charms101/2026", true, acme)
	seedRequirements(t, db, testCourseKey)
	seedUser(t, db, "ron")
	satisfyAll(t, db, testCourseKey, "ron", 0.95)

	// Second course only needs a grade requirement to mint eligibility.
	err := SetCreditRequirements(db, charms.CourseKey, []RequirementSpec{
		{Namespace: "grade", Name: "grade", DisplayName: "Minimum Grade", Criteria: map[string]interface{}{"min_grade": 0.8}},
	})
	require.NoError(t, err)
	err = SetCreditRequirementStatus(db, "ron", charms.CourseKey, "grade", "grade",
		creditModels.RequirementStatusSatisfied, map[string]interface{}{"final_grade": 0.81})
	require.NoError(t, err)

	first, err := CreateCreditRequest(db, testCourseKey, "hogwarts", "ron")
	require.NoError(t, err)
	_, err = CreateCreditRequest(db, charms.CourseKey, "acme-university", "ron")
	require.NoError(t, err)

	// Approved first, then rejected: the listing must show the latest.
	require.NoError(t, UpdateCreditRequestStatus(db,
		first.Parameters["request_uuid"].(string), creditModels.RequestStatusApproved))
	require.NoError(t, UpdateCreditRequestStatus(db,
		first.Parameters["request_uuid"].(string), creditModels.RequestStatusRejected))

	summaries, err := GetCreditRequestsForUser(db, "ron")
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Ordered by course key, then provider id, with the joined provider
	// fields filled in.
	assert.Equal(t, "HogwartsX/Charms101/2026", summaries[0].CourseKey)
	assert.Equal(t, "acme-university", summaries[0].Provider.ID)
	assert.Equal(t, "University of acme-university", summaries[0].Provider.DisplayName)
	assert.Equal(t, creditModels.RequestStatusPending, summaries[0].Status)

	assert.Equal(t, testCourseKey, summaries[1].CourseKey)
	assert.Equal(t, "hogwarts", summaries[1].Provider.ID)
	assert.NotEmpty(t, summaries[1].Provider.DisplayName)
	assert.Equal(t, creditModels.RequestStatusRejected, summaries[1].Status)

	empty, err := GetCreditRequestsForUser(db, "hermione")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGetCreditRequestByUUIDScopedToProvider(t *testing.T) {
	db := newTestDB(t)
	hogwarts := seedProvider(t, db, "hogwarts", true)
	other := seedProvider(t, db, "acme-university", true)
	seedCreditCourse(t, db, testCourseKey, true, hogwarts, other)
	seedRequirements(t, db, testCourseKey)
	seedUser(t, db, "ron")
	satisfyAll(t, db, testCourseKey, "ron", 0.95)

	request, err := CreateCreditRequest(db, testCourseKey, "hogwarts", "ron")
	require.NoError(t, err)
	requestUUID := request.Parameters["request_uuid"].(string)

	found, err := GetCreditRequestByUUID(db, requestUUID, "hogwarts")
	require.NoError(t, err)
	assert.Equal(t, requestUUID, found.UUID)

	// Another provider cannot see it.
	_, err = GetCreditRequestByUUID(db, requestUUID, "acme-university")
	assert.ErrorIs(t, err, ErrCreditRequestNotFound)
}

func currentStatusOf(db *gorm.DB, requestUUID string) (string, error) {
	var request creditModels.CreditRequest
	if err := db.Where("uuid = ?", requestUUID).First(&request).Error; err != nil {
		return "", err
	}
	return request.CurrentStatus(db)
}
