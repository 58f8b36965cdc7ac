package credit

import (
	"fmt"
	"testing"

	"educredit/database"
	"educredit/models"
	creditModels "educredit/models/credit"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database with the full schema applied.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))
	return db
}

func seedProvider(t *testing.T, db *gorm.DB, providerID string, integration bool) creditModels.CreditProvider {
	t.Helper()

	provider := creditModels.CreditProvider{
		ProviderID:        providerID,
		DisplayName:       "University of " + providerID,
		URL:               "https://credit.example.com/request",
		EnableIntegration: integration,
		SecretKey:         "shhh-" + providerID,
	}
	require.NoError(t, db.Create(&provider).Error)
	return provider
}

func seedCreditCourse(t *testing.T, db *gorm.DB, courseKey string, enabled bool, providers ...creditModels.CreditProvider) creditModels.CreditCourse {
	t.Helper()

	course := creditModels.CreditCourse{
		CourseKey: courseKey,
		Enabled:   enabled,
		Providers: providers,
	}
	require.NoError(t, db.Create(&course).Error)
	return course
}

func seedUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()

	user := models.User{
		Username: username,
		Name:     "Ron Weasley",
		Email:    username + "@example.com",
		Role:     "USER",
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// seedRequirements registers a grade requirement plus a verification
// checkpoint, the usual shape of a credit course.
func seedRequirements(t *testing.T, db *gorm.DB, courseKey string) {
	t.Helper()

	err := SetCreditRequirements(db, courseKey, []RequirementSpec{
		{
			Namespace:   "grade",
			Name:        "grade",
			DisplayName: "Minimum Grade",
			Criteria:    map[string]interface{}{"min_grade": 0.8},
		},
		{
			Namespace:   "reverification",
			Name:        "midterm-checkpoint",
			DisplayName: "Midterm Checkpoint",
			Criteria:    map[string]interface{}{},
		},
	})
	require.NoError(t, err)
}

// satisfyAll marks every seeded requirement satisfied, which also
// establishes the user's eligibility record.
func satisfyAll(t *testing.T, db *gorm.DB, courseKey, username string, finalGrade float64) {
	t.Helper()

	err := SetCreditRequirementStatus(db, username, courseKey, "reverification", "midterm-checkpoint",
		creditModels.RequirementStatusSatisfied, nil)
	require.NoError(t, err)
	err = SetCreditRequirementStatus(db, username, courseKey, "grade", "grade",
		creditModels.RequirementStatusSatisfied, map[string]interface{}{"final_grade": finalGrade})
	require.NoError(t, err)
}
