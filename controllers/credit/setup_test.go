package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"educredit/config"
	"educredit/database"
	"educredit/middleware"
	"educredit/models"
	creditModels "educredit/models/credit"
	creditRoutes "educredit/routers/creditRoutes"
	creditService "educredit/services/credit"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testCourseKey = "HogwartsX/Potions101/2026"

// escaped course key for use as a path parameter
const testCourseKeyParam = "HogwartsX%2FPotions101%2F2026"

// newTestApp wires the credit routes against a fresh in-memory database
// and points the package globals at it.
func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	config.AppConfig = &config.Config{
		JWTKey:                  "test-secret",
		CreditCallbackTolerance: 600,
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))
	database.Database = database.DbInstance{Db: db}

	app := fiber.New()
	creditRoutes.SetupCreditRoutes(app)
	return app, db
}

func seedUser(t *testing.T, db *gorm.DB, username, role string) models.User {
	t.Helper()

	user := models.User{
		Username: username,
		Name:     "Ron Weasley",
		Email:    username + "@example.com",
		Role:     role,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func bearerToken(t *testing.T, user models.User) string {
	t.Helper()

	token, err := middleware.GenerateJWT(user.ID, user.Username, user.Name, user.Role, user.Email)
	require.NoError(t, err)
	return "Bearer " + token
}

// seedEligibleUser sets up an enabled credit course with one provider and a
// user who already satisfied every requirement.
func seedEligibleUser(t *testing.T, db *gorm.DB, username string, integration bool) creditModels.CreditProvider {
	t.Helper()

	provider := creditModels.CreditProvider{
		ProviderID:        "hogwarts",
		DisplayName:       "Hogwarts University",
		URL:               "https://credit.example.com/request",
		EnableIntegration: integration,
		SecretKey:         "shared-secret",
	}
	require.NoError(t, db.Create(&provider).Error)
	course := creditModels.CreditCourse{
		CourseKey: testCourseKey,
		Enabled:   true,
		Providers: []creditModels.CreditProvider{provider},
	}
	require.NoError(t, db.Create(&course).Error)

	err := creditService.SetCreditRequirements(db, testCourseKey, []creditService.RequirementSpec{
		{Namespace: "grade", Name: "grade", DisplayName: "Minimum Grade", Criteria: map[string]interface{}{"min_grade": 0.8}},
	})
	require.NoError(t, err)
	err = creditService.SetCreditRequirementStatus(db, username, testCourseKey, "grade", "grade",
		creditModels.RequirementStatusSatisfied, map[string]interface{}{"final_grade": 0.95})
	require.NoError(t, err)

	return provider
}

func jsonRequest(t *testing.T, method, target string, body interface{}, authorization string) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	defer resp.Body.Close()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}
