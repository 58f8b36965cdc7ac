package controllers

import (
	"strings"
	"time"

	"educredit/database"
	"educredit/middleware"
	"educredit/models"

	"github.com/google/uuid"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"log"
)

// CertificateSummary is what the support UI renders per certificate.
type CertificateSummary struct {
	Username          string    `json:"username"`
	CourseKey         string    `json:"course_key"`
	CertificateNumber string    `json:"certificate_number"`
	Status            string    `json:"status"`
	Grade             float64   `json:"grade"`
	DownloadURL       string    `json:"download_url"`
	IssuedAt          time.Time `json:"issued_at"`
}

// SearchCertificates finds certificates by learner username or email.
// Support staff use this to answer "where is my certificate" tickets.
func SearchCertificates(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Search query is required!", nil)
	}

	db := database.Database.Db

	var user models.User
	err := db.Where("(username = ? OR email = ?) AND is_deleted = ?", query, query, false).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "User does not exist!", nil)
		}
		log.Printf("[SUPPORT] Certificate search for %q failed: %v", query, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to search certificates!", nil)
	}

	var certificates []models.Certificate
	err = db.Where("username = ? AND is_deleted = ?", user.Username, false).
		Order("issued_at DESC").Find(&certificates).Error
	if err != nil {
		log.Printf("[SUPPORT] Certificate lookup for %s failed: %v", user.Username, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to search certificates!", nil)
	}

	summaries := make([]CertificateSummary, 0, len(certificates))
	for _, cert := range certificates {
		summaries = append(summaries, CertificateSummary{
			Username:          cert.Username,
			CourseKey:         cert.CourseKey,
			CertificateNumber: cert.CertificateNumber,
			Status:            cert.Status,
			Grade:             cert.Grade,
			DownloadURL:       cert.DownloadURL,
			IssuedAt:          cert.IssuedAt,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched successfully!", summaries)
}

// RegenerateCertificate re-issues a learner's certificate for a course.
// The learner must exist and be enrolled; any downstream failure is logged
// with context and surfaced as a generic server error.
func RegenerateCertificate(c *fiber.Ctx) error {
	reqData := new(struct {
		Username  string `json:"username"`
		CourseKey string `json:"course_key"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	db := database.Database.Db

	var user models.User
	err := db.Where("username = ? AND is_deleted = ?", reqData.Username, false).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "User does not exist!", nil)
		}
		log.Printf("[SUPPORT] User lookup for regeneration failed (user %s): %v", reqData.Username, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to regenerate certificate!", nil)
	}

	if reqData.CourseKey == "" || strings.Count(reqData.CourseKey, "/") != 2 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course key!", nil)
	}

	var enrollment models.Enrollment
	err = db.Where("user_id = ? AND course_key = ? AND is_deleted = ?", user.ID, reqData.CourseKey, false).
		First(&enrollment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "User is not enrolled in this course!", nil)
		}
		log.Printf("[SUPPORT] Enrollment lookup for regeneration failed (user %d, course %s): %v", user.ID, reqData.CourseKey, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to regenerate certificate!", nil)
	}

	if err := regenerate(db, &user, reqData.CourseKey); err != nil {
		// Regeneration failures must not leak internals to support staff.
		log.Printf("[SUPPORT] Certificate regeneration failed (user %d, course %s): %v", user.ID, reqData.CourseKey, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to regenerate certificate!", nil)
	}

	log.Printf("[SUPPORT] Certificate regenerated for user %s in course %s", user.Username, reqData.CourseKey)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate regeneration triggered!", nil)
}

func regenerate(db *gorm.DB, user *models.User, courseKey string) error {
	number := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))

	var cert models.Certificate
	err := db.Where("user_id = ? AND course_key = ? AND is_deleted = ?", user.ID, courseKey, false).
		First(&cert).Error
	if err == gorm.ErrRecordNotFound {
		cert = models.Certificate{
			UserID:            user.ID,
			Username:          user.Username,
			CourseKey:         courseKey,
			CertificateNumber: number,
			Status:            models.CertificateStatusGenerating,
			IssuedAt:          time.Now(),
		}
		return db.Create(&cert).Error
	} else if err != nil {
		return err
	}

	return db.Model(&cert).Updates(map[string]interface{}{
		"certificate_number": number,
		"status":             models.CertificateStatusGenerating,
		"issued_at":          time.Now(),
	}).Error
}
