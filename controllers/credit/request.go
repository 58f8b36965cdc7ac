package controllers

import (
	"errors"
	"log"

	"educredit/database"
	"educredit/middleware"
	creditService "educredit/services/credit"
	creditValidator "educredit/validators/credit"

	"github.com/gofiber/fiber/v2"
)

// CreateCreditRequest initiates (or re-issues) a request for credit with a
// provider. The response tells the learner's browser what to send where;
// the server itself never contacts the provider.
func CreateCreditRequest(c *fiber.Ctx) error {
	username, ok := c.Locals("username").(string)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData := c.Locals("validatedCreditRequest").(*creditValidator.CreateRequestBody)
	providerID := c.Params("providerId")

	// Users can only request credit for themselves.
	if reqData.Username != username {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You can only request credit for your own account!", nil)
	}

	request, err := creditService.CreateCreditRequest(database.Database.Db, reqData.CourseKey, providerID, username)
	if err != nil {
		switch {
		case errors.Is(err, creditService.ErrInvalidCreditCourse):
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Course is not an enabled credit course!", nil)
		case errors.Is(err, creditService.ErrCreditProviderNotFound):
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Credit provider not found!", nil)
		case errors.Is(err, creditService.ErrUserIsNotEligible):
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not eligible for credit in this course!", nil)
		case errors.Is(err, creditService.ErrRequestAlreadyCompleted):
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "This credit request has already been completed!", nil)
		}
		log.Printf("[CREDIT] Creating credit request for %s in %s failed: %v", username, reqData.CourseKey, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create credit request!", nil)
	}

	return c.Status(fiber.StatusOK).JSON(request)
}

// GetUserCreditRequests lists the authenticated user's credit requests with
// their current statuses.
func GetUserCreditRequests(c *fiber.Ctx) error {
	username, ok := c.Locals("username").(string)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	requests, err := creditService.GetCreditRequestsForUser(database.Database.Db, username)
	if err != nil {
		log.Printf("[CREDIT] Listing credit requests for %s failed: %v", username, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch credit requests!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Credit requests fetched successfully!", requests)
}

// GetEligibility reports whether the authenticated user is eligible for
// credit in a course.
func GetEligibility(c *fiber.Ctx) error {
	username, ok := c.Locals("username").(string)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseKey := c.Locals("validatedCourseKey").(string)
	eligible, err := creditService.IsUserEligible(database.Database.Db, courseKey, username)
	if err != nil {
		log.Printf("[CREDIT] Eligibility check for %s in %s failed: %v", username, courseKey, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to check eligibility!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Eligibility fetched successfully!", fiber.Map{
		"username":   username,
		"course_key": courseKey,
		"eligible":   eligible,
	})
}
