package controllers

import (
	"errors"
	"log"

	"educredit/database"
	"educredit/middleware"
	creditService "educredit/services/credit"

	"github.com/gofiber/fiber/v2"
)

// SetRequirements syncs the credit requirements of a course. Used by course
// configuration tooling on publish.
func SetRequirements(c *fiber.Ctx) error {
	courseKey := c.Locals("validatedCourseKey").(string)
	requirements := c.Locals("validatedRequirements").([]creditService.RequirementSpec)

	err := creditService.SetCreditRequirements(database.Database.Db, courseKey, requirements)
	if err != nil {
		switch {
		case errors.Is(err, creditService.ErrInvalidCreditRequirements):
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Each requirement needs namespace, name, display_name and criteria!", nil)
		case errors.Is(err, creditService.ErrInvalidCreditCourse):
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Course is not an enabled credit course!", nil)
		}
		log.Printf("[CREDIT] Setting requirements for %s failed: %v", courseKey, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to set requirements!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Requirements updated successfully!", nil)
}

// GetRequirements lists the active credit requirements of a course,
// optionally filtered by the "namespace" query parameter.
func GetRequirements(c *fiber.Ctx) error {
	courseKey := c.Locals("validatedCourseKey").(string)
	namespace := c.Query("namespace")

	requirements, err := creditService.GetCreditRequirements(database.Database.Db, courseKey, namespace)
	if err != nil {
		if errors.Is(err, creditService.ErrInvalidCreditCourse) {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Course is not an enabled credit course!", nil)
		}
		log.Printf("[CREDIT] Listing requirements for %s failed: %v", courseKey, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch requirements!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Requirements fetched successfully!", requirements)
}
