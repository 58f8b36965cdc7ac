package controllers

import (
	"time"

	"educredit/database"
	"educredit/middleware"
	creditModels "educredit/models/credit"

	"github.com/go-resty/resty/v2"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ProviderHealth pings a credit provider's endpoint so admins can check the
// integration before learners hit it. This is the only place the server
// contacts a provider directly.
func ProviderHealth(c *fiber.Ctx) error {
	providerID := c.Params("providerId")

	var provider creditModels.CreditProvider
	err := database.Database.Db.Where("provider_id = ?", providerID).First(&provider).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Credit provider not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to look up provider!", nil)
	}

	client := resty.New().SetTimeout(5 * time.Second)
	start := time.Now()
	resp, err := client.R().Head(provider.URL)
	latency := time.Since(start)

	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Provider health checked!", fiber.Map{
			"provider_id": provider.ProviderID,
			"url":         provider.URL,
			"reachable":   false,
			"error":       err.Error(),
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Provider health checked!", fiber.Map{
		"provider_id": provider.ProviderID,
		"url":         provider.URL,
		"reachable":   true,
		"http_status": resp.StatusCode(),
		"latency_ms":  latency.Milliseconds(),
	})
}
