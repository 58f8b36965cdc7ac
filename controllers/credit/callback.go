package controllers

import (
	"errors"
	"log"
	"time"

	"educredit/config"
	"educredit/database"
	"educredit/middleware"
	creditModels "educredit/models/credit"
	creditService "educredit/services/credit"
	creditValidator "educredit/validators/credit"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ProviderCallback handles a credit provider's approve/reject decision.
// The callback is authenticated by its signature, computed with the secret
// shared with that provider, not by a user session.
func ProviderCallback(c *fiber.Ctx) error {
	reqData := c.Locals("validatedCallback").(*creditValidator.CallbackBody)
	timestamp := c.Locals("callbackTimestamp").(time.Time)
	providerID := c.Params("providerId")

	db := database.Database.Db

	var provider creditModels.CreditProvider
	err := db.Where("provider_id = ?", providerID).First(&provider).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Credit provider not found!", nil)
		}
		log.Printf("[CREDIT] Provider lookup for callback failed: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process callback!", nil)
	}

	// Reject stale callbacks to limit the replay window.
	tolerance := time.Duration(config.AppConfig.CreditCallbackTolerance) * time.Second
	if time.Since(timestamp) > tolerance {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Callback timestamp is too old!", nil)
	}

	signed := map[string]string{
		"request_uuid": reqData.RequestUUID,
		"status":       reqData.Status,
		"timestamp":    reqData.Timestamp,
	}
	if !creditService.VerifySignature(signed, provider.SecretKey, reqData.Signature) {
		log.Printf("[CREDIT] Invalid callback signature from provider %s for request %s", providerID, reqData.RequestUUID)
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Invalid signature!", nil)
	}

	// Scope the lookup to this provider so one provider cannot decide
	// another provider's requests.
	if _, err := creditService.GetCreditRequestByUUID(db, reqData.RequestUUID, providerID); err != nil {
		if errors.Is(err, creditService.ErrCreditRequestNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Credit request not found!", nil)
		}
		log.Printf("[CREDIT] Request lookup for callback failed: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process callback!", nil)
	}

	if err := creditService.UpdateCreditRequestStatus(db, reqData.RequestUUID, reqData.Status); err != nil {
		switch {
		case errors.Is(err, creditService.ErrInvalidCreditStatus):
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Status must be 'approved' or 'rejected'!", nil)
		case errors.Is(err, creditService.ErrCreditRequestNotFound):
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Credit request not found!", nil)
		}
		log.Printf("[CREDIT] Updating request %s failed: %v", reqData.RequestUUID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process callback!", nil)
	}

	log.Printf("[CREDIT] Provider %s marked request %s as %s", providerID, reqData.RequestUUID, reqData.Status)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Credit request status updated!", nil)
}
