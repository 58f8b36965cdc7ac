package creditRoutes

import (
	controllers "educredit/controllers/credit"
	"educredit/middleware"
	validators "educredit/validators/credit"

	"github.com/gofiber/fiber/v2"
)

// SetupCreditRoutes sets up the credit provider integration API
func SetupCreditRoutes(app *fiber.App) {
	creditGroup := app.Group("/api/credit/v1")

	// Learner-facing: initiate a request and list own requests
	creditGroup.Post("/provider/:providerId/request", middleware.JWTMiddleware, validators.CreateCreditRequest(), controllers.CreateCreditRequest)
	creditGroup.Get("/requests", middleware.JWTMiddleware, controllers.GetUserCreditRequests)
	creditGroup.Get("/eligibility/:courseKey", middleware.JWTMiddleware, validators.CourseKeyParam(), controllers.GetEligibility)

	// Provider-facing: approve/reject callback, authenticated by signature
	creditGroup.Post("/provider/:providerId/callback", validators.ProviderCallback(), controllers.ProviderCallback)

	// Admin: requirement sync and provider health
	creditGroup.Put("/courses/:courseKey/requirements", middleware.JWTMiddleware, middleware.RequireRole("ADMIN"), validators.SetRequirements(), controllers.SetRequirements)
	creditGroup.Get("/courses/:courseKey/requirements", middleware.JWTMiddleware, middleware.RequireRole("ADMIN"), validators.CourseKeyParam(), controllers.GetRequirements)
	creditGroup.Get("/provider/:providerId/health", middleware.JWTMiddleware, middleware.RequireRole("ADMIN"), controllers.ProviderHealth)
}
