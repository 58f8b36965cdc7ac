package supportRoutes

import (
	controller "educredit/controllers/support"
	"educredit/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupSupportRoutes(app *fiber.App) {
	support := app.Group("/support")

	support.Get("/certificates", middleware.JWTMiddleware, middleware.RequireRole("SUPPORT", "ADMIN"), controller.SearchCertificates)
	support.Post("/certificates/regenerate", middleware.JWTMiddleware, middleware.RequireRole("SUPPORT", "ADMIN"), controller.RegenerateCertificate)
}
