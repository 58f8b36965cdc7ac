package main

import (
	"educredit/config"
	"educredit/contentstore"
	"educredit/database"
	authRoutes "educredit/routers/authRoutes"
	creditRoutes "educredit/routers/creditRoutes"
	supportRoutes "educredit/routers/supportRoutes"
	creditService "educredit/services/credit"
	"educredit/services/verification"
	"educredit/utils"

	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()
	db := database.Database.Db

	// Course content store backed by the same database. Publishing a course
	// re-applies the verification access rules.
	store, err := contentstore.NewGormStore(db)
	if err != nil {
		log.Fatalf("content store setup failed: %v", err)
	}
	verification.RegisterPublishHook(store, verification.NewScheme(db))

	// Eligibility notifications go out by email as soon as a learner
	// satisfies the last requirement.
	creditService.NotifyEligibility = func(username, courseKey string) {
		go utils.NotifyCreditEligibility(username, courseKey)
	}

	utils.InitializeEligibilityScheduler()

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",        // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization", // Allowed headers
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	authRoutes.SetupAuthRoutes(app)
	creditRoutes.SetupCreditRoutes(app)
	supportRoutes.SetupSupportRoutes(app)

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
