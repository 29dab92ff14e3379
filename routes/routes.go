package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"

	"glowreach/config"
	controller "glowreach/controllers"
	"glowreach/engine"
	"glowreach/middleware"
)

func SetupAuthRoutes(app *fiber.App, db *gorm.DB) {
	authLogger := log.New(os.Stdout, "AUTH: ", log.Ldate|log.Ltime|log.Lshortfile)
	authController := controller.NewAuthController(db, authLogger)

	// Auth routes group with logging middleware
	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public auth endpoints (no authentication required)
	auth.Post("/register", authController.Register)
	auth.Post("/login", authController.Login)
	auth.Post("/refresh", authController.RefreshToken)

	// Protected auth endpoints (require valid JWT)
	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Get("/me", authController.Me)

	authLogger.Println("Authentication routes initialized successfully")
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB, previewManager *engine.PreviewManager) {
	campaignController := controller.NewCampaignController(db, log.New(os.Stdout, "CAMPAIGN: ", log.LstdFlags))
	batchController := controller.NewBatchController(db, log.New(os.Stdout, "BATCH: ", log.LstdFlags))
	previewController := controller.NewPreviewController(db, log.New(os.Stdout, "PREVIEW: ", log.LstdFlags), previewManager)
	patientController := controller.NewPatientController(db, log.New(os.Stdout, "PATIENT: ", log.LstdFlags))
	dashboardController := controller.NewDashboardController(db, log.New(os.Stdout, "DASHBOARD: ", log.LstdFlags))
	paymentController := controller.NewPaymentController(db, log.New(os.Stdout, "PAYMENT: ", log.LstdFlags))

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Dashboard routes
	dashboard := api.Group("/dashboard")
	dashboard.Get("/stats", dashboardController.GetStats)

	// Patient routes
	patient := api.Group("/patients")
	patient.Post("/", patientController.CreatePatient)
	patient.Get("/", patientController.GetPatients)
	patient.Get("/:id", patientController.GetPatient)
	patient.Put("/:id", patientController.UpdatePatient)
	patient.Delete("/:id", patientController.DeletePatient)
	patient.Post("/import", patientController.ImportPatients)

	// Campaign routes
	campaign := api.Group("/campaigns")
	campaign.Post("/", campaignController.CreateCampaign)
	campaign.Get("/", campaignController.GetCampaigns)
	campaign.Get("/:id", campaignController.GetCampaign)
	campaign.Put("/:id", campaignController.UpdateCampaign)
	campaign.Delete("/:id", campaignController.DeleteCampaign)
	campaign.Post("/:id/targeting", campaignController.AnalyzeTargeting)

	// Batch routes, rate limited because generation is expensive
	campaign.Post("/:id/batches", middleware.GenerationRateLimiter(), batchController.EnqueueBatch)
	campaign.Get("/:id/batches", batchController.GetBatches)
	campaign.Get("/:id/batches/:batchId", batchController.GetBatch)
	campaign.Get("/:id/batches/:batchId/export", batchController.ExportBatch)

	// WebSocket route for live preview updates; registered before the REST
	// group so "/updates" is not captured by the ":id" parameter
	app.Get("/api/v1/previews/updates", websocket.New(func(c *websocket.Conn) {
		previewController.HandlePreviewWS(c)
	}))

	// Preview routes
	preview := api.Group("/previews")
	preview.Post("/", middleware.GenerationRateLimiter(), previewController.CreatePreview)
	preview.Get("/:id", previewController.GetPreview)
	preview.Put("/:id", previewController.UpdatePreview)
	preview.Post("/:id/optimize", previewController.OptimizePreview)

	// Payment routes
	payment := api.Group("/payment")
	payment.Get("/plans", paymentController.GetPlans)
	payment.Post("/create-intent", paymentController.CreateIntent)

	// Webhook is unauthenticated; Stripe signs the payload instead
	app.Post("/payment/webhook", paymentController.HandleWebhook)

	log.Println("API routes initialized successfully")
}

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// Initialize Stripe
	controller.InitStripe()

	previewManager := engine.NewPreviewManager(config.AppConfig.ClinicName)

	// Setup health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	SetupAuthRoutes(app, db)
	SetupAPIRoutes(app, db, previewManager)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
