package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"

	"glowreach/config"
	"glowreach/middleware"
	"glowreach/routes"
	"glowreach/utils"
	"glowreach/worker"
)

func main() {
	// Initialize logger
	logger := log.New(os.Stdout, "GLOWREACH: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Error reporting is optional; skip when no DSN is configured
	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Printf("Failed to initialize error reporting: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			utils.LogError("unhandled_error", err, map[string]interface{}{
				"path":   c.Path(),
				"method": c.Method(),
			})
			return utils.ErrorResponse(c, code, err.Error(), nil)
		},
	})

	// Add CORS middleware
	app.Use(middleware.CORS())

	// Initialize and start batch worker
	batchWorker := worker.NewBatchWorker(config.DB, log.New(os.Stdout, "BATCH: ", log.LstdFlags))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go batchWorker.Start(ctx)

	// Setup routes
	routes.SetupRoutes(app, config.DB)

	// Shut down cleanly on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Println("Shutting down...")
		cancel()
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	// Start server
	logger.Printf("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
