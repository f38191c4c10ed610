package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"framecraft/internal/adapters/http/middleware"
	"framecraft/internal/adapters/http/routes"
	"framecraft/internal/adapters/persistence/models"
	"framecraft/internal/adapters/persistence/repositories"
	"framecraft/internal/config"
	"framecraft/internal/core/services"

	"github.com/gofiber/fiber/v2"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed dev data
	if cfg.IsDev() {
		if err := config.NewSeeder(db).Run(); err != nil {
			log.Printf("⚠️ Warning: Failed to seed data: %v", err)
		}
	}

	// Start retention purge cron
	purgeService := services.NewPurgeService(
		repositories.NewRefreshTokenRepository(db),
		repositories.NewMeasurementRepository(db),
		cfg.RetentionDays,
	)
	if err := purgeService.Start(); err != nil {
		log.Fatalf("❌ Failed to start purge service: %v", err)
	}
	defer purgeService.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "FrameCraft ERP API",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes
	routes.Setup(app, db, cfg)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
