package routes

import (
	"framecraft/internal/adapters/http/handlers"
	"framecraft/internal/adapters/http/middleware"
	"framecraft/internal/adapters/persistence/repositories"
	"framecraft/internal/config"
	"framecraft/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	measurementRepo := repositories.NewMeasurementRepository(db)

	// Services
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg)
	userService := services.NewUserService(userRepo)
	measurementService := services.NewMeasurementService(measurementRepo)
	dashboardService := services.NewDashboardService(measurementRepo)

	// Handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	measurementHandler := handlers.NewMeasurementHandler(measurementService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	// Health
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	api := app.Group("/api/v1")

	requireAuth := middleware.AuthMiddleware(cfg)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", middleware.AuthRateLimiter(), authHandler.Register)
	auth.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)
	auth.Post("/refresh", middleware.AuthRateLimiter(), authHandler.RefreshToken)
	auth.Post("/logout", authHandler.Logout)
	auth.Post("/logout-all", requireAuth, authHandler.LogoutAll)
	auth.Get("/me", requireAuth, authHandler.Me)
	auth.Put("/profile", requireAuth, userHandler.UpdateProfile)
	auth.Put("/password", requireAuth, userHandler.ChangePassword)

	// User management (admin)
	users := api.Group("/users", requireAuth, middleware.AdminOnly())
	users.Get("/", userHandler.List)

	// Production: measurement lifecycle
	production := api.Group("/production", requireAuth)
	production.Get("/dashboard", dashboardHandler.Summary)

	measurements := production.Group("/measurements")
	measurements.Get("/", measurementHandler.List)
	measurements.Get("/deleted", measurementHandler.ListDeleted)
	measurements.Get("/:id", measurementHandler.Get)
	measurements.Post("/", middleware.MeasurementCaptureOnly(), measurementHandler.Create)
	measurements.Put("/:id", middleware.MeasurementCaptureOnly(), measurementHandler.Update)
	measurements.Post("/:id/approve", middleware.MeasurementApproverOnly(), measurementHandler.Approve)
	measurements.Post("/:id/reject", middleware.MeasurementApproverOnly(), measurementHandler.Reject)
	measurements.Delete("/:id", middleware.MeasurementManagerOnly(), measurementHandler.Delete)
	measurements.Post("/:id/recover", middleware.MeasurementManagerOnly(), measurementHandler.Recover)
}
