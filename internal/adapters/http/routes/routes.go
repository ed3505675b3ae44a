package routes

import (
	"time"

	"passport-portal/internal/adapters/http/handlers"
	"passport-portal/internal/adapters/http/middleware"
	"passport-portal/internal/adapters/persistence/repositories"
	"passport-portal/internal/config"
	"passport-portal/internal/core/services"
	"passport-portal/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Repositories groups the persistence layer
type Repositories struct {
	Users         repositories.UserRepository
	RefreshTokens repositories.RefreshTokenRepository
	Renewals      repositories.RenewalRepository
}

// NewRepositories builds the gorm-backed repositories
func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:         repositories.NewUserRepository(db),
		RefreshTokens: repositories.NewRefreshTokenRepository(db),
		Renewals:      repositories.NewRenewalRepository(db),
	}
}

// Services groups the business layer
type Services struct {
	Auth          *services.AuthService
	Users         *services.UserService
	Renewals      *services.RenewalService
	Documents     *services.DocumentService
	Notifications *services.NotificationService
	Dashboard     *services.DashboardService
}

// NewServices wires services over the given repositories
func NewServices(repos Repositories, cfg *config.Config, mailer services.Mailer, m *metrics.Metrics) *Services {
	renewals := services.NewRenewalService(repos.Renewals, m)
	return &Services{
		Auth:     services.NewAuthService(repos.Users, repos.RefreshTokens, cfg),
		Users:    services.NewUserService(repos.Users, repos.RefreshTokens),
		Renewals: renewals,
		Documents: services.NewDocumentService(
			renewals,
			repos.Renewals,
			cfg.Upload.Dir,
			cfg.PublicURL,
			cfg.Upload.MaxSizeBytes,
			m,
		),
		Notifications: services.NewNotificationService(mailer, cfg.PublicURL, m),
		Dashboard:     services.NewDashboardService(repos.Renewals),
	}
}

// Options holds the infrastructure hooks routes depend on
type Options struct {
	// PingDB reports database health for /health
	PingDB func() error
	// Gatherer is exposed on /metrics when set
	Gatherer prometheus.Gatherer
}

// Setup configures all routes for the application
func Setup(app *fiber.App, cfg *config.Config, svc *Services, opts Options) {
	healthHandler := handlers.NewHealthHandler(cfg.AppMode, opts.PingDB)
	authHandler := handlers.NewAuthHandler(svc.Auth, cfg)
	userHandler := handlers.NewUserHandler(svc.Users)
	renewalHandler := handlers.NewRenewalHandler(svc.Renewals, svc.Documents)
	notificationHandler := handlers.NewNotificationHandler(svc.Notifications, svc.Renewals)
	dashboardHandler := handlers.NewDashboardHandler(svc.Dashboard)

	// Health check & root routes
	app.Get("/", middleware.PublicCache(5*time.Minute), healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	if opts.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Stored documents
	app.Static("/uploads", cfg.Upload.Dir, fiber.Static{
		MaxAge: int((24 * time.Hour).Seconds()),
	})

	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", middleware.OptionalAuth(cfg), healthHandler.APIInfo)

	setupAuthRoutes(apiV1.Group("/auth"), authHandler, cfg)

	profileRoutes := apiV1.Group("/profile")
	profileRoutes.Use(middleware.AuthMiddleware(cfg))
	setupProfileRoutes(profileRoutes, userHandler)

	userRoutes := apiV1.Group("/users")
	userRoutes.Use(middleware.AuthMiddleware(cfg), middleware.AdminOnly())
	userRoutes.Put("/:id/role", userHandler.SetUserRole)

	renewalRoutes := apiV1.Group("/renewals")
	renewalRoutes.Use(middleware.AuthMiddleware(cfg), middleware.NoStore())
	setupRenewalRoutes(renewalRoutes, renewalHandler)

	dashboardRoutes := apiV1.Group("/dashboard")
	dashboardRoutes.Use(middleware.AuthMiddleware(cfg), middleware.PrivateCache(30*time.Second))
	dashboardRoutes.Get("/admin", middleware.AdminOnly(), dashboardHandler.GetAdminDashboard)
	dashboardRoutes.Get("/me", dashboardHandler.GetApplicantDashboard)

	notificationRoutes := apiV1.Group("/notifications")
	notificationRoutes.Use(middleware.AuthMiddleware(cfg), middleware.AdminOnly())
	notificationRoutes.Post("/renewal-status", middleware.StrictRateLimiter(), notificationHandler.SendRenewalStatus)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupProfileRoutes configures profile routes (Authenticated)
func setupProfileRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.GetProfile)
	router.Put("/", handler.UpdateProfile)
	router.Put("/password", middleware.StrictRateLimiter(), handler.ChangePassword)
}

// setupRenewalRoutes configures renewal routes (Authenticated)
func setupRenewalRoutes(router fiber.Router, handler *handlers.RenewalHandler) {
	// Applicants only
	router.Get("/my", middleware.ApplicantOnly(), handler.Mine)
	router.Post("/", middleware.ApplicantOnly(), handler.Create)

	// Owners and reviewers
	router.Get("/:id", handler.Get)
	router.Get("/:id/history", handler.History)
	router.Post("/:id/documents", handler.UploadDocument)

	// Reviewers only
	router.Get("/", middleware.AdminOnly(), handler.List)
	router.Patch("/:id", middleware.AdminOnly(), handler.Update)
}
