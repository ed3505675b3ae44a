package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"passport-portal/internal/adapters/http/middleware"
	"passport-portal/internal/adapters/http/routes"
	"passport-portal/internal/adapters/persistence/models"
	"passport-portal/internal/config"
	"passport-portal/internal/core/services"
	"passport-portal/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	_ "passport-portal/docs" // Swagger docs
)

// @title Passport Renewal API
// @version 1.0
// @description Passport renewal submissions, review and status notifications.

// @contact.name API Support
// @contact.email support@passport.gov.lk

// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase(db)

	if err := config.Migrate(db, models.All()...); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}

	if err := config.NewSeeder(db, cfg).Run(); err != nil {
		log.Printf("⚠️ Warning: Failed to seed data: %v", err)
	}

	if err := os.MkdirAll(cfg.Upload.Dir, 0o750); err != nil {
		log.Fatalf("❌ Failed to create upload dir: %v", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	repos := routes.NewRepositories(db)
	svc := routes.NewServices(repos, cfg, services.NewSMTPMailer(cfg.SMTP), m)

	cronService, err := services.NewCronService(cfg.Cron, repos.RefreshTokens, svc.Renewals, m)
	if err != nil {
		log.Fatalf("❌ Invalid cron schedule: %v", err)
	}
	cronService.Start()
	defer cronService.Stop()

	app := fiber.New(fiber.Config{
		AppName:      "Passport Renewal API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
		// multipart overhead on top of the largest accepted document
		BodyLimit: int(cfg.Upload.MaxSizeBytes) + 1<<20,
	})

	middleware.Setup(app, cfg)

	routes.Setup(app, cfg, svc, routes.Options{
		PingDB:   config.PingFunc(db),
		Gatherer: registry,
	})

	go gracefulShutdown(app)

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
