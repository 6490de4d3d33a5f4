// Package main is the entry point for the field report review server.
// It provides a REST API for daily operational report submission, the
// reviewer workflow (approve / reject / request clarification), and the
// derived compliance scoring dashboard.
//
// Architecture:
//   - Reports are stored in PostgreSQL with a version column; every review
//     action is a version-guarded read-modify-write
//   - The lifecycle state machine and the scoring math are pure packages,
//     wired to storage through the service layer
//   - Compliance scores are reproducible from the report set and cached
//     (Redis when configured, in-process otherwise)
//   - JWT bearer tokens carry the caller's id, name, and role
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/opsline/fieldreport-server/internal/config"
	"github.com/opsline/fieldreport-server/internal/database"
	"github.com/opsline/fieldreport-server/internal/handlers"
	"github.com/opsline/fieldreport-server/internal/middleware"
	"github.com/opsline/fieldreport-server/internal/models"
	"github.com/opsline/fieldreport-server/internal/scoring"
	"github.com/opsline/fieldreport-server/internal/services"
)

func main() {
	// Initialize structured logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	sugar := logger.Sugar()

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalf("Failed to load config: %v", err)
	}

	sugar.Infow("Starting field report server",
		"port", cfg.Port,
		"env", cfg.Environment,
	)

	// Initialize database connection pool
	db, err := database.NewPool(cfg.DatabaseURL)
	if err != nil {
		sugar.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Optional Redis score cache
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			sugar.Fatalf("Invalid REDIS_URL: %v", err)
		}
		rdb = redis.NewClient(opts)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			sugar.Warnw("Redis unreachable, falling back to in-process score cache", "error", err)
			rdb = nil
		}
	}

	// Initialize services
	scoringCfg := scoring.Config{ExpectedKindsPerDay: cfg.ExpectedKindsPerDay}
	reportSvc := services.NewReportService(db, sugar)
	complianceSvc := services.NewComplianceService(db, rdb, scoringCfg,
		time.Duration(cfg.ScoreCacheTTL)*time.Minute, sugar)
	authSvc := services.NewAuthService(db, cfg.JWTSecret,
		time.Duration(cfg.TokenTTLHours)*time.Hour, sugar)

	// Initialize handlers
	reportHandler := handlers.NewReportHandler(reportSvc, sugar)
	dashboardHandler := handlers.NewDashboardHandler(complianceSvc, sugar)
	authHandler := handlers.NewAuthHandler(authSvc, sugar)
	healthHandler := handlers.NewHealthHandler(db, sugar)

	// Build router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Rate limiting
	r.Use(middleware.RateLimit(cfg.RateLimitRPM))

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", healthHandler.Check)
		r.Get("/health/ready", healthHandler.Ready)

		// Login (public)
		r.Post("/auth/login", authHandler.Login)

		// Everything else requires a valid token
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(cfg.JWTSecret))

			r.Route("/reports", func(r chi.Router) {
				r.Get("/", reportHandler.List)
				r.Get("/{id}", reportHandler.Get)

				// Submitter-only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(models.RoleStoreManager, models.RoleFrontOfficeManager))
					r.Post("/", reportHandler.Submit)
					r.Post("/{id}/clarification/response", reportHandler.Respond)
				})

				// Reviewer-only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(models.RoleBDM))
					r.Post("/{id}/approve", reportHandler.Approve)
					r.Post("/{id}/reject", reportHandler.Reject)
					r.Post("/{id}/clarification", reportHandler.RequestClarification)
				})
			})

			// Scoring endpoints (reviewer-only)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleBDM))
				r.Get("/compliance/{submitterId}", dashboardHandler.Score)
				r.Get("/dashboard/summary", dashboardHandler.Summary)
			})
		})
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sugar.Infof("Server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	sugar.Info("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		sugar.Fatalf("Forced shutdown: %v", err)
	}

	sugar.Info("Server stopped")
}
