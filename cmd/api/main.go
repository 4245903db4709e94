package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "caretrack/docs" // This is for Swagger
	"caretrack/internal/audit"
	"caretrack/internal/config"
	"caretrack/internal/database"
	"caretrack/internal/handlers"
	"caretrack/internal/logger"
	"caretrack/internal/middleware"
	"caretrack/internal/repository"
	"caretrack/internal/scheduler"
	"caretrack/internal/securenotes"
	"caretrack/internal/service"
	"caretrack/internal/vault"

	httpSwagger "github.com/swaggo/http-swagger"
)

// @title CareTrack Competency API
// @version 1.0
// @description Workforce competency and task progress tracking for care organizations

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logger
	logger.Setup(logger.Config{
		Level: cfg.Log.Level,
	})

	slog.Info("Starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"env", cfg.App.Env,
		"log_level", cfg.Log.Level,
	)

	// Initialize database
	db, err := database.New(&cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func(db *database.Database) {
		if err := db.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}(db)

	slog.Info("Database connection established")

	// Run database migrations
	migrator := database.NewMigrationExecutor(db.DB)
	if err := migrator.RunMigrations("./migrations"); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations completed")

	// Initialize repositories
	workerRepo := repository.NewWorkerRepository(db.DB)
	taskRepo := repository.NewTaskRepository(db.DB)
	packageRepo := repository.NewPackageRepository(db.DB)
	linkRepo := repository.NewLinkRepository(db.DB)
	progressRepo := repository.NewProgressRepository(db.DB)
	competencyRepo := repository.NewCompetencyRepository(db.DB)
	confirmationRepo := repository.NewConfirmationRepository(db.DB)
	auditRepo := repository.NewAuditRepository(db.DB)

	// Initialize notes encryption (if Vault is enabled)
	var vaultClient *vault.Client
	if cfg.Vault.Enabled {
		slog.Info("Vault is enabled - initializing notes encryption")
		vaultClient, err = vault.NewClient(&vault.Config{
			Address:      cfg.Vault.Address,
			Token:        cfg.Vault.Token,
			TransitMount: cfg.Vault.TransitMount,
		})
		if err != nil {
			slog.Error("Failed to initialize Vault client", "error", err)
			os.Exit(1)
		}
		slog.Info("Vault client initialized", "vault_addr", cfg.Vault.Address)
	} else {
		slog.Warn("Vault is disabled - rating notes will be stored in plaintext")
	}
	notesService, err := securenotes.NewService(vaultClient, cfg.Vault.KeyName)
	if err != nil {
		slog.Error("Failed to initialize notes encryption", "error", err)
		os.Exit(1)
	}

	// Initialize services
	recorder := audit.NewSQLRecorder(auditRepo)
	inheritanceService := service.NewInheritanceService(progressRepo, linkRepo)
	progressService := service.NewProgressService(db.DB, progressRepo, linkRepo, workerRepo, taskRepo, packageRepo, recorder)
	assignmentService := service.NewAssignmentService(db.DB, linkRepo, workerRepo, taskRepo, packageRepo, inheritanceService, recorder)
	competencyService := service.NewCompetencyService(db.DB, competencyRepo, confirmationRepo, progressRepo, workerRepo, taskRepo, notesService, recorder, cfg.Confirmation.ExpiryWindow)
	assessmentService := service.NewAssessmentService(competencyService)

	// Initialize middleware
	authMw := middleware.NewAuthMiddleware(&cfg.JWT)
	corsMw := middleware.NewCORSMiddleware(&cfg.CORS)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit)

	// Initialize handlers
	masterHandler := handlers.NewMasterDataHandler(workerRepo, taskRepo, packageRepo)
	assignmentHandler := handlers.NewAssignmentHandler(assignmentService)
	progressHandler := handlers.NewProgressHandler(progressService)
	competencyHandler := handlers.NewCompetencyHandler(competencyService, assessmentService)
	auditHandler := handlers.NewAuditHandler(auditRepo)
	healthHandler := handlers.NewHealthHandler(db, notesService, &cfg.App)

	// Start retention scheduler
	retention := scheduler.NewScheduler(confirmationRepo, auditRepo, &cfg.Retention)
	retention.Start()
	defer retention.Stop()

	mux := http.NewServeMux()

	admin := authMw.RequireRole(handlers.RoleAdmin)
	staff := authMw.RequireAnyRole(handlers.RoleAdmin, handlers.RoleCoordinator)
	assessors := authMw.RequireAnyRole(handlers.RoleAdmin, handlers.RoleAssessor)

	// Master data endpoints
	mux.Handle("POST /api/v1/workers", authMw.Authenticate(admin(http.HandlerFunc(masterHandler.CreateWorker))))
	mux.Handle("GET /api/v1/workers", authMw.Authenticate(http.HandlerFunc(masterHandler.ListWorkers)))
	mux.Handle("GET /api/v1/workers/{workerID}", authMw.Authenticate(http.HandlerFunc(masterHandler.GetWorker)))
	mux.Handle("PATCH /api/v1/workers/{workerID}/active", authMw.Authenticate(admin(http.HandlerFunc(masterHandler.SetWorkerActive))))
	mux.Handle("POST /api/v1/tasks", authMw.Authenticate(admin(http.HandlerFunc(masterHandler.CreateTask))))
	mux.Handle("GET /api/v1/tasks", authMw.Authenticate(http.HandlerFunc(masterHandler.ListTasks)))
	mux.Handle("POST /api/v1/packages", authMw.Authenticate(admin(http.HandlerFunc(masterHandler.CreatePackage))))
	mux.Handle("GET /api/v1/packages", authMw.Authenticate(http.HandlerFunc(masterHandler.ListPackages)))

	// Assignment endpoints
	mux.Handle("POST /api/v1/packages/{packageID}/workers/{workerID}", authMw.Authenticate(staff(http.HandlerFunc(assignmentHandler.LinkWorker))))
	mux.Handle("DELETE /api/v1/packages/{packageID}/workers/{workerID}", authMw.Authenticate(staff(http.HandlerFunc(assignmentHandler.UnlinkWorker))))
	mux.Handle("POST /api/v1/packages/{packageID}/tasks/{taskID}", authMw.Authenticate(staff(http.HandlerFunc(assignmentHandler.LinkTask))))
	mux.Handle("DELETE /api/v1/packages/{packageID}/tasks/{taskID}", authMw.Authenticate(staff(http.HandlerFunc(assignmentHandler.UnlinkTask))))

	// Progress endpoints
	mux.Handle("PUT /api/v1/workers/{workerID}/packages/{packageID}/tasks/{taskID}/progress", authMw.Authenticate(staff(http.HandlerFunc(progressHandler.UpdateProgress))))
	mux.Handle("DELETE /api/v1/workers/{workerID}/packages/{packageID}/tasks/{taskID}/progress", authMw.Authenticate(staff(http.HandlerFunc(progressHandler.ResetProgress))))
	mux.Handle("GET /api/v1/workers/{workerID}/progress", authMw.Authenticate(http.HandlerFunc(progressHandler.ListWorkerProgress)))
	mux.Handle("GET /api/v1/packages/{packageID}/progress", authMw.Authenticate(http.HandlerFunc(progressHandler.ListPackageProgress)))

	// Competency endpoints
	mux.Handle("PUT /api/v1/workers/{workerID}/tasks/{taskID}/competency", authMw.Authenticate(admin(http.HandlerFunc(competencyHandler.SetRating))))
	mux.Handle("GET /api/v1/workers/{workerID}/tasks/{taskID}/competency", authMw.Authenticate(http.HandlerFunc(competencyHandler.GetRating)))
	mux.Handle("GET /api/v1/workers/{workerID}/competencies", authMw.Authenticate(http.HandlerFunc(competencyHandler.ListWorkerRatings)))
	mux.Handle("POST /api/v1/assessments", authMw.Authenticate(assessors(http.HandlerFunc(competencyHandler.SubmitAssessment))))

	// Confirmation endpoints
	mux.Handle("GET /api/v1/confirmations", authMw.Authenticate(http.HandlerFunc(competencyHandler.ListConfirmations)))
	mux.Handle("GET /api/v1/confirmations/{id}", authMw.Authenticate(http.HandlerFunc(competencyHandler.GetConfirmation)))
	mux.Handle("POST /api/v1/confirmations/{id}/resolve", authMw.Authenticate(http.HandlerFunc(competencyHandler.ResolveConfirmation)))

	// Admin endpoints
	mux.Handle("GET /api/v1/admin/audit-logs", authMw.Authenticate(admin(http.HandlerFunc(auditHandler.ListAuditLogs))))

	// Health check endpoint
	mux.HandleFunc("/health", healthHandler.Health)

	// Swagger documentation
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Apply global middleware
	handler := middleware.LoggingMiddleware(
		middleware.SecurityHeaders(
			corsMw.Handler(
				rateLimiter.Limit(mux),
			),
		),
	)

	// Create server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.TimeoutRead,
		WriteTimeout: cfg.Server.TimeoutWrite,
		IdleTimeout:  cfg.Server.TimeoutIdle,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped")
}
