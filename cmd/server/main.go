package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/siakad/thesis-workflow/internal/application/service"
	"github.com/siakad/thesis-workflow/internal/config"
	httpiface "github.com/siakad/thesis-workflow/internal/interfaces/http"
	"github.com/siakad/thesis-workflow/internal/notification"
	"github.com/siakad/thesis-workflow/internal/repository"
	"github.com/siakad/thesis-workflow/pkg/database"
	"github.com/siakad/thesis-workflow/pkg/utils"
)

func main() {
	// Load .env if present, then configuration
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Thesis Workflow Service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Create necessary directories
	if err := os.MkdirAll(cfg.Export.OutputDir, 0755); err != nil {
		logger.Fatal("Failed to create export directory", zap.Error(err))
	}

	// Initialize repositories
	proposalRepo := repository.NewProposalRepository(db.DB, logger)
	consultationRepo := repository.NewConsultationRepository(db.DB, logger)
	semproRepo := repository.NewSemproRepository(db.DB, logger)
	scheduleRepo := repository.NewScheduleRepository(db.DB, logger)
	evaluationRepo := repository.NewEvaluationRepository(db.DB, logger)
	historyRepo := repository.NewHistoryRepository(db.DB, logger)
	notificationRepo := repository.NewNotificationRepository(db.DB, logger)
	txManager := repository.NewTxManager(db)

	// Initialize notification dispatch
	gateway := notification.NewLogGateway(cfg.Notification.SenderName, logger)
	dispatcher := notification.NewDispatcher(notificationRepo, gateway, cfg.Notification.SendTimeout, logger)

	// Initialize services
	proposalService := service.NewProposalService(
		proposalRepo, historyRepo, notificationRepo, txManager, dispatcher, logger)
	consultationService := service.NewConsultationService(
		consultationRepo, proposalRepo, historyRepo, notificationRepo, txManager, dispatcher, logger)
	semproService := service.NewSemproService(
		semproRepo, proposalRepo, scheduleRepo, evaluationRepo,
		historyRepo, notificationRepo, txManager, dispatcher, logger)
	historyService := service.NewHistoryService(historyRepo)
	exportService := service.NewExportService(
		semproRepo, proposalRepo, scheduleRepo, evaluationRepo, cfg.Export.OutputDir, logger)

	// Set Gin mode based on logger level
	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	server := httpiface.NewServer(
		proposalService,
		consultationService,
		semproService,
		historyService,
		exportService,
		dispatcher,
		logger,
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
