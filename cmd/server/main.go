package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tourhub/service-booking/internal/application"
	"github.com/tourhub/service-booking/internal/config"
	bookingEvents "github.com/tourhub/service-booking/internal/events"
	"github.com/tourhub/service-booking/internal/handler"
	"github.com/tourhub/service-booking/internal/platform/auth"
	"github.com/tourhub/service-booking/internal/platform/database"
	"github.com/tourhub/service-booking/internal/platform/health"
	"github.com/tourhub/service-booking/internal/platform/kafka"
	"github.com/tourhub/service-booking/internal/platform/logger"
	"github.com/tourhub/service-booking/internal/platform/middleware"
	"github.com/tourhub/service-booking/internal/repository"
	"github.com/tourhub/service-booking/migrations"
)

const serviceName = "service-booking"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.String("env", cfg.AppEnv),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(repository.Models()...); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(cfg.DBConfig.DatabaseURL(), migrations.FS, log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, cfg.JWTConfig.AccessTTL, cfg.JWTConfig.RefreshTTL)

	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	tourRepo := repository.NewGormTourRepository(db)
	categoryRepo := repository.NewGormCategoryRepository(db)
	accountRepo := repository.NewGormAccountRepository(db)
	ledgerRepo := repository.NewGormLedgerRepository(db)
	uow := repository.NewGormUnitOfWork(db, cfg.AdmissionConfig.LockTimeout, log)

	// Initialize application services
	retry := application.RetryPolicyFromConfig(cfg.AdmissionConfig)
	admissionService := application.NewAdmissionService(
		bookingRepo,
		tourRepo,
		ledgerRepo,
		uow,
		kafkaProducer,
		log,
		application.WithRetryPolicy(retry),
	)
	tourService := application.NewTourService(tourRepo, categoryRepo, ledgerRepo, uow, retry, log)
	categoryService := application.NewCategoryService(categoryRepo, log)
	accountService := application.NewAccountService(accountRepo, jwtManager, kafkaProducer, log)

	if cfg.StaffConfig.Email != "" {
		if err := accountService.EnsureStaffAccount(context.Background(), cfg.StaffConfig.Email, cfg.StaffConfig.Password); err != nil {
			log.Fatal("failed to create staff account", zap.Error(err))
		}
	}

	// Start account event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.KafkaConfig.GroupPrefix + "booking-service"
	accountConsumer := bookingEvents.NewAccountEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		admissionService,
		log,
	)
	defer func() { _ = accountConsumer.Close() }()

	go func() {
		log.Info("starting account event consumer")
		if err := accountConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("account event consumer error", zap.Error(err))
		}
	}()

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	health.NewHandler(db, serviceName).RegisterRoutes(router)

	handler.NewAuthHandler(accountService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewCategoryHandler(categoryService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewTourHandler(tourService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewBookingHandler(admissionService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewAdminHandler(admissionService, accountService).RegisterRoutes(&router.RouterGroup, jwtManager)

	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down " + serviceName + "...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info(serviceName + " stopped")
}
