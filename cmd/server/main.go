package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/roamstay/service-booking/internal/adapter"
	"github.com/roamstay/service-booking/internal/application"
	"github.com/roamstay/service-booking/internal/config"
	"github.com/roamstay/service-booking/internal/events"
	"github.com/roamstay/service-booking/internal/handler"
	"github.com/roamstay/service-booking/internal/hold"
	"github.com/roamstay/service-booking/internal/ledger"
	"github.com/roamstay/service-booking/internal/notify"
	"github.com/roamstay/service-booking/internal/orchestrator"
	"github.com/roamstay/service-booking/internal/payment"
	"github.com/roamstay/service-booking/internal/pkg/auth"
	"github.com/roamstay/service-booking/internal/pkg/database"
	"github.com/roamstay/service-booking/internal/pkg/health"
	"github.com/roamstay/service-booking/internal/pkg/kafka"
	"github.com/roamstay/service-booking/internal/pkg/logger"
	"github.com/roamstay/service-booking/internal/pkg/middleware"
	"github.com/roamstay/service-booking/internal/reconcile"
	"github.com/roamstay/service-booking/internal/repository"
)

const (
	sessionTTL      = 24 * time.Hour
	defaultHoldTTL  = 30 * time.Minute
	defaultPrice    = 25000
	defaultCurrency = "EUR"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewNamed(cfg.AppEnv, "service-booking")
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting service-booking",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&repository.BookingModel{},
		&repository.RefundModel{},
		&repository.AuditModel{},
		&repository.IntentModel{},
		&repository.PromoModel{},
		&repository.PromoUsageModel{},
		&repository.RatePlanModel{},
	); err != nil {
		zapLogger.Fatal("failed to auto-migrate", zap.Error(err))
	}

	// Connect to Redis for holds and sessions
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisConfig.Addr,
		Password: cfg.RedisConfig.Password,
		DB:       cfg.RedisConfig.DB,
	})
	defer redisClient.Close()

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, cfg.JWTConfig.AccessTTL)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, zapLogger)
	defer kafkaProducer.Close()
	publisher := events.NewPublisher(kafkaProducer, zapLogger)

	// Initialize adapters. The Stripe adapter is used when credentials are
	// configured; the mock keeps local development self-contained.
	var processor adapter.ProcessorAdapter
	if cfg.StripeConfig.SecretKey != "" {
		processor = adapter.NewStripeProcessorAdapter(cfg.StripeConfig.SecretKey, zapLogger)
	} else {
		zapLogger.Warn("no stripe secret key configured, using mock payment processor")
		processor = adapter.NewMockProcessorAdapter(zapLogger)
	}
	supplier := adapter.NewMockSupplierAdapter(defaultPrice, defaultCurrency, defaultHoldTTL, zapLogger)

	// Initialize repositories and the ledger
	bookingRepo := repository.NewBookingRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	intentRepo := repository.NewIntentRepository(db)
	bookingLedger := ledger.New(bookingRepo, refundRepo, auditRepo, intentRepo, zapLogger)

	// Initialize the booking pipeline
	holdManager := hold.NewManager(supplier, hold.NewRedisStore(redisClient), cfg.HoldExpiryGrace, zapLogger)
	paymentCoordinator := payment.NewCoordinator(processor, bookingLedger, zapLogger)
	confirmer := orchestrator.NewConfirmer(supplier, bookingLedger, zapLogger)
	sessionStore := orchestrator.NewRedisSessionStore(redisClient, sessionTTL)

	dispatcher := notify.NewDispatcher(publisher, cfg.NotifyQueueSize, cfg.NotifyWorkers, zapLogger)

	orch := orchestrator.New(holdManager, paymentCoordinator, bookingLedger, confirmer, sessionStore, publisher, dispatcher, zapLogger)
	refundCoordinator := orchestrator.NewRefundCoordinator(paymentCoordinator, bookingLedger, publisher, dispatcher, zapLogger)

	// Initialize application services
	promoRepo := repository.NewGormPromoRepository(db)
	promoService := application.NewPromoService(promoRepo, zapLogger)
	bookingService := application.NewBookingService(orch, refundCoordinator, promoService, supplier, bookingLedger, zapLogger)
	ratePlanRepo := repository.NewGormRatePlanRepository(db)
	ratePlanService := application.NewRatePlanService(ratePlanRepo, bookingLedger, zapLogger)

	// Background workers
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	dispatcher.Start(workerCtx)

	consumerGroupID := cfg.KafkaConfig.GroupPrefix + "booking-service"
	paymentConsumer := events.NewPaymentEventConsumer(cfg.KafkaConfig.Brokers, consumerGroupID, orch, zapLogger)
	defer paymentConsumer.Close()

	go func() {
		zapLogger.Info("starting payment event consumer")
		if err := paymentConsumer.Start(workerCtx); err != nil {
			if workerCtx.Err() == nil {
				zapLogger.Error("payment event consumer failed", zap.Error(err))
			}
		}
	}()

	sweeper := reconcile.NewSweeper(paymentCoordinator, bookingLedger, cfg.Reconcile.Interval, cfg.Reconcile.MinAge, zapLogger)
	go sweeper.Run(workerCtx)

	// Initialize HTTP handlers
	bookingHandler := handler.NewBookingHandler(bookingService)
	promoHandler := handler.NewPromoHandler(promoService)
	ratePlanHandler := handler.NewRatePlanHandler(ratePlanService)
	adminHandler := handler.NewAdminHandler(bookingService, promoService)
	webhookHandler := handler.NewWebhookHandler(orch, cfg.StripeConfig.WebhookSecret, zapLogger)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.LoggerMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-booking")
	healthHandler.RegisterRoutes(router)

	// Register API routes
	apiV1 := router.Group("/api/v1")
	bookingHandler.RegisterRoutes(apiV1, jwtManager)
	promoHandler.RegisterRoutes(apiV1, jwtManager)
	ratePlanHandler.RegisterRoutes(apiV1, jwtManager)
	adminHandler.RegisterRoutes(apiV1, jwtManager)
	webhookHandler.RegisterRoutes(apiV1)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down service-booking...")

	// Stop background workers
	workerCancel()
	dispatcher.Stop()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("service-booking stopped")
}
