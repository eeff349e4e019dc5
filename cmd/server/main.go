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
	"github.com/hotelhub/service-booking/internal/application"
	"github.com/hotelhub/service-booking/internal/clock"
	"github.com/hotelhub/service-booking/internal/config"
	bookingDomain "github.com/hotelhub/service-booking/internal/domain/booking"
	bookingEvents "github.com/hotelhub/service-booking/internal/events"
	"github.com/hotelhub/service-booking/internal/handler"
	"github.com/hotelhub/service-booking/internal/lock"
	"github.com/hotelhub/service-booking/internal/metrics"
	"github.com/hotelhub/service-booking/internal/repository"
	"github.com/hotelhub/service-booking/pkg/auth"
	"github.com/hotelhub/service-booking/pkg/database"
	"github.com/hotelhub/service-booking/pkg/health"
	"github.com/hotelhub/service-booking/pkg/kafka"
	"github.com/hotelhub/service-booking/pkg/logger"
	"github.com/hotelhub/service-booking/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
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

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
		zap.String("timezone", cfg.Lifecycle.Location.String()),
		zap.Duration("checkout_cutoff", cfg.Lifecycle.CheckoutCutoff),
	)

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// The overlap exclusion constraint only exists in the SQL migrations, so they run in every env.
	if err := database.RunMigrations(dbConfig.DatabaseURL(), cfg.MigrationsPath, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Connect to Redis (optional)
	var redisClient *redis.Client
	if cfg.RedisConfig.Address != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Address,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
			PoolSize: cfg.RedisConfig.PoolSize,
		})
		defer func() { _ = redisClient.Close() }()

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Warn("redis unreachable at startup", zap.String("addr", cfg.RedisConfig.Address), zap.Error(err))
		}
		pingCancel()
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		cfg.JWTConfig.AccessTokenTTL,
		cfg.JWTConfig.RefreshTokenTTL,
	)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize metrics
	m := metrics.New(prometheus.DefaultRegisterer)

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	roomRepo := repository.NewGormRoomRepository(db)
	historyRepo := repository.NewGormHistoryRepository(db)

	// Initialize lifecycle
	policy, err := bookingDomain.NewCheckoutPolicy(cfg.Lifecycle.Location, cfg.Lifecycle.CheckoutCutoff)
	if err != nil {
		log.Fatal("invalid checkout policy", zap.Error(err))
	}
	lifecycle := bookingDomain.NewLifecycle(policy, cfg.Lifecycle.AdminReasonMinLength)
	clk := clock.System{}

	// Initialize application services
	availabilityService := application.NewAvailabilityService(bookingRepo, policy, clk)
	bookingService := application.NewBookingService(
		bookingRepo,
		roomRepo,
		availabilityService,
		lifecycle,
		bookingDomain.NewStandardPricingStrategy(),
		clk,
		kafkaProducer,
		m,
		application.BookingServiceConfig{
			ReconcileOnRead: cfg.Lifecycle.ReconcileOnRead,
			ExportMaxRows:   cfg.ExportMaxRows,
		},
		log,
	)
	roomService := application.NewRoomService(roomRepo, availabilityService, log)
	historyService := application.NewHistoryService(bookingRepo, historyRepo)

	// Initialize lifecycle sweeper
	var locker application.Locker
	if redisClient != nil {
		locker = lock.NewRedisLocker(redisClient)
	}
	sweeper := application.NewSweeper(bookingService, cfg.Lifecycle.SweeperBatchSize, log.Named("sweeper"))
	sweepRunner := application.NewSweepRunner(
		application.SweepRunnerConfig{Interval: cfg.Lifecycle.SweeperInterval},
		sweeper,
		clk,
		locker,
		m,
		log.Named("sweeper"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Lifecycle.SweeperEnabled {
		go sweepRunner.Start(ctx)
	} else {
		log.Info("lifecycle sweeper disabled; due transitions run only on demand")
	}

	// Initialize and start payment event consumer in a goroutine
	groupID := cfg.KafkaConfig.GroupPrefix + "booking-service"
	paymentConsumer := bookingEvents.NewPaymentEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		bookingService,
		log,
	)
	defer func() { _ = paymentConsumer.Close() }()

	go func() {
		log.Info("starting payment event consumer")
		if err := paymentConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("payment event consumer error", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	bookingHandler := handler.NewBookingHandler(bookingService, historyService)
	adminBookingHandler := handler.NewAdminBookingHandler(bookingService, sweepRunner)
	roomHandler := handler.NewRoomHandler(roomService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health and metrics routes
	healthHandler := health.NewHandler(db, redisClient, serviceName)
	healthHandler.RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Register API routes
	api := router.Group("")
	api.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	bookingHandler.RegisterRoutes(api, jwtManager)
	adminBookingHandler.RegisterRoutes(api, jwtManager)
	roomHandler.RegisterRoutes(api, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
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

	log.Info("shutting down service-booking...")

	// Stop background workers
	sweepRunner.Stop()
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-booking stopped")
}
