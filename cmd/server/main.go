package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	grpcAdapter "github.com/tfrhyde/vaquero-marketplace/internal/adapter/grpc"
	"github.com/tfrhyde/vaquero-marketplace/internal/adapter/http/handler"
	"github.com/tfrhyde/vaquero-marketplace/internal/adapter/http/router"
	"github.com/tfrhyde/vaquero-marketplace/internal/adapter/identity"
	"github.com/tfrhyde/vaquero-marketplace/internal/adapter/mailer"
	natsAdapter "github.com/tfrhyde/vaquero-marketplace/internal/adapter/messaging/nats"
	"github.com/tfrhyde/vaquero-marketplace/internal/adapter/repository/cache"
	mongoRepo "github.com/tfrhyde/vaquero-marketplace/internal/adapter/repository/mongodb"
	"github.com/tfrhyde/vaquero-marketplace/internal/adapter/storage/s3"
	"github.com/tfrhyde/vaquero-marketplace/internal/config"
	"github.com/tfrhyde/vaquero-marketplace/internal/listing/domain"
	"github.com/tfrhyde/vaquero-marketplace/internal/listing/usecase"
	"github.com/tfrhyde/vaquero-marketplace/internal/platform/logger"
	"github.com/tfrhyde/vaquero-marketplace/internal/platform/metrics"
	"github.com/tfrhyde/vaquero-marketplace/internal/platform/scheduler"
	"github.com/tfrhyde/vaquero-marketplace/internal/platform/tracer"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("INFO: .env file not found or error loading: %v. Relying on OS environment variables.\n", err)
	}

	appLogger := logger.NewLogger()
	defer func() { _ = appLogger.Sync() }()

	cfg, err := config.LoadConfig(appLogger)
	if err != nil {
		appLogger.Fatal("Failed to load configuration", zap.Error(err))
	}
	appLogger.Info("Application starting...", zap.String("service_name", cfg.ServiceName))

	tp := tracer.InitTracer(cfg.ServiceName, cfg.OTExporterOTLPEndpoint, appLogger)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			appLogger.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}()

	ctx := context.Background()

	mongoClient, err := mongoRepo.NewMongoDBConnection(ctx, cfg.MongoURI, 10*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		appLogger.Info("Disconnecting from MongoDB...")
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			appLogger.Error("Error disconnecting from MongoDB", zap.Error(err))
		}
	}()
	db := mongoClient.Database(cfg.MongoDatabase)
	appLogger.Info("Connected to MongoDB", zap.String("database", cfg.MongoDatabase))

	listingRepo := mongoRepo.NewListingRepository(db, appLogger)
	bookmarkRepo := mongoRepo.NewBookmarkRepository(db, appLogger)
	userRepo := mongoRepo.NewUserRepository(db, appLogger)
	for name, ensure := range map[string]func(context.Context) error{
		"listings":  listingRepo.EnsureIndexes,
		"bookmarks": bookmarkRepo.EnsureIndexes,
		"users":     userRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			appLogger.Fatal("Failed to create indexes", zap.String("collection", name), zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			appLogger.Error("Error closing Redis client", zap.Error(err))
		}
	}()
	listingCache := cache.NewListingCache(redisClient, cfg.ListingCacheTTL)
	sessionStore := cache.NewSessionStore(redisClient)

	storage, err := s3.NewS3Storage(ctx, s3.Config{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
		PublicURL: cfg.MinioPublicURL,
	}, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	var publisher domain.EventPublisher
	if cfg.NATSURL != "" {
		natsPublisher, err := natsAdapter.NewPublisher(cfg.NATSURL, appLogger, cfg.ServiceName)
		if err != nil {
			appLogger.Fatal("Failed to initialize NATS publisher", zap.Error(err))
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
	} else {
		appLogger.Info("NATS_URL is not set, domain events are disabled.")
	}

	var notifier domain.Notifier
	if cfg.SMTPHost != "" {
		smtpMailer, err := mailer.NewSMTPMailer(mailer.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize SMTP mailer", zap.Error(err))
		}
		notifier = smtpMailer
	}

	identityProvider := identity.NewProvider(identity.Config{
		JWTSecret:  cfg.JWTSecret,
		SessionTTL: cfg.SessionTTL,
		BcryptCost: cfg.BcryptCost,
	}, userRepo, sessionStore, appLogger)

	metricsManager := metrics.NewMetricsManager(cfg.ServiceName)

	deps := usecase.Dependencies{
		Listings:  listingRepo,
		Bookmarks: bookmarkRepo,
		Storage:   storage,
		Identity:  identityProvider,
		Cache:     listingCache,
		Publisher: publisher,
		Notifier:  notifier,
		Metrics:   metricsManager,
		Logger:    appLogger,
	}
	lifecycleUC := usecase.NewLifecycleUsecase(deps, cfg.MaxImageBytes)
	feedUC := usecase.NewFeedUsecase(deps)
	bookmarkUC := usecase.NewBookmarkUsecase(deps)
	accountUC := usecase.NewAccountUsecase(deps)
	guard := usecase.NewSessionGuard(deps)
	reconciler := usecase.NewImageReconciler(deps, cfg.ImageSweepGrace)

	jobs, err := scheduler.New(appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create scheduler", zap.Error(err))
	}
	if err := jobs.Every("orphan-image-sweep", cfg.ImageSweepInterval, func(ctx context.Context) error {
		_, err := reconciler.Sweep(ctx)
		return err
	}); err != nil {
		appLogger.Fatal("Failed to schedule image sweep", zap.Error(err))
	}
	jobs.Start()

	httpHandler := router.NewRouter(router.Dependencies{
		Auth:      handler.NewAuthHandler(accountUC, cfg.CookieSecure, appLogger),
		Listings:  handler.NewListingHandler(lifecycleUC, feedUC, cfg.MaxImageBytes, appLogger),
		Bookmarks: handler.NewBookmarkHandler(bookmarkUC, appLogger),
		Guard:     guard,
		EntryPath: cfg.EntryPagePath,
		Metrics:   metricsManager,
		Logger:    appLogger,
	}, cfg.ServiceName)

	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           httpHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", cfg.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	grpcServer := grpcAdapter.NewHealthServer(cfg.ServiceName, appLogger)
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		appLogger.Fatal("Failed to listen for gRPC", zap.String("port", cfg.GRPCPort), zap.Error(err))
	}
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Error("gRPC server stopped with error", zap.Error(err))
		}
	}()

	metricsServer := metrics.NewMetricsServer(cfg.PrometheusMetricsPort, appLogger, metricsManager.Registry)
	if metricsServer != nil {
		go func() {
			appLogger.Info("Starting Prometheus metrics server", zap.String("port", cfg.PrometheusMetricsPort))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				appLogger.Error("Prometheus metrics server failed", zap.Error(err))
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	appLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	grpcServer.Shutdown(shutdownCtx)
	if err := jobs.Shutdown(); err != nil {
		appLogger.Error("Scheduler shutdown failed", zap.Error(err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Metrics server shutdown failed", zap.Error(err))
		}
	}
	appLogger.Info("Application shutting down...")
}
