package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/menohub/backend/internal/application/checkout"
	"github.com/menohub/backend/internal/application/fulfillment"
	"github.com/menohub/backend/internal/application/reconcile"
	"github.com/menohub/backend/internal/domain/commerce"
	"github.com/menohub/backend/internal/infrastructure/config"
	"github.com/menohub/backend/internal/infrastructure/logger"
	"github.com/menohub/backend/internal/infrastructure/notification"
	"github.com/menohub/backend/internal/infrastructure/payment"
	"github.com/menohub/backend/internal/infrastructure/persistence"
	"github.com/menohub/backend/internal/infrastructure/storage"
	"github.com/menohub/backend/internal/infrastructure/telemetry"
	"github.com/menohub/backend/internal/interfaces/http/handler"
	"github.com/menohub/backend/internal/interfaces/http/middleware"
	"github.com/menohub/backend/internal/interfaces/http/router"
)

const maxRequestBodyBytes = 1 << 20

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting menohub backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("payment_mode", cfg.Payment.Mode),
	)

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	resourceRepo := persistence.NewGormResourceRepository(db.DB)

	// Payment gateway
	gateway, err := payment.NewYooKassaAdapter(&payment.YooKassaConfig{
		ShopID:              cfg.Payment.ShopID,
		SecretKey:           cfg.Payment.SecretKey,
		APIBaseURL:          cfg.Payment.APIBaseURL,
		Mode:                commerce.PaymentMode(cfg.Payment.Mode),
		TestFallbackEnabled: cfg.Payment.TestFallbackEnabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize payment gateway", zap.Error(err))
	}

	// File storage for downloadable resources
	var files storage.FileStorage
	if cfg.Storage.Stub {
		files = storage.NewStubFileStorage()
		log.Warn("Using stub file storage; downloads will serve placeholder URLs")
	} else {
		files, err = storage.NewS3FileStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize file storage", zap.Error(err))
		}
	}

	// Confirmation messages are logged until a mail transport is wired in
	sender := notification.NewStubSender(log)

	// Application services
	checkoutService := checkout.NewCheckoutService(checkout.CheckoutServiceConfig{
		OrderRepo: orderRepo,
		Gateway:   gateway,
		SiteURL:   cfg.App.SiteURL,
		Logger:    log,
	})
	purchaseService := checkout.NewPurchaseService(checkout.PurchaseServiceConfig{
		OrderRepo:    orderRepo,
		ResourceRepo: resourceRepo,
		Gateway:      gateway,
		SiteURL:      cfg.App.SiteURL,
		Logger:       log,
	})
	webhookService := reconcile.NewWebhookService(reconcile.WebhookServiceConfig{
		OrderRepo: orderRepo,
		Issuer:    reconcile.NewTokenIssuer(cfg.Fulfillment.TokenTTL, cfg.Fulfillment.MaxDownloads),
		Sender:    sender,
		SiteURL:   cfg.App.SiteURL,
		Logger:    log,
	})
	downloadService := fulfillment.NewDownloadService(fulfillment.DownloadServiceConfig{
		OrderRepo:    orderRepo,
		ResourceRepo: resourceRepo,
		Files:        files,
		Logger:       log,
	})

	// HTTP handlers
	checkoutHandler := handler.NewCheckoutHandler(checkoutService, purchaseService)
	webhookHandler := handler.NewWebhookHandler(webhookService)
	downloadHandler := handler.NewDownloadHandler(downloadService)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(maxRequestBodyBytes))
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.SpanErrorMarker())
	}
	if cfg.Session.JWTSecret != "" {
		engine.Use(middleware.OptionalSession(cfg.Session.JWTSecret, log))
	}

	routes := &router.CommerceRoutes{
		Checkout:    checkoutHandler,
		Webhook:     webhookHandler,
		Download:    downloadHandler,
		RateLimiter: middleware.NewRateLimiter(60, time.Minute),
	}
	router.NewRouter(engine, router.WithAPIVersion("v1")).Register(routes).Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}
