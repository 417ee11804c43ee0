package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"studio-app/config"
	"studio-app/database"
	adminapi "studio-app/internal/api/admin"
	authapi "studio-app/internal/api/auth"
	catalogapi "studio-app/internal/api/catalog"
	galleriesapi "studio-app/internal/api/galleries"
	ordersapi "studio-app/internal/api/orders"
	paymentsapi "studio-app/internal/api/payments"
	photosapi "studio-app/internal/api/photos"
	sessionsapi "studio-app/internal/api/sessions"
	stripewebhooks "studio-app/internal/api/stripewebhook"
	usersapi "studio-app/internal/api/users"
	routes "studio-app/internal/app/http"
	"studio-app/internal/app/http/middleware"
	"studio-app/internal/app/logging"
	"studio-app/internal/infra/cache"
	"studio-app/internal/infra/mailer"
	"studio-app/internal/infra/metrics"
	"studio-app/internal/infra/objectstore"
	"studio-app/internal/infra/pdf"
	"studio-app/internal/infra/store"
	stripeinfra "studio-app/internal/infra/stripe"
	catalogsvc "studio-app/internal/service/catalog"
	gallerysvc "studio-app/internal/service/galleries"
	ordersvc "studio-app/internal/service/orders"
	paymentsvc "studio-app/internal/service/payments"
	photosvc "studio-app/internal/service/photos"
	"studio-app/internal/service/reports"
	sessionsvc "studio-app/internal/service/sessions"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.IsProduction())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DBURL, !cfg.IsProduction())
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	if err := database.Migrate(db, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	var (
		m        *metrics.Metrics
		gatherer prometheus.Gatherer
	)
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(reg)
		gatherer = reg
	}

	mail := mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		From:     cfg.SMTPFrom,
		Password: cfg.SMTPPassword,
		AppURL:   cfg.AppURL,
	}, logger)
	if !mail.Enabled() {
		logger.Warn("SMTP not configured, customer emails are disabled")
	}

	var catalogCache catalogsvc.Cache
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warn("redis unavailable, catalog cache disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			catalogCache = cache.NewJSONCache(rdb, cfg.CatalogCacheTTL, logger)
		}
	}

	// Stores
	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	paymentStore := store.NewPaymentStore(db)
	galleryStore := store.NewGalleryStore(db)
	photoStore := store.NewPhotoStore(db)
	catalogStore := store.NewCatalogStore(db)
	orderStore := store.NewOrderStore(db)
	reportStore := store.NewReportStore(db)

	// Services
	sessionOpts := []sessionsvc.Option{sessionsvc.WithMetrics(m)}
	orderOpts := []ordersvc.Option{ordersvc.WithMetrics(m)}
	galleryOpts := []gallerysvc.Option{
		gallerysvc.WithMetrics(m),
		gallerysvc.WithCards(pdf.NewCardRenderer(cfg.StudioName)),
	}
	if mail.Enabled() {
		sessionOpts = append(sessionOpts, sessionsvc.WithNotifier(mail))
		orderOpts = append(orderOpts, ordersvc.WithNotifier(mail))
		galleryOpts = append(galleryOpts, gallerysvc.WithNotifier(mail))
	}

	sessionService := sessionsvc.NewService(sessionStore, cfg.Deposit(), logger, sessionOpts...)
	orderService := ordersvc.NewService(orderStore, ordersvc.Pricing{
		TaxRate:  cfg.TaxRate(),
		Shipping: cfg.ShippingFlat(),
	}, logger, orderOpts...)
	catalogService := catalogsvc.NewService(catalogStore, catalogCache, logger)
	reportService := reports.NewService(reportStore)

	var provider paymentsvc.Provider
	var webhookHandler *stripewebhooks.Handler
	if cfg.StripeSecretKey != "" {
		client, err := stripeinfra.NewClient(cfg.StripeSecretKey, cfg.StripeCurrency)
		if err != nil {
			logger.Fatal("stripe client", zap.Error(err))
		}
		provider = client
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set, online payments are disabled")
	}
	paymentService := paymentsvc.NewService(paymentStore, provider, logger, paymentsvc.WithMetrics(m))
	if cfg.StripeWebhookSecret != "" {
		verifier, err := stripeinfra.NewVerifier(cfg.StripeWebhookSecret)
		if err != nil {
			logger.Fatal("stripe webhook verifier", zap.Error(err))
		}
		webhookHandler = stripewebhooks.NewHandler(verifier, paymentService, logger)
	} else {
		logger.Warn("STRIPE_WEBHOOK_SECRET not set, webhook endpoint is disabled")
	}

	var (
		galleryService *gallerysvc.Service
		galleryHandler *galleriesapi.Handler
		photoHandler   *photosapi.Handler
	)
	if cfg.GCSBucket != "" {
		gcs, err := objectstore.NewGCS(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile, cfg.MediaCDNDomain)
		if err != nil {
			logger.Fatal("object storage", zap.Error(err))
		}
		defer gcs.Close()
		galleryService = gallerysvc.NewService(galleryStore, gcs, cfg.AppURL, logger, galleryOpts...)
		galleryHandler = galleriesapi.NewHandler(galleryService, logger)
		photoHandler = photosapi.NewHandler(photosvc.NewService(photoStore, gcs, logger, photosvc.WithMetrics(m)), logger)
	} else {
		logger.Warn("GCS_BUCKET not set, photo uploads and galleries are disabled")
	}

	// Handlers
	tokens, err := authapi.NewTokens(cfg.JWTSecret)
	if err != nil {
		logger.Fatal("jwt", zap.Error(err))
	}
	var authOpts []authapi.Option
	if cfg.GoogleEnabled() {
		authOpts = append(authOpts, authapi.WithGoogle(authapi.NewGoogleAuth(authapi.GoogleConfig{
			ClientID:         cfg.GoogleClientID,
			ClientSecret:     cfg.GoogleClientSecret,
			RedirectURL:      cfg.GoogleRedirectURL,
			FrontendRedirect: cfg.GoogleFrontendRedirect,
			SecureCookies:    cfg.IsProduction(),
		})))
	}

	r := gin.New()
	r.Use(
		middleware.RequestLogger(logger),
		gin.Recovery(),
		middleware.Metrics(m),
	)
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Deps{
		Auth:      authapi.NewHandler(userStore, tokens, cfg.AdminEmail, logger, authOpts...),
		Users:     usersapi.NewHandler(userStore, logger),
		Sessions:  sessionsapi.NewHandler(sessionService, logger),
		Payments:  paymentsapi.NewHandler(paymentService, logger),
		Webhook:   webhookHandler,
		Galleries: galleryHandler,
		Photos:    photoHandler,
		Catalog:   catalogapi.NewHandler(catalogService, logger),
		Orders:    ordersapi.NewHandler(orderService, logger),
		Admin:     adminapi.NewHandler(reportService, sessionService, galleryService, logger),

		JWTSecret:         cfg.JWTSecret,
		GalleryRatePerMin: cfg.GalleryRatePerMinute,
		GalleryRateBurst:  cfg.GalleryRateBurst,
		MetricsGatherer:   gatherer,
		Log:               logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
