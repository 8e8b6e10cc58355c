package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/cosmos-learn-api/api/swagger"
	"github.com/noah-isme/cosmos-learn-api/internal/handler"
	"github.com/noah-isme/cosmos-learn-api/internal/middleware"
	"github.com/noah-isme/cosmos-learn-api/internal/repository"
	"github.com/noah-isme/cosmos-learn-api/internal/service"
	"github.com/noah-isme/cosmos-learn-api/pkg/cache"
	"github.com/noah-isme/cosmos-learn-api/pkg/config"
	"github.com/noah-isme/cosmos-learn-api/pkg/database"
	"github.com/noah-isme/cosmos-learn-api/pkg/events"
	"github.com/noah-isme/cosmos-learn-api/pkg/jobs"
	"github.com/noah-isme/cosmos-learn-api/pkg/kvstore"
	"github.com/noah-isme/cosmos-learn-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/cosmos-learn-api/pkg/middleware/cors"
	"github.com/noah-isme/cosmos-learn-api/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/noah-isme/cosmos-learn-api/pkg/middleware/requestid"
	"github.com/noah-isme/cosmos-learn-api/pkg/storage"
)

// @title Cosmos Learn API
// @version 1.0.0
// @description Course marketplace: catalog, enrollment, checkout, progress and certificates
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

type backend struct {
	store   kvstore.Store
	pinger  handler.Pinger
	redis   redis.UniversalClient
	closers []io.Closer
}

func (b *backend) close(logr *zap.Logger) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil {
			logr.Warn("failed to close resource", zap.Error(err))
		}
	}
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory, "":
		return &backend{store: kvstore.NewMemoryStore()}, nil
	case config.StoreDriverRedis:
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		store := kvstore.NewRedisStore(client)
		return &backend{store: store, pinger: store, redis: client, closers: []io.Closer{store}}, nil
	case config.StoreDriverPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		store := kvstore.NewPostgresStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure store schema: %w", err)
		}
		return &backend{store: store, pinger: store, closers: []io.Closer{db}}, nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Store.Driver)
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.close(logr)

	metrics := service.NewMetricsService()
	store := kvstore.NewInstrumented(kvstore.NewNamespaced(be.store, cfg.Store.Namespace), metrics.ObserveStore)

	seeds, err := repository.BuildSeedUsers(repository.DefaultSeedAccounts, cfg.JWT.BcryptCost)
	if err != nil {
		return fmt.Errorf("build seed accounts: %w", err)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.Enabled {
		amqpPublisher, err := events.DialAMQP(cfg.Events.AMQPURL, cfg.Events.Exchange, logr)
		if err != nil {
			return err
		}
		be.closers = append(be.closers, amqpPublisher)
		publisher = amqpPublisher
	}

	users := repository.NewUserRepository(store, seeds)
	sessions := repository.NewSessionRepository(store)
	courses := repository.NewCourseRepository(store, repository.DefaultCourses)
	coupons := repository.NewCouponRepository(store)
	validate := validator.New()

	authSvc := service.NewAuthService(users, sessions, publisher, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		SessionTTL:        cfg.JWT.SessionTTL,
		Issuer:            cfg.JWT.Issuer,
		BcryptCost:        cfg.JWT.BcryptCost,
	})
	catalogSvc := service.NewCatalogService(courses, users, publisher, validate, logr)
	if cfg.Cache.Enabled {
		client := be.redis
		if client == nil {
			redisClient, err := cache.NewRedis(ctx, cfg.Redis)
			if err != nil {
				return err
			}
			be.closers = append(be.closers, redisClient)
			client = redisClient
		}
		cacheRepo := repository.NewSearchCacheRepository(client, cfg.Store.Namespace+"cache:")
		catalogSvc.WithCache(service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, true), cfg.Cache.TTL)
	}

	enrollmentSvc := service.NewEnrollmentService(users, courses, publisher, metrics, logr)
	couponSvc := service.NewCouponService(courses, coupons, validate, logr)
	checkoutSvc := service.NewCheckoutService(courses, users, couponSvc, enrollmentSvc,
		service.NewSimulatedPaymentProvider(cfg.Checkout.PaymentDelay), publisher, metrics, validate, logr,
		service.CheckoutConfig{
			TaxRate:            cfg.Checkout.TaxRate,
			PaymentTimeout:     cfg.Checkout.PaymentTimeout,
			SubscriptionPeriod: cfg.Checkout.SubscriptionPeriod,
		})

	certOpts := service.CertificateOptions{
		DownloadPath: cfg.APIPrefix + "/certificates/download",
		Metrics:      metrics,
	}
	var certSvc *service.CertificateService
	var renderQueue *jobs.Queue
	if cfg.Certificates.PDFEnabled {
		files, err := storage.NewLocalStorage(cfg.Certificates.StorageDir)
		if err != nil {
			return fmt.Errorf("certificate storage: %w", err)
		}
		renderQueue = jobs.NewQueue("certificates", func(ctx context.Context, job jobs.Job) error {
			return certSvc.RenderJob(ctx, job)
		}, jobs.QueueConfig{
			Workers:    cfg.Certificates.WorkerConcurrency,
			MaxRetries: cfg.Certificates.WorkerRetries,
			OnGiveUp: func(job jobs.Job, err error) {
				certSvc.RenderAbandoned(job, err)
			},
			Logger: logr,
		})
		certOpts.Queue = renderQueue
		certOpts.Storage = files
		certOpts.Signer = storage.NewSignedURLSigner(cfg.Certificates.SignedURLSecret, cfg.Certificates.SignedURLTTL)
	}
	certSvc = service.NewCertificateService(repository.NewCertificateRepository(store), users, courses, publisher, logr, certOpts)
	if renderQueue != nil {
		renderQueue.Start(ctx)
		defer renderQueue.Stop()
	}

	progressSvc := service.NewProgressService(repository.NewProgressRepository(store), courses, certSvc, logr)
	refundSvc := service.NewRefundService(repository.NewRefundRepository(store), courses, nil, publisher, logr)
	reviewSvc := service.NewReviewService(repository.NewReviewRepository(store), courses, logr)
	qaSvc := service.NewQAService(repository.NewQuestionRepository(store), courses, logr)
	wishlistSvc := service.NewWishlistService(repository.NewWishlistRepository(store), courses)

	metricsHandler := handler.NewMetricsHandler(metrics, be.pinger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/metrics", "/health", "/ready"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Courses:      handler.NewCourseHandler(catalogSvc, enrollmentSvc),
		Checkout:     handler.NewCheckoutHandler(checkoutSvc, couponSvc),
		Progress:     handler.NewProgressHandler(progressSvc),
		Community:    handler.NewCommunityHandler(reviewSvc, qaSvc),
		Wishlist:     handler.NewWishlistHandler(wishlistSvc),
		Certificates: handler.NewCertificateHandler(certSvc),
		Refunds:      handler.NewRefundHandler(refundSvc),
		Admin:        handler.NewAdminHandler(authSvc, catalogSvc, couponSvc),
		Metrics:      metricsHandler,
	}, handler.RouteOptions{
		Authenticator: authSvc,
		AuthLimiter:   ratelimit.New(cfg.RateLimit.AuthRequests, cfg.RateLimit.AuthWindow).Middleware(),
		Logger:        logr,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.Store.Driver),
			zap.Bool("certificate_pdf", cfg.Certificates.PDFEnabled),
			zap.Bool("events", cfg.Events.Enabled))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logr.Info("server exited")
	return nil
}
