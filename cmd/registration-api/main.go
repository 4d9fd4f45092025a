package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	_ "github.com/BrooksCoder/RegistrationApp/api/swagger"
	"github.com/BrooksCoder/RegistrationApp/internal/audit"
	"github.com/BrooksCoder/RegistrationApp/internal/handler"
	"github.com/BrooksCoder/RegistrationApp/internal/middleware"
	"github.com/BrooksCoder/RegistrationApp/internal/models"
	"github.com/BrooksCoder/RegistrationApp/internal/notify"
	"github.com/BrooksCoder/RegistrationApp/internal/repository"
	"github.com/BrooksCoder/RegistrationApp/internal/service"
	"github.com/BrooksCoder/RegistrationApp/pkg/cache"
	"github.com/BrooksCoder/RegistrationApp/pkg/config"
	"github.com/BrooksCoder/RegistrationApp/pkg/database"
	"github.com/BrooksCoder/RegistrationApp/pkg/docstore"
	"github.com/BrooksCoder/RegistrationApp/pkg/imaging"
	"github.com/BrooksCoder/RegistrationApp/pkg/logger"
	"github.com/BrooksCoder/RegistrationApp/pkg/secrets"
	"github.com/BrooksCoder/RegistrationApp/pkg/storage"
	_ "github.com/BrooksCoder/RegistrationApp/pkg/storage/azure"
	_ "github.com/BrooksCoder/RegistrationApp/pkg/storage/gcs"
	_ "github.com/BrooksCoder/RegistrationApp/pkg/storage/local"
	_ "github.com/BrooksCoder/RegistrationApp/pkg/storage/s3"
)

// @title Registration API
// @version 1.0.0
// @description Item registration with a review workflow
// @BasePath /api
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg, "registration-api")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.KeyVault.URL != "" {
		vault, err := secrets.NewKeyVault(cfg.KeyVault.URL)
		if err != nil {
			logr.Warn("key vault unavailable, using environment secrets", zap.Error(err))
		} else {
			applied := secrets.Apply(ctx, cfg, vault, cfg.KeyVault.Timeout, logr)
			logr.Info("secrets loaded from key vault", zap.Int("count", applied))
		}
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(ctx, cfg.Database, logr)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.Database.MigrateOnStart {
		if err := database.RunMigrations(db.DB); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		logr.Info("database migrations applied")
	}

	metrics := service.NewMetricsService()
	checks := map[string]handler.Pinger{"postgres": db}

	itemRepo := repository.NewItemRepository(db, cfg.Database.QueryTimeout)
	notificationRepo := repository.NewNotificationRepository(db, cfg.Database.QueryTimeout)

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, continuing without it", zap.String("kind", "DEPENDENCY_UNAVAILABLE"), zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			checks["redis"] = handler.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
		}
	}

	sink, auditReader, closeAudit := buildAudit(ctx, cfg, metrics, checks, logr)
	defer closeAudit()

	dispatcher, publisher, closeDispatcher := buildDispatcher(cfg, redisClient, notificationRepo, metrics, logr)
	defer closeDispatcher()

	var images *service.ItemImages
	var files handler.TokenStore
	blobs, err := storage.New(cfg)
	if err != nil {
		logr.Warn("image storage disabled", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	} else {
		images = &service.ItemImages{
			Store:     blobs,
			Processor: imaging.NewProcessor(cfg.Storage.ImageMaxBytes),
			URLPrefix: cfg.APIPrefix + "/images/",
			URLTTL:    cfg.Storage.SignedURLTTL,
			Timeout:   cfg.Storage.UploadTimeout,
		}
		if local, ok := blobs.(handler.TokenStore); ok {
			files = local
		}
	}

	validate := validator.New()
	effects := service.NewSideEffects(sink, dispatcher, metrics, cfg.Notifications.DefaultRecipient, logr)

	itemSvc := service.NewItemService(itemRepo, images, effects, validate, logr)
	approvalSvc := service.NewApprovalService(itemRepo, effects, logr)
	analyticsSvc := service.NewAnalyticsService(itemRepo, auditReader, notificationRepo, metrics, logr)
	if depth, ok := publisher.(service.QueueDepthSource); ok {
		analyticsSvc.UseQueueDepth(depth)
	}
	exportSvc := service.NewExportService(analyticsSvc, itemRepo, logr)
	auditSvc := service.NewAuditService(auditReader, effects, validate, logr)
	notificationSvc := service.NewNotificationService(effects, notificationRepo, validate, logr)

	var limiter middleware.RateLimiter
	if cfg.RateLimit.Enabled && redisClient != nil {
		limiter = middleware.NewRedisRateLimiter(redis_rate.NewLimiter(redisClient), cfg.RateLimit.PerMinute)
	}

	tokens := middleware.NewTokenValidator(cfg.JWT.Secret)
	if cfg.JWT.RequireForWrites && tokens == nil {
		logr.Warn("JWT_REQUIRE_FOR_WRITES is set without JWT_SECRET, write routes stay open")
	}

	router := handler.NewRouter(handler.RouterConfig{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Logger:         logr,
		Metrics:        metrics,
		Tokens:         tokens,
		RequireAuth:    cfg.JWT.RequireForWrites,
		RateLimiter:    limiter,
		Items:          handler.NewItemHandler(itemSvc, cfg.APIPrefix, cfg.Storage.ImageMaxBytes),
		Approvals:      handler.NewApprovalHandler(approvalSvc),
		Analytics:      handler.NewAnalyticsHandler(analyticsSvc, exportSvc),
		Audit:          handler.NewAuditHandler(auditSvc),
		Notifications:  handler.NewNotificationHandler(notificationSvc),
		Images:         handler.NewImageHandler(itemSvc, files),
		Probes:         handler.NewMetricsHandler(metrics, checks),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting",
			zap.String("addr", server.Addr),
			zap.String("env", cfg.Env),
			zap.String("notify_transport", cfg.ResolveTransport()),
			zap.String("storage_backend", cfg.Storage.Backend),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildAudit returns the sink used by services and the reader behind the
// audit endpoints. Without Mongo the trail is logged only.
func buildAudit(ctx context.Context, cfg *config.Config, metrics *service.MetricsService, checks map[string]handler.Pinger, logr *zap.Logger) (audit.Sink, audit.Reader, func()) {
	if !cfg.Mongo.Enabled() {
		logr.Warn("audit store not configured, audit entries are logged only")
		return audit.NewNoopSink(logr), audit.EmptyReader{}, func() {}
	}
	client, err := docstore.NewMongo(ctx, cfg.Mongo)
	if err != nil {
		logr.Warn("audit store unavailable, audit entries are logged only", zap.String("kind", "DEPENDENCY_UNAVAILABLE"), zap.Error(err))
		return audit.NewNoopSink(logr), audit.EmptyReader{}, func() {}
	}
	disconnect := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(shutdownCtx)
	}

	repo := repository.NewAuditRepository(docstore.Collection(client, cfg.Mongo))
	if err := repo.EnsureIndexes(ctx); err != nil {
		logr.Warn("ensure audit indexes", zap.Error(err))
	}
	checks["mongo"] = handler.PingFunc(func(ctx context.Context) error { return pingMongo(ctx, client) })

	if !cfg.Audit.Async {
		return audit.NewStoreSink(repo, cfg.Audit.WriteTimeout, logr), repo, disconnect
	}
	async := audit.NewAsyncSink(repo, audit.AsyncConfig{
		Workers:      cfg.Audit.Workers,
		BufferSize:   cfg.Audit.BufferSize,
		MaxRetries:   cfg.Audit.MaxRetries,
		RetryDelay:   cfg.Audit.RetryDelay,
		WriteTimeout: cfg.Audit.WriteTimeout,
	}, logr)
	async.OnDrop(func(models.AuditLogEntry, error) { metrics.RecordAuditDrop() })
	if err := metrics.TrackAuditBacklog(async.Pending); err != nil {
		logr.Warn("audit backlog gauge not registered", zap.Error(err))
	}
	async.Start(context.Background())
	return async, repo, func() {
		async.Stop()
		disconnect()
	}
}

func pingMongo(ctx context.Context, client *mongo.Client) error {
	return client.Ping(ctx, nil)
}

// buildDispatcher picks the notification transport. Any failure degrades to
// the no-op dispatcher so the API keeps serving; the returned publisher is
// then nil.
func buildDispatcher(cfg *config.Config, redisClient *redis.Client, ledger notify.Recorder, metrics *service.MetricsService, logr *zap.Logger) (notify.Dispatcher, notify.Publisher, func()) {
	var (
		publisher   notify.Publisher
		closeClient = func(context.Context) error { return nil }
	)
	switch cfg.ResolveTransport() {
	case config.TransportServiceBus:
		client, err := notify.NewServiceBusClient(cfg.ServiceBus.ConnectionString)
		if err != nil {
			logr.Warn("service bus unavailable", zap.String("kind", "DEPENDENCY_UNAVAILABLE"), zap.Error(err))
			break
		}
		sb, err := notify.NewServiceBusPublisher(client, cfg.Notifications.QueueName)
		if err != nil {
			logr.Warn("service bus sender unavailable", zap.String("kind", "DEPENDENCY_UNAVAILABLE"), zap.Error(err))
			_ = client.Close(context.Background())
			break
		}
		publisher = sb
		closeClient = client.Close
	case config.TransportRedis:
		if redisClient == nil {
			logr.Warn("redis transport selected but redis is unavailable")
			break
		}
		publisher = notify.NewRedisPublisher(redisClient, cfg.Notifications.QueueName)
	}

	if publisher == nil {
		logr.Info("notifications disabled")
		return notify.NewNoopDispatcher(ledger, metrics, logr), nil, func() {}
	}
	logr.Info("notifications enabled", zap.String("transport", publisher.Transport()), zap.String("queue", cfg.Notifications.QueueName))
	dispatcher := notify.NewQueueDispatcher(publisher, ledger, metrics, cfg.Notifications.PublishTimeout, logr)
	return dispatcher, publisher, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = publisher.Close(ctx)
		_ = closeClient(ctx)
	}
}
