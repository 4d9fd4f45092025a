package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BrooksCoder/RegistrationApp/internal/notify"
	"github.com/BrooksCoder/RegistrationApp/internal/repository"
	"github.com/BrooksCoder/RegistrationApp/pkg/cache"
	"github.com/BrooksCoder/RegistrationApp/pkg/config"
	"github.com/BrooksCoder/RegistrationApp/pkg/database"
	"github.com/BrooksCoder/RegistrationApp/pkg/logger"
	"github.com/BrooksCoder/RegistrationApp/pkg/secrets"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg, "notifier")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("notifier failed", zap.Error(err))
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
			secrets.Apply(ctx, cfg, vault, cfg.KeyVault.Timeout, logr)
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable", zap.String("kind", "DEPENDENCY_UNAVAILABLE"), zap.Error(err))
		} else {
			redisClient = client
			defer redisClient.Close()
		}
	}

	sub, err := subscriber(cfg, redisClient)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = sub.Close(closeCtx)
	}()

	var claims notify.Claimer
	if redisClient != nil {
		claims = repository.NewDeliveryLedger(redisClient, cfg.Notifications.DeliveryTTL, cfg.Notifications.ClaimHold)
	} else {
		logr.Warn("no delivery ledger configured, duplicates are only detected within this process")
		claims = notify.NewMemoryClaims()
	}

	var statuses notify.StatusUpdater
	db, err := connectLedger(ctx, cfg, logr)
	if err != nil {
		logr.Warn("notification ledger unavailable, delivery status is not recorded", zap.String("kind", "DEPENDENCY_UNAVAILABLE"), zap.Error(err))
	} else {
		defer db.Close()
		statuses = repository.NewNotificationRepository(db, cfg.Database.QueryTimeout)
	}

	consumer := notify.NewConsumer(sub, notify.NewLogMailer(logr), claims, statuses, notify.ConsumerConfig{}, logr)
	logr.Info("notifier started",
		zap.String("transport", cfg.ResolveTransport()),
		zap.String("queue", cfg.Notifications.QueueName),
	)
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logr.Info("notifier stopped")
	return nil
}

func subscriber(cfg *config.Config, redisClient *redis.Client) (notify.Subscriber, error) {
	switch cfg.ResolveTransport() {
	case config.TransportServiceBus:
		client, err := notify.NewServiceBusClient(cfg.ServiceBus.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("service bus client: %w", err)
		}
		return notify.NewServiceBusSubscriber(client, cfg.Notifications.QueueName, cfg.Notifications.ConsumerWait)
	case config.TransportRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("redis transport selected but redis is unavailable")
		}
		return notify.NewRedisSubscriber(redisClient, cfg.Notifications.QueueName, cfg.Notifications.ConsumerWait), nil
	}
	return nil, fmt.Errorf("no notification transport configured")
}

// connectLedger makes a single attempt; the consumer still runs without it.
func connectLedger(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*sqlx.DB, error) {
	dbCfg := cfg.Database
	dbCfg.ConnectRetries = 1
	return database.Connect(ctx, dbCfg, logr)
}
