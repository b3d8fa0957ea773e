// main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"smart-bus/cmd"
	"smart-bus/internal/data/memstore"
	"smart-bus/internal/data/repository"
	"smart-bus/internal/expiry"
	"smart-bus/internal/gateway"
	"smart-bus/internal/location"
	"smart-bus/internal/lock"
	"smart-bus/internal/outbox"
	"smart-bus/internal/usecase"
	"smart-bus/internal/wire"
	"smart-bus/pkg/database"
	"smart-bus/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"
)

func main() {
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.InitLogger(config.App)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using zap production logger.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.String("store", config.App.Store),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	repo, closeStore := openStore(ctx, config, logger)
	defer closeStore()

	rdb, err := database.NewRedis(ctx, config.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	if rdb != nil {
		defer rdb.Close()
		logger.Info("Redis connected", zap.String("addr", config.Redis.Addr))
	}

	coord := usecase.NewCoordinator(repo, newLocker(config, rdb, logger), newGateway(config, logger), usecase.EngineConfig{
		Currency:     config.Booking.Currency,
		HoldDuration: config.Booking.HoldDuration,
	}, logger)

	temporalClient, holdWorker := setupHoldExpiry(coord, config, logger)
	if temporalClient != nil {
		defer temporalClient.Close()
	}

	tracker := location.NewTracker(repo.Position, newPositionCache(rdb), logger)
	app := wire.Wiring(coord, repo, tracker, rdb, config, logger)

	var relay *outbox.Relay
	if len(config.Kafka.Brokers) > 0 {
		writer := outbox.NewKafkaWriter(config.Kafka.Brokers, config.Kafka.Topic)
		defer writer.Close()
		relay = outbox.NewRelay(repo.Outbox, writer, config.Kafka.OutboxInterval, config.Kafka.OutboxBatch, logger)
	} else {
		logger.Warn("KAFKA_BROKERS not set, domain events stay in the outbox")
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		cmd.RunWorkers(ctx, relay, holdWorker, logger)
	}()

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("HTTP server stopped", zap.Error(err))
		cancel()
	}

	wg.Wait()
	logger.Info("Application stopped")
}

// openStore connects to Postgres (running migrations when enabled) or
// falls back to the in-memory store for STORE=memory.
func openStore(ctx context.Context, config *utils.Config, logger *zap.Logger) (*repository.Repository, func()) {
	if config.App.Store == "memory" {
		logger.Warn("Using in-memory store, data is lost on restart")
		return memstore.New(logger).Repository(), func() {}
	}

	if config.Database.Migrate {
		if err := database.Migrate(config.Database, logger); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	db, err := database.InitDB(ctx, config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	logger.Info("Database connected successfully")

	return repository.NewRepository(db, logger), db.Close
}

func newLocker(config *utils.Config, rdb *redis.Client, logger *zap.Logger) lock.Locker {
	if config.Redis.LockBackend == "redis" {
		if rdb == nil {
			logger.Fatal("LOCK_BACKEND=redis requires REDIS_ADDR")
		}
		return lock.NewRedisLocker(rdb, lock.DefaultOptions(), logger)
	}
	return lock.NewKeyedMutex()
}

func newGateway(config *utils.Config, logger *zap.Logger) gateway.Gateway {
	gw := config.Gateway
	if gw.Mode != "razorpay" {
		return gateway.NewSandbox(gw.KeyID, gw.KeySecret, logger)
	}

	breakerCfg := gateway.DefaultBreakerConfig()
	breakerCfg.MaxRetries = gw.MaxRetries
	return gateway.NewBreaker(
		gateway.NewRazorpay(gw.BaseURL, gw.KeyID, gw.KeySecret, gw.Timeout, logger),
		breakerCfg,
		logger,
	)
}

// setupHoldExpiry uses Temporal when TEMPORAL_HOST is set and an
// in-process timer scheduler otherwise.
func setupHoldExpiry(coord *usecase.Coordinator, config *utils.Config, logger *zap.Logger) (client.Client, worker.Worker) {
	if config.Temporal.Host == "" {
		logger.Warn("TEMPORAL_HOST not set, seat holds expire from in-process timers")
		coord.SetScheduler(expiry.NewLocalScheduler(coord, logger))
		return nil, nil
	}

	c, err := expiry.Dial(config.Temporal, logger)
	if err != nil {
		logger.Fatal("Failed to connect to temporal", zap.Error(err))
	}
	coord.SetScheduler(expiry.NewTemporalScheduler(c, config.Temporal.TaskQueue, logger))
	return c, expiry.NewWorker(c, config.Temporal.TaskQueue, coord, logger)
}

func newPositionCache(rdb *redis.Client) location.Cache {
	if rdb == nil {
		return location.NewMemoryCache(location.DefaultTTL, nil)
	}
	return location.NewRedisCache(rdb, location.DefaultTTL)
}
