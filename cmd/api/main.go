package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shareit/internal/api"
	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/logging"
	"shareit/internal/metrics"
	"shareit/internal/repository"
	"shareit/internal/service"
	"shareit/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, db, err := initStore(cfg, &logger)
	if err != nil {
		return err
	}
	defer store.Close()

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	locker := initLocker(cfg, redisClient, &logger)

	bus := events.NewEventBus()
	publisher, err := initBroker(ctx, cfg, bus, redisClient, &logger)
	if err != nil {
		return err
	}
	if publisher != nil {
		defer publisher.Close()
	}

	if db != nil {
		go database.NewBackupService(db, cfg.Backup, &logger).Start(ctx)
	}

	startMetrics(ctx, cfg, &logger)

	svc := api.Services{
		Users:    service.NewUserService(store, &logger),
		Items:    service.NewItemService(store, &logger),
		Bookings: service.NewBookingService(store, locker, bus, &logger),
		Requests: service.NewRequestService(store, &logger),
		Store:    store,
	}
	httpServer := api.NewHTTPServer(cfg.API, cfg.Booking.DefaultPageSize, svc, &logger)

	return serve(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

// initStore opens the configured repository. db is nil for the memory store.
func initStore(cfg *config.Config, logger *zerolog.Logger) (domain.Repository, *database.DB, error) {
	if cfg.Database.Driver == config.DriverMemory {
		logger.Warn().Msg("using in-memory store, data will not survive a restart")
		return repository.NewMemoryRepository(), nil, nil
	}

	db, err := database.NewDB(cfg.Database, logger)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Database.Driver).Msg("init database")
		return nil, nil, err
	}
	return db, db, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := repository.Ping(pingCtx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func initLocker(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.ItemLocker {
	local := repository.NewMemoryItemLocker()
	if cfg.Locks.Backend != config.LockRedis {
		return local
	}
	if redisClient == nil {
		logger.Warn().Msg("redis locks configured but redis is unavailable, using process-local locks")
		return local
	}
	return repository.NewFailoverItemLocker(repository.NewRedisItemLocker(redisClient, cfg.Locks), local, logger)
}

func initBroker(ctx context.Context, cfg *config.Config, bus *events.EventBus, redisClient *redis.Client, logger *zerolog.Logger) (domain.BrokerPublisher, error) {
	var (
		publisher domain.BrokerPublisher
		err       error
	)
	switch cfg.Events.Broker {
	case config.BrokerRabbit:
		publisher, err = events.NewRabbitPublisher(cfg.Events.RabbitMQ.URL, cfg.Events.RabbitMQ.Exchange)
		if err != nil {
			logger.Error().Err(err).Msg("init rabbitmq publisher")
			return nil, err
		}
	case config.BrokerKafka:
		publisher = events.NewKafkaPublisher(cfg.Events.Kafka.Brokers, cfg.Events.Kafka.Topic)
	default:
		return nil, nil
	}

	forwarder := worker.NewBrokerForwarder(publisher, redisClient, worker.RetryPolicyFromConfig(cfg.Events.Retry), logger)
	forwarder.Subscribe(bus, events.BookingTypes...)
	go forwarder.Start(ctx)

	logger.Info().Str("broker", cfg.Events.Broker).Msg("event forwarding enabled")
	return publisher, nil
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	metrics.Register()
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func serve(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
