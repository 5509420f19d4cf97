package main

import (
	"context"
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
	"shareit/internal/export"
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

	repo, backup, err := initStore(cfg, &logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := service.Seed(ctx, repo, cfg.Seed, &logger); err != nil {
		logger.Error().Err(err).Msg("seed store")
		return err
	}

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	quota, sweeper := initQuota(redisClient, &logger)

	bus, notifier, err := initEvents(cfg, redisClient, &logger)
	if err != nil {
		return err
	}

	bookingService := service.NewBookingService(repo, bus, &logger)
	services := api.Services{
		Users:    service.NewUserService(repo, &logger),
		Items:    service.NewItemService(repo, bus, &logger),
		Bookings: bookingService,
		Requests: service.NewRequestService(repo, &logger),
		Exporter: export.NewBookingExporter(cfg.Exports.SheetName),
		Health:   repo.Ping,
	}

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		lookup := api.NewBookingLookupService(bookingService, service.NewBookingAggregator(repo))
		grpcServer, err = api.NewGRPCServer(&cfg.API, lookup, &logger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}

	httpServer := api.NewHTTPServer(cfg.API, services, quota, cfg.Pagination.DefaultSize, &logger)

	startMetrics(ctx, cfg, &logger)

	if backup != nil {
		go backup.Start(ctx)
	}
	if notifier != nil {
		go notifier.Start(ctx)
	}
	go sweepQuota(ctx, sweeper, time.Duration(cfg.API.UserRateLimit.Window)*time.Second)

	return startServers(ctx, grpcServer, httpServer, cfg, &logger)
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

// initStore opens the configured repository. The backup service is only
// available for sqlite.
func initStore(cfg *config.Config, logger *zerolog.Logger) (domain.Repository, *database.BackupService, error) {
	if cfg.Database.Driver == config.DriverMemory {
		logger.Warn().Msg("using in-memory store, data is lost on restart")
		return repository.NewMemoryStore(), nil, nil
	}

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, nil, err
	}

	var backup *database.BackupService
	if cfg.Backup.Enabled {
		backup = database.NewBackupService(db, cfg.Backup, logging.Component(logger, "backup"))
	}
	return db, backup, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)

	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := repository.Ping(pingCtx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initQuota returns the per-user quota store. With redis the quota is shared
// across instances and falls back to the local counter when redis fails.
func initQuota(redisClient *redis.Client, logger *zerolog.Logger) (domain.RateLimitRepository, *repository.MemoryRateLimiter) {
	local := repository.NewMemoryRateLimiter()
	if redisClient == nil {
		return local, local
	}

	failover := repository.NewFailoverRateLimiter(
		repository.NewRedisRateLimiter(redisClient),
		local,
		repository.FailoverOptions{},
		logging.Component(logger, "quota"),
	)
	return failover, local
}

func sweepQuota(ctx context.Context, limiter *repository.MemoryRateLimiter, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Sweep()
		}
	}
}

// initEvents builds the event bus with an audit log subscriber and, when
// enabled, the webhook notifier.
func initEvents(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) (*events.EventBus, *worker.Notifier, error) {
	bus := events.NewEventBus()
	eventLogger := logging.Component(logger, "events")

	bus.OnError(func(event *events.Event, err error) {
		eventLogger.Error().Err(err).Str("event_type", event.Type).Msg("event handler failed")
	})

	audit := func(event *events.Event) error {
		eventLogger.Info().
			Str("event_type", event.Type).
			RawJSON("payload", event.Payload).
			Time("created_at", event.CreatedAt).
			Msg("domain event")
		return nil
	}
	bus.SubscribeAll(events.All, audit)

	if !cfg.Notifications.Enabled {
		return bus, nil, nil
	}

	retry, err := worker.RetryPolicyFromConfig(cfg.Notifications)
	if err != nil {
		return nil, nil, fmt.Errorf("notifications: %w", err)
	}
	sender := worker.NewWebhookSender(cfg.Notifications.WebhookURL, time.Duration(cfg.Notifications.Timeout)*time.Second)
	notifier := worker.NewNotifier(sender, redisClient, retry, cfg.Notifications.QueueSize, logger)
	notifier.Subscribe(bus)

	logger.Info().Str("webhook", cfg.Notifications.WebhookURL).Msg("webhook notifications enabled")
	return bus, notifier, nil
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	metrics.Register()
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("grpc server stopped")
			}
		}()
	}

	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().
		Bool("grpc", grpcServer != nil).
		Bool("http", cfg.API.HTTP.Enabled).
		Int("http_port", cfg.API.HTTP.Port).
		Int("grpc_port", cfg.API.GRPC.Port).
		Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	_ = httpServer.Shutdown(shutdownCtx)

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
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
