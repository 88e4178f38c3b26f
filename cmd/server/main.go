package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/ledgerd/internal/adapter/http"
	"github.com/iho/ledgerd/internal/adapter/http/handler"
	"github.com/iho/ledgerd/internal/adapter/http/middleware"
	"github.com/iho/ledgerd/internal/adapter/idgen"
	"github.com/iho/ledgerd/internal/adapter/repository/instrumented"
	"github.com/iho/ledgerd/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/ledgerd/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/ledgerd/internal/adapter/repository/redis"
	"github.com/iho/ledgerd/internal/infrastructure/config"
	"github.com/iho/ledgerd/internal/infrastructure/eventpublisher"
	"github.com/iho/ledgerd/internal/infrastructure/kafka"
	"github.com/iho/ledgerd/internal/infrastructure/logger"
	"github.com/iho/ledgerd/internal/infrastructure/metrics"
	"github.com/iho/ledgerd/internal/infrastructure/postgres"
	"github.com/iho/ledgerd/internal/infrastructure/redis"
	"github.com/iho/ledgerd/internal/infrastructure/retry"
	"github.com/iho/ledgerd/internal/usecase"
)

const (
	serviceName         = "ledgerd"
	limiterCleanupEvery = time.Minute
	limiterMaxIdle      = 10 * time.Minute
)

// ledgerStore is what every storage backend provides.
type ledgerStore interface {
	usecase.AccountStore
	usecase.TransactionLog
	Ping(ctx context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: serviceName,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log.Logger); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app, err := newApp(ctx, cfg, logger, reg)
	if err != nil {
		return err
	}
	defer app.Close()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      app.handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	app.startBackground(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.HTTPPort).Str("store", cfg.StoreDriver).Msg("starting server")
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

	logger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	return nil
}

// app is the wired server: router, background workers and what to release.
type app struct {
	handler     http.Handler
	relay       *usecase.LogRelay
	rateLimiter *middleware.RateLimiter
	closers     []func()
	logger      zerolog.Logger
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, reg *prometheus.Registry) (*app, error) {
	a := &app{logger: logger}

	m := metrics.NewWithRegistry(reg)

	var redisClient *goredis.Client
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		redisClient = client
		a.closers = append(a.closers, func() { _ = client.Close() })
		logger.Info().Msg("connected to redis")
	}

	store, err := a.openStore(ctx, cfg, redisClient)
	if err != nil {
		a.Close()
		return nil, err
	}

	idGen, err := idgen.New(cfg.AccountIDStrategy)
	if err != nil {
		a.Close()
		return nil, err
	}

	accounts := instrumented.NewStore(store, m)
	accountUC := usecase.NewAccountUseCase(accounts, idGen)
	transferUC := usecase.NewTransferUseCase(accounts)
	auditUC := usecase.NewAuditUseCase(accounts, store)
	reconciliationUC := usecase.NewReconciliationUseCase(accounts, store)

	var retrier handler.Retrier
	if cfg.ConflictRetries > 0 {
		retrier = retry.NewConflictRetrier(cfg.ConflictRetries, retry.WithLogger(logger))
	}

	checks := []handler.HealthCheck{{Name: "store", Pinger: store}}

	routerCfg := httpAdapter.RouterConfig{
		AccountHandler:  handler.NewAccountHandler(accountUC, retrier, m),
		TransferHandler: handler.NewTransferHandler(transferUC, retrier, m),
		AuditHandler:    handler.NewAuditHandler(auditUC, m),
		LedgerHandler:   handler.NewLedgerHandler(reconciliationUC),
		Metrics:         m,
		Gatherer:        reg,
		Logger:          logger,
	}

	if redisClient != nil {
		checks = append(checks, handler.HealthCheck{Name: "redis", Pinger: redisPinger{redisClient}})
		routerCfg.Idempotency = middleware.NewIdempotencyMiddleware(
			redisRepo.NewIdempotencyStore(redisClient),
			cfg.IdempotencyTTL,
			redisRepo.IsPending,
			logger,
		)
	}

	if cfg.RateLimitRPS > 0 {
		a.rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithHitCounter(m.RateLimitHits)
		routerCfg.RateLimiter = a.rateLimiter
	}

	routerCfg.HealthHandler = handler.NewHealthHandler(checks...)
	a.handler = httpAdapter.NewRouter(routerCfg)

	if cfg.RelayEnabled() {
		publisher, err := a.openPublisher(cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.relay = usecase.NewLogRelay(store, publisher, cfg.RelayInterval, 0, logger).WithObserver(m)
	}

	return a, nil
}

func (a *app) openStore(ctx context.Context, cfg *config.Config, redisClient *goredis.Client) (ledgerStore, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		a.logger.Warn().Msg("using in-memory store; data is lost on restart")
		return memory.NewDocumentStore(), nil

	case config.DriverPostgres:
		if cfg.RunMigrations {
			if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, a.logger); err != nil {
				return nil, err
			}
		}
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		a.logger.Info().Msg("connected to postgres")
		return postgresRepo.NewDocumentStore(pool), nil

	case config.DriverRedis:
		if redisClient == nil {
			return nil, errors.New("redis store driver requires REDIS_URL")
		}
		return redisRepo.NewDocumentStore(redisClient), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func (a *app) openPublisher(cfg *config.Config) (usecase.EntryPublisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		a.logger.Info().Msg("relay publishing to log only")
		return eventpublisher.NewLogPublisher(a.logger), nil
	}

	producer, err := kafka.NewSyncProducer(kafka.ProducerConfig{
		Brokers:  cfg.KafkaBrokers,
		ClientID: serviceName,
	})
	if err != nil {
		return nil, err
	}

	publisher := eventpublisher.NewKafkaPublisher(producer, cfg.KafkaTopic, a.logger)
	a.closers = append(a.closers, func() { _ = publisher.Close() })
	a.logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("connected to kafka")

	return publisher, nil
}

// startBackground runs the relay and limiter cleanup until ctx is done.
func (a *app) startBackground(ctx context.Context) {
	if a.relay != nil {
		go a.relay.Run(ctx)
	}

	if a.rateLimiter != nil {
		go func() {
			ticker := time.NewTicker(limiterCleanupEvery)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if n := a.rateLimiter.CleanupLimiters(limiterMaxIdle); n > 0 {
						a.logger.Debug().Int("removed", n).Msg("dropped idle rate limiters")
					}
				}
			}
		}()
	}
}

// Close releases connections in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

type redisPinger struct {
	client goredis.UniversalClient
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

