package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/willow/config"
	dcrepo "github.com/Ramsey-B/willow/internal/repositories/duplicatecandidate"
	memorialrepo "github.com/Ramsey-B/willow/internal/repositories/memorial"
	"github.com/Ramsey-B/willow/pkg/database"
	"github.com/Ramsey-B/willow/pkg/events"
	"github.com/Ramsey-B/willow/pkg/kafka"
	"github.com/Ramsey-B/willow/pkg/logging"
	"github.com/Ramsey-B/willow/pkg/matching"
	"github.com/Ramsey-B/willow/pkg/metrics"
	"github.com/Ramsey-B/willow/pkg/middleware"
	"github.com/Ramsey-B/willow/pkg/pool"
	"github.com/Ramsey-B/willow/pkg/routes/duplicatecandidate"
	"github.com/Ramsey-B/willow/pkg/routes/health"
	"github.com/Ramsey-B/willow/pkg/routes/memorial"
	"github.com/Ramsey-B/willow/pkg/startup"
	"github.com/Ramsey-B/willow/pkg/tracing"
	"github.com/Ramsey-B/willow/pkg/tracing/exporters"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the duplicate detection API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(root.configFile)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}
}

// dependencies are the external resources opened during startup
type dependencies struct {
	db       *database.DatabaseInstance
	producer *kafka.Producer
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger, zapLogger, err := logging.New(cfg.LogLevel, cfg.PrettyLogs)
	if err != nil {
		return err
	}
	defer func() { _ = zapLogger.Sync() }()

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Enabled:     cfg.TracingEnabled,
		ServiceName: cfg.AppName,
		Exporter: exporters.OTLPConfig{
			Endpoint: cfg.TracingEndpoint,
			Protocol: cfg.TracingProtocol,
			Insecure: cfg.TracingInsecure,
			Timeout:  cfg.TracingTimeout,
		},
	})
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics("willow", registry)

	checker := health.NewChecker(version)
	deps := &dependencies{}
	starter := registerDependencies(cfg, logger, deps, checker)

	if err := starter.Start(ctx); err != nil {
		return err
	}

	e, err := buildServer(cfg, logger, deps, m, registry, checker)
	if err != nil {
		_ = starter.Stop(context.Background())
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.WithField("addr", addr).Info("Starting HTTP server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	checker.SetReady(true)

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case serveErr = <-errCh:
		logger.WithError(serveErr).Error("HTTP server failed")
	}
	checker.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shut down HTTP server")
	}
	if err := starter.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to stop dependencies")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Failed to flush traces")
	}

	return serveErr
}

// registerDependencies declares the database, migrations and Kafka producer
// the configuration asks for. Each one also gets a health check.
func registerDependencies(cfg *config.Config, logger ectologger.Logger, deps *dependencies, checker *health.Checker) *startup.Startup {
	starter := startup.NewStartup(logger, cfg.StartupMaxAttempts)

	if cfg.UsesDatabase() {
		starter.AddDependency(startup.Func{
			Name: "database",
			StartFunc: func(ctx context.Context) error {
				db, err := database.Connect(ctx, database.Config{
					Host:            cfg.DatabaseHost,
					Port:            cfg.DatabasePort,
					User:            cfg.DatabaseUserName,
					Password:        cfg.DatabasePassword,
					Name:            cfg.DatabaseName,
					SSLMode:         cfg.DatabaseSSLMode,
					MaxOpenConns:    cfg.DatabaseMaxOpenConns,
					MaxIdleConns:    cfg.DatabaseMaxIdleConns,
					ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
				}, logger)
				if err != nil {
					return err
				}
				deps.db = db
				return nil
			},
			StopFunc: func(context.Context) error {
				return deps.db.Close()
			},
		})

		starter.AddDependency(startup.Func{
			Name:     "migrations",
			Requires: []string{"database"},
			StartFunc: func(context.Context) error {
				return database.NewMigrationService(logger, &database.MigrationConfig{
					MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
					Version:             uint(max(cfg.DatabaseMigrationVersion, 0)),
					Force:               cfg.DatabaseMigrationForce,
					AutoRollback:        cfg.DatabaseMigrationAutoRollback,
				}).Migrate(deps.db)
			},
		})

		checker.AddCheck("database", func(ctx context.Context) error {
			if deps.db == nil {
				return errors.New("database not connected")
			}
			return deps.db.PingContext(ctx)
		})
	}

	if cfg.EventsEnabled {
		starter.AddDependency(startup.Func{
			Name: "kafka",
			StartFunc: func(ctx context.Context) error {
				if err := kafka.Ping(ctx, cfg.KafkaBrokers); err != nil {
					return err
				}
				deps.producer = kafka.NewProducer(kafka.ProducerConfig{
					Brokers:      cfg.KafkaBrokers,
					Topic:        cfg.KafkaTopic,
					BatchSize:    cfg.KafkaBatchSize,
					BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
					RequiredAcks: cfg.KafkaRequiredAcks,
					Compression:  cfg.KafkaCompression,
				}, logger)
				return nil
			},
			StopFunc: func(context.Context) error {
				return deps.producer.Close()
			},
		})

		checker.AddCheck("kafka", func(ctx context.Context) error {
			return kafka.Ping(ctx, cfg.KafkaBrokers)
		})
	}

	return starter
}

func buildServer(
	cfg *config.Config,
	logger ectologger.Logger,
	deps *dependencies,
	m *metrics.Metrics,
	registry *prometheus.Registry,
	checker *health.Checker,
) (*echo.Echo, error) {
	scorer, err := matching.NewSimilarityScorer(cfg.SimilarityConfig())
	if err != nil {
		return nil, err
	}

	var (
		source matching.CandidateSource
		store  memorial.Store
	)
	if deps.db != nil {
		repo := memorialrepo.NewRepository(deps.db, logger)
		source, store = repo, repo
	} else {
		demo, err := pool.LoadDemo()
		if err != nil {
			return nil, err
		}
		logger.WithField("memorials", demo.Len()).Warn("Using the in-memory demo memorial pool")
		source, store = demo, demo
	}

	service := matching.NewService(logger, matching.NewDuplicateFinder(scorer), source, cfg.MatchingConfig()).
		WithMetrics(m)
	if deps.producer != nil {
		service.WithEmitter(events.NewEmitter(deps.producer, logger))
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second

	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.AllowOrigins}))
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))

	api := e.Group("/api/v1")
	checker.RegisterRoutes(api.Group("/health"))
	memorial.NewHandler(store, service, logger, m).Register(api.Group("/memorials"))

	if deps.db != nil && cfg.ReviewQueueEnabled {
		queue := dcrepo.NewRepository(deps.db, logger)
		service.WithReviewRecorder(queue)
		duplicatecandidate.NewHandler(queue, logger).Register(api.Group("/duplicate-candidates"))
	}

	return e, nil
}
