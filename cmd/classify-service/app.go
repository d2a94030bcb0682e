package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"chatpipe/internal/business"
	"chatpipe/internal/calling"
	"chatpipe/internal/config"
	"chatpipe/internal/constants"
	"chatpipe/internal/enrich"
	"chatpipe/internal/filter"
	"chatpipe/internal/i18n"
	"chatpipe/internal/logger"
	"chatpipe/internal/names"
	namesprovider "chatpipe/internal/names/provider"
	"chatpipe/internal/pipeline"
	"chatpipe/internal/progress"
	"chatpipe/internal/registry"
	"chatpipe/internal/revoke"
	"chatpipe/pkg/bootstrap"
	"chatpipe/pkg/circuitbreaker"
	"chatpipe/pkg/health"
	"chatpipe/pkg/logging"
	"chatpipe/pkg/metrics"
	"chatpipe/pkg/migrations"
	"chatpipe/pkg/models"
	"chatpipe/pkg/tracing"
)

type App struct {
	*bootstrap.Base
	dbConnector *bootstrap.DatabaseConnector

	db          *sql.DB
	redisClient *redis.Client
	mongoClient *mongo.Client

	deriver        *pipeline.Deriver
	suppression    *filter.Service
	tracerProvider *tracing.TracerProvider
	server         *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName("classify-service")
	}
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.initDatabases(ctx); err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := a.initDeriver(ctx); err != nil {
		return fmt.Errorf("failed to initialize deriver: %w", err)
	}

	if err := a.initSuppression(ctx); err != nil {
		return fmt.Errorf("failed to initialize suppression: %w", err)
	}

	if err := a.InitBroker("classify-service"); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	tp, err := tracing.Init(a.Config.Tracing, "classify-service")
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	metrics.RegisterClassifyMetrics()
	metrics.RegisterBrokerMetrics()
	metrics.RegisterNamesMetrics()
	if a.Config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	if err := a.initHTTPServer(ctx); err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	return nil
}

func (a *App) initDatabases(ctx context.Context) error {
	if a.Config.Database.Redis.Host != "" {
		rdb, err := a.dbConnector.InitRedis(ctx)
		if err != nil {
			return err
		}
		a.redisClient = rdb
	}

	db, err := a.dbConnector.InitPostgreSQL(ctx)
	if err != nil {
		return err
	}
	a.db = db

	mongoClient, err := a.dbConnector.InitMongoDB(ctx)
	if err != nil {
		return err
	}
	a.mongoClient = mongoClient

	if a.Config.Database.RunMigrations {
		if a.db != nil {
			if err := migrations.RunPostgres(a.db); err != nil {
				return fmt.Errorf("failed to run postgres migrations: %w", err)
			}
		}
		if a.mongoClient != nil {
			mongoDB := a.mongoClient.Database(a.Config.Database.MongoDB.Database)
			if err := migrations.EnsureUserDirectoryCollection(ctx, mongoDB); err != nil {
				return fmt.Errorf("failed to ensure mongodb collections: %w", err)
			}
		}
	}

	return nil
}

func (a *App) initDeriver(ctx context.Context) error {
	catalog := i18n.NewCatalog()

	progressRegistry := a.buildProgressRegistry()
	nameResolver := a.buildNameResolver()

	callingProvider := calling.NewProvider(
		a.Config.Calling.Appearance,
		a.Config.Pipeline.SelfUserID,
		catalog,
		a.Logger,
	)

	a.deriver = pipeline.NewDeriver(pipeline.Config{
		Catalog:  catalog,
		Registry: registry.New(),
		Revoke:   revoke.NewHandler(a.Config.Revoke.ReEditWindow, catalog),
		Calling:  calling.NewAdapter(callingProvider, catalog),
		Business: business.NewResolver(a.Logger),
		Names:    nameResolver,
		Enricher: enrich.NewEnricher(progressRegistry, a.Logger),
		Logger:   a.Logger,
	})
	return nil
}

func (a *App) buildProgressRegistry() progress.Registry {
	if a.redisClient == nil {
		return progress.NewMemoryRegistry()
	}
	ttl := time.Duration(a.Config.Progress.TTLSeconds) * time.Second
	return progress.NewRedisRegistry(a.redisClient, ttl, a.Logger)
}

func (a *App) buildNameResolver() *names.Resolver {
	var directory namesprovider.Directory

	switch a.Config.Names.Provider {
	case constants.NamesProviderMongoDB:
		if a.mongoClient != nil {
			mongoDB := a.mongoClient.Database(a.Config.Database.MongoDB.Database)
			directory = namesprovider.NewMongoDirectory(mongoDB)
		}
	default:
		if a.db != nil {
			directory = namesprovider.NewPostgresDirectory(a.db)
		}
	}

	if directory == nil {
		return nil
	}

	if a.Config.CircuitBreaker.Enabled {
		directory = namesprovider.NewCircuitBreakerDirectory(
			directory,
			circuitbreaker.DefaultConfig("names-directory"),
		)
	}

	if a.redisClient != nil {
		ttl := time.Duration(a.Config.Names.CacheTTLSeconds) * time.Second
		directory = namesprovider.NewCacheDirectory(a.redisClient, directory, ttl, a.Logger)
	}

	return names.NewResolver(directory, a.Config.Names.LookupTimeout, a.Logger)
}

func (a *App) initSuppression(ctx context.Context) error {
	if a.db == nil {
		return nil
	}

	repo := filter.NewRepository(a.db)
	svc, err := filter.NewService(repo, a.Config.Suppression, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create suppression service: %w", err)
	}

	if err := svc.ReloadRules(ctx, true); err != nil {
		initCtx := logging.WithServiceName(ctx, "classify-service")
		a.Logger.WarnwCtx(initCtx, "Failed to load initial suppression rules",
			"error", err,
		)
	}

	a.suppression = svc
	return nil
}

func (a *App) initHTTPServer(ctx context.Context) error {
	mux := http.NewServeMux()

	healthRegistry := health.NewCheckerRegistry()
	if a.db != nil {
		healthRegistry.Register(health.NewPostgreSQLChecker(a.db))
	}
	if a.redisClient != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redisClient))
	}
	if a.mongoClient != nil {
		healthRegistry.Register(health.NewMongoDBChecker(a.mongoClient))
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		h := healthRegistry.Check(r.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		fmt.Fprintf(w, `{"status":"%s","timestamp":"%s"}`, h.Status, h.Timestamp.Format(time.RFC3339))
	})

	mux.Handle("/metrics", promhttp.Handler())

	a.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler: mux,
	}

	return nil
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	if a.server != nil {
		g.Go(func() error {
			a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
			if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})
	}

	if a.suppression != nil {
		g.Go(func() error {
			return a.suppression.StartReloader(gCtx)
		})
	}

	inputTopic := a.Config.Broker.Kafka.InputTopic
	if inputTopic == "" {
		inputTopic = constants.DefaultInputTopic
	}
	g.Go(func() error {
		return a.Consumer.Consume(gCtx, inputTopic, a.handleMessage)
	})

	return g.Wait()
}

func (a *App) handleMessage(ctx context.Context, msg models.MessageEnvelope) error {
	ctx, span := tracing.GetTracer("classify-service").Start(ctx, "classify.handle")
	defer span.End()

	start := time.Now()

	if a.suppression != nil {
		suppressed, _, err := a.suppression.ShouldSuppress(ctx, msg)
		if err != nil {
			a.Logger.ErrorwCtx(ctx, "Suppression evaluation error",
				"error", err,
			)
			return err
		}
		if suppressed {
			metrics.ClassifyMessagesTotal.WithLabelValues("suppressed_by_rule").Inc()
			a.Logger.InfowCtx(ctx, "Message dropped by suppression rule")
			return nil
		}
	}

	record := a.deriver.Derive(ctx, &msg)

	outputTopic := a.Config.Broker.Kafka.OutputTopic
	if outputTopic == "" {
		outputTopic = constants.DefaultOutputTopic
	}

	if err := a.Producer.Publish(ctx, outputTopic, record.MsgID, record); err != nil {
		metrics.ClassifyMessagesTotal.WithLabelValues("publish_error").Inc()
		a.Logger.ErrorwCtx(ctx, "Failed to publish derived cell",
			"error", err,
			"output_topic", outputTopic,
		)
		return err
	}

	status := "classified"
	if record.Suppressed {
		status = "suppressed"
	}
	metrics.ClassifyMessagesTotal.WithLabelValues(status).Inc()
	metrics.ObserveClassifyDuration(time.Since(start), status)

	a.Logger.InfowCtx(ctx, "Message classified",
		"kind", record.Kind,
		"suppressed", record.Suppressed,
	)
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx := logging.WithServiceName(ctx, "classify-service")
	a.Logger.InfowCtx(shutdownCtx, "Shutting down classify service")

	additionalShutdown := func(ctx context.Context) []error {
		var errs []error

		if a.server != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()
			if err := a.server.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("HTTP server shutdown error: %w", err))
			}
		}

		if a.tracerProvider != nil {
			if err := a.tracerProvider.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
			}
		}

		errs = append(errs, a.dbConnector.ShutdownDatabases(ctx, a.redisClient, a.db, a.mongoClient)...)

		return errs
	}

	return a.Base.Shutdown(ctx, additionalShutdown)
}
