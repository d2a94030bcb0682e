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
	"chatpipe/internal/i18n"
	"chatpipe/internal/logger"
	"chatpipe/internal/names"
	namesprovider "chatpipe/internal/names/provider"
	"chatpipe/internal/pipeline"
	"chatpipe/internal/revoke"
	"chatpipe/pkg/bootstrap"
	"chatpipe/pkg/circuitbreaker"
	"chatpipe/pkg/health"
	"chatpipe/pkg/logging"
	"chatpipe/pkg/metrics"
	"chatpipe/pkg/models"
	"chatpipe/pkg/tracing"
)

// App consumes inbound envelopes and fans conversation-list previews out
// to the preview topic. It runs the same rule chain as the classify
// service but only the display surface of it.
type App struct {
	*bootstrap.Base
	dbConnector *bootstrap.DatabaseConnector

	db          *sql.DB
	redisClient *redis.Client
	mongoClient *mongo.Client

	deriver        *pipeline.Deriver
	tracerProvider *tracing.TracerProvider
	server         *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName("preview-service")
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

	a.initDeriver()

	if err := a.InitBroker("preview-service"); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	tp, err := tracing.Init(a.Config.Tracing, "preview-service")
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	metrics.RegisterPreviewMetrics()
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

	return nil
}

func (a *App) initDeriver() {
	catalog := i18n.NewCatalog()

	callingProvider := calling.NewProvider(
		a.Config.Calling.Appearance,
		a.Config.Pipeline.SelfUserID,
		catalog,
		a.Logger,
	)

	a.deriver = pipeline.NewDeriver(pipeline.Config{
		Catalog:  catalog,
		Revoke:   revoke.NewHandler(a.Config.Revoke.ReEditWindow, catalog),
		Calling:  calling.NewAdapter(callingProvider, catalog),
		Business: business.NewResolver(a.Logger),
		Names:    a.buildNameResolver(),
		Logger:   a.Logger,
	})
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
	ctx, span := tracing.GetTracer("preview-service").Start(ctx, "preview.handle")
	defer span.End()

	start := time.Now()

	preview, ok := a.deriver.ResolveDisplayString(ctx, &msg)
	if !ok {
		metrics.PreviewMessagesTotal.WithLabelValues("omitted").Inc()
		a.Logger.DebugwCtx(ctx, "Message omitted from previews")
		return nil
	}

	record := models.PreviewRecord{
		MsgID:          msg.MsgID,
		ConversationID: msg.ConversationID(),
		Preview:        preview,
		DerivedAt:      time.Now().UTC(),
		TraceID:        msg.Metadata.TraceID,
	}

	previewTopic := a.Config.Broker.Kafka.PreviewTopic
	if previewTopic == "" {
		previewTopic = constants.DefaultPreviewTopic
	}

	if err := a.Producer.Publish(ctx, previewTopic, record.MsgID, record); err != nil {
		metrics.PreviewMessagesTotal.WithLabelValues("publish_error").Inc()
		a.Logger.ErrorwCtx(ctx, "Failed to publish preview",
			"error", err,
			"preview_topic", previewTopic,
		)
		return err
	}

	metrics.PreviewMessagesTotal.WithLabelValues("previewed").Inc()
	metrics.ObservePreviewDuration(time.Since(start), "previewed")
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx := logging.WithServiceName(ctx, "preview-service")
	a.Logger.InfowCtx(shutdownCtx, "Shutting down preview service")

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
