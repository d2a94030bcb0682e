package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/lib/pq" // PostgreSQL driver

	"chatpipe/internal/api"
	"chatpipe/internal/business"
	"chatpipe/internal/calling"
	"chatpipe/internal/config"
	"chatpipe/internal/constants"
	"chatpipe/internal/enrich"
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
	"chatpipe/pkg/metrics"
	"chatpipe/pkg/middleware"
	"chatpipe/pkg/migrations"
	"chatpipe/pkg/ratelimit"
	"chatpipe/pkg/tracing"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type App struct {
	config      *config.Config
	logger      logger.Logger
	dbConnector *bootstrap.DatabaseConnector

	db          *sql.DB
	redisClient *redis.Client
	mongoClient *mongo.Client

	server         *http.Server
	router         *gin.Engine
	tracerProvider *tracing.TracerProvider
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName("chatpipe-api")
	}
	return &App{
		config:      cfg,
		logger:      log,
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.initDatabases(ctx); err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := a.initRouter(); err != nil {
		return fmt.Errorf("failed to initialize router: %w", err)
	}

	if err := a.initServer(); err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	tp, err := tracing.Init(a.config.Tracing, "chatpipe-api")
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	return nil
}

func (a *App) initDatabases(ctx context.Context) error {
	if a.config.Database.Redis.Host != "" {
		rdb, err := a.dbConnector.InitRedis(ctx)
		if err != nil {
			a.logger.WarnwCtx(ctx, "Redis connection failed, continuing without cache", "error", err)
		} else {
			a.redisClient = rdb
		}
	}

	db, err := a.dbConnector.InitPostgreSQL(ctx)
	if err != nil {
		return err
	}
	a.db = db

	mongoClient, err := a.dbConnector.InitMongoDB(ctx)
	if err != nil {
		a.logger.WarnwCtx(ctx, "MongoDB connection failed, continuing without MongoDB", "error", err)
	} else {
		a.mongoClient = mongoClient
	}

	if a.config.Database.RunMigrations && a.db != nil {
		if err := migrations.RunPostgres(a.db); err != nil {
			return fmt.Errorf("failed to run postgres migrations: %w", err)
		}
	}

	return nil
}

func (a *App) initRouter() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if a.config.Tracing.Enabled {
		router.Use(tracing.GinMiddleware("chatpipe-api"))
	}

	router.Use(middleware.RecoveryMiddleware(a.logger))
	router.Use(middleware.LoggerMiddleware(a.logger))
	router.Use(middleware.RequestIDMiddleware())

	if a.config.RateLimit.Enabled {
		rateLimitConfig := ratelimit.RateLimitConfig{
			RPS:             a.config.RateLimit.RPS,
			Burst:           a.config.RateLimit.Burst,
			CleanupInterval: time.Duration(a.config.RateLimit.CleanupInterval) * time.Second,
			MaxAge:          time.Duration(a.config.RateLimit.MaxAge) * time.Second,
		}
		router.Use(ratelimit.RateLimitMiddleware(rateLimitConfig))
		a.logger.InfowCtx(context.Background(), "Rate limiting enabled", "rps", rateLimitConfig.RPS, "burst", rateLimitConfig.Burst)
	}

	var repo api.Repository
	if a.db != nil {
		repo = api.NewRepository(a.db)
	}
	nameResolver := a.buildNameResolver()
	svc := api.NewService(repo, a.buildDeriver(nameResolver), nameResolver)

	handler := api.NewHandler(svc, a.logger)
	handler.RegisterRoutes(router)

	metrics.RegisterAPIMetrics()
	metrics.RegisterClassifyMetrics()
	metrics.RegisterNamesMetrics()
	if a.config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

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

	router.GET("/health", func(c *gin.Context) {
		h := healthRegistry.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, h)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	a.router = router
	return nil
}

func (a *App) buildDeriver(nameResolver *names.Resolver) *pipeline.Deriver {
	catalog := i18n.NewCatalog()

	var progressRegistry progress.Registry
	if a.redisClient != nil {
		ttl := time.Duration(a.config.Progress.TTLSeconds) * time.Second
		progressRegistry = progress.NewRedisRegistry(a.redisClient, ttl, a.logger)
	} else {
		progressRegistry = progress.NewMemoryRegistry()
	}

	callingProvider := calling.NewProvider(
		a.config.Calling.Appearance,
		a.config.Pipeline.SelfUserID,
		catalog,
		a.logger,
	)

	return pipeline.NewDeriver(pipeline.Config{
		Catalog:  catalog,
		Registry: registry.New(),
		Revoke:   revoke.NewHandler(a.config.Revoke.ReEditWindow, catalog),
		Calling:  calling.NewAdapter(callingProvider, catalog),
		Business: business.NewResolver(a.logger),
		Names:    nameResolver,
		Enricher: enrich.NewEnricher(progressRegistry, a.logger),
		Logger:   a.logger,
	})
}

func (a *App) buildNameResolver() *names.Resolver {
	var directory namesprovider.Directory

	switch a.config.Names.Provider {
	case constants.NamesProviderMongoDB:
		if a.mongoClient != nil {
			mongoDB := a.mongoClient.Database(a.config.Database.MongoDB.Database)
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

	if a.config.CircuitBreaker.Enabled {
		directory = namesprovider.NewCircuitBreakerDirectory(
			directory,
			circuitbreaker.DefaultConfig("names-directory"),
		)
	}

	if a.redisClient != nil {
		ttl := time.Duration(a.config.Names.CacheTTLSeconds) * time.Second
		directory = namesprovider.NewCacheDirectory(a.redisClient, directory, ttl, a.logger)
	}

	return names.NewResolver(directory, a.config.Names.LookupTimeout, a.logger)
}

func (a *App) initServer() error {
	a.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Server.Port),
		Handler: a.router,
	}
	return nil
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		a.logger.InfowCtx(ctx, "Server listening", "port", a.config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return a.Shutdown(ctx)
	case err := <-errChan:
		return err
	}
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.InfowCtx(ctx, "Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
		}
	}

	dbErrs := a.dbConnector.ShutdownDatabases(ctx, a.redisClient, a.db, a.mongoClient)
	errs = append(errs, dbErrs...)

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	a.logger.InfowCtx(ctx, "Server exited successfully")
	return nil
}
