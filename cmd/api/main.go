// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/Bruizy/lego-flip-tracker/internal/adapters/catalog"
	"github.com/Bruizy/lego-flip-tracker/internal/adapters/db"
	redis_a "github.com/Bruizy/lego-flip-tracker/internal/adapters/redis_adapter"
	"github.com/Bruizy/lego-flip-tracker/internal/adapters/storage"
	"github.com/Bruizy/lego-flip-tracker/internal/core/ports"
	"github.com/Bruizy/lego-flip-tracker/internal/core/services"
	"github.com/Bruizy/lego-flip-tracker/internal/handlers"
	"github.com/Bruizy/lego-flip-tracker/internal/handlers/middleware"
	"github.com/Bruizy/lego-flip-tracker/internal/pkg/config"
	"github.com/Bruizy/lego-flip-tracker/internal/pkg/logger"
	"github.com/Bruizy/lego-flip-tracker/internal/workers"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	slogger := logger.SetupLogger("debug", "json")

	slogger.Info("starting lego flip tracker API",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
	)

	cfg, err := config.Load(slogger.Logger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
	)

	ctx := context.Background()

	deps, err := initializeDependencies(ctx, cfg, slogger.Logger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.Any("error", err))
		os.Exit(1)
	}
	defer deps.cleanup()

	if !cfg.IsProduction() {
		if err := runMigrations(ctx, cfg, slogger.Logger); err != nil {
			slogger.Error("failed to run migrations", slog.Any("error", err))
		}
	}

	server := setupHTTPServer(cfg, deps, slogger)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server", slog.String("address", cfg.GetServerAddress()))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.Any("error", err))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.Any("error", err))
			server.Close()
		}

		slogger.Info("server shutdown complete")
	}
}

// dependencies holds the wired application graph.
type dependencies struct {
	database    *db.Database
	redisClient *redis.Client
	cache       ports.CacheRepository
	asynqClient *asynq.Client

	inventoryService *services.InventoryService
	expenseService   *services.ExpenseService
	analyticsService *services.AnalyticsService

	inventoryHandler *handlers.InventoryHandler
	salesHandler     *handlers.SalesHandler
	expensesHandler  *handlers.ExpensesHandler
	statsHandler     *handlers.StatsHandler
	importHandler    *handlers.ImportHandler
	exportHandler    *handlers.ExportHandler
	photosHandler    *handlers.PhotosHandler
	catalogHandler   *handlers.CatalogHandler
	healthHandler    *handlers.HealthHandler
}

func (d *dependencies) cleanup() {
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.database != nil {
		d.database.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, slogger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	slogger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}, slogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.database = database

	slogger.Info("connecting to Redis", slog.String("address", cfg.GetRedisAddress()))

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddress(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		PoolTimeout:  cfg.Redis.PoolTimeout,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	deps.redisClient = redisClient
	deps.cache = redis_a.NewCache(redisClient, cfg.Redis.TTL, slogger)

	deps.asynqClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	})

	inventoryRepo := db.NewInventoryRepository(database, slogger)
	saleRepo := db.NewSaleRepository(database, slogger)
	expenseRepo := db.NewExpenseRepository(database, slogger)

	deps.inventoryService = services.NewInventoryService(inventoryRepo, saleRepo, deps.cache, slogger)
	deps.expenseService = services.NewExpenseService(expenseRepo, deps.cache, slogger)
	deps.analyticsService = services.NewAnalyticsService(
		inventoryRepo, saleRepo, expenseRepo, deps.cache, cfg.Analytics.ReportTTL, slogger)

	importer := workers.NewImporter(deps.inventoryService, deps.expenseService, slogger)

	deps.inventoryHandler = handlers.NewInventoryHandler(deps.inventoryService, slogger)
	deps.salesHandler = handlers.NewSalesHandler(deps.inventoryService, slogger)
	deps.expensesHandler = handlers.NewExpensesHandler(deps.expenseService, slogger)
	deps.statsHandler = handlers.NewStatsHandler(deps.analyticsService, deps.inventoryService, slogger)
	deps.importHandler = handlers.NewImportHandler(importer, deps.asynqClient, deps.cache, cfg.FileProcessing, slogger)
	deps.exportHandler = handlers.NewExportHandler(deps.analyticsService, deps.asynqClient, deps.cache, slogger)
	deps.healthHandler = handlers.NewHealthHandler(database, deps.cache, cfg.App.Version, slogger)

	if cfg.AWS.S3Bucket != "" {
		photoStore, err := storage.NewS3PhotoStore(ctx, &storage.S3Config{
			Region:          cfg.AWS.Region,
			Bucket:          cfg.AWS.S3Bucket,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Endpoint:        cfg.AWS.S3Endpoint,
			UsePathStyle:    cfg.AWS.UsePathStyle,
		}, slogger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize photo store: %w", err)
		}
		deps.photosHandler = handlers.NewPhotosHandler(photoStore, deps.inventoryService, slogger)
	}

	if cfg.Catalog.Enabled {
		catalogClient := catalog.NewClient(&catalog.Config{
			BaseURL:  cfg.Catalog.BaseURL,
			APIKey:   cfg.Catalog.APIKey,
			Timeout:  cfg.Catalog.Timeout,
			CacheTTL: cfg.Catalog.CacheTTL,
		}, deps.cache, slogger)
		deps.catalogHandler = handlers.NewCatalogHandler(catalogClient, slogger)
	}

	slogger.Info("all dependencies initialized successfully")
	return deps, nil
}

func setupHTTPServer(cfg *config.Config, deps *dependencies, l *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	registerRoutes(mux, deps)

	var handler http.Handler = mux

	// Innermost first: the outermost middleware runs first per request.
	if cfg.Security.RateLimitRequests > 0 {
		handler = middleware.RateLimit(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration)(handler)
	}
	if len(cfg.Security.AllowedOrigins) > 0 {
		handler = middleware.CORS(cfg.Security.AllowedOrigins)(handler)
	}
	if cfg.Security.SecureHeaders {
		handler = middleware.SecureHeaders(handler)
	}
	handler = middleware.Compression(handler)
	handler = middleware.Recovery(l.Logger)(handler)
	handler = middleware.Logger(l)(handler)
	handler = middleware.RequestID(handler)

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        handler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(l.Handler(), slog.LevelError),
	}
}

func registerRoutes(mux *http.ServeMux, deps *dependencies) {
	apiV1 := "/api/v1"

	mux.HandleFunc("GET /health", deps.healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", deps.healthHandler.Readiness)

	// Inventory
	mux.HandleFunc("GET "+apiV1+"/items", deps.inventoryHandler.ListItems)
	mux.HandleFunc("POST "+apiV1+"/items", deps.inventoryHandler.CreateItem)
	mux.HandleFunc("GET "+apiV1+"/items/{id}", deps.inventoryHandler.GetItem)
	mux.HandleFunc("PUT "+apiV1+"/items/{id}", deps.inventoryHandler.UpdateItem)
	mux.HandleFunc("DELETE "+apiV1+"/items/{id}", deps.inventoryHandler.DeleteItem)
	mux.HandleFunc("POST "+apiV1+"/items/{id}/trade", deps.inventoryHandler.MarkTraded)
	mux.HandleFunc("GET "+apiV1+"/batches", deps.inventoryHandler.ListBatches)

	// Sales
	mux.HandleFunc("POST "+apiV1+"/items/{id}/sale", deps.salesHandler.RecordSale)
	mux.HandleFunc("GET "+apiV1+"/items/{id}/sale", deps.salesHandler.GetSale)
	mux.HandleFunc("PUT "+apiV1+"/sales/{id}", deps.salesHandler.UpdateSale)
	mux.HandleFunc("DELETE "+apiV1+"/sales/{id}", deps.salesHandler.DeleteSale)

	// Expenses
	mux.HandleFunc("GET "+apiV1+"/expenses", deps.expensesHandler.ListExpenses)
	mux.HandleFunc("POST "+apiV1+"/expenses", deps.expensesHandler.CreateExpense)
	mux.HandleFunc("GET "+apiV1+"/expenses/{id}", deps.expensesHandler.GetExpense)
	mux.HandleFunc("PUT "+apiV1+"/expenses/{id}", deps.expensesHandler.UpdateExpense)
	mux.HandleFunc("DELETE "+apiV1+"/expenses/{id}", deps.expensesHandler.DeleteExpense)

	// Stats
	mux.HandleFunc("GET "+apiV1+"/stats", deps.statsHandler.GetStats)
	mux.HandleFunc("GET "+apiV1+"/stats/filters", deps.statsHandler.GetFilters)

	// Import
	mux.HandleFunc("POST "+apiV1+"/import/{kind}", deps.importHandler.ImportCSV)
	mux.HandleFunc("GET "+apiV1+"/import/jobs/{id}", deps.importHandler.GetJobStatus)

	// Export
	mux.HandleFunc("GET "+apiV1+"/export/xlsx", deps.exportHandler.ExportXLSX)
	mux.HandleFunc("GET "+apiV1+"/export/json", deps.exportHandler.ExportJSON)
	mux.HandleFunc("POST "+apiV1+"/export/report", deps.exportHandler.QueueReport)
	mux.HandleFunc("GET "+apiV1+"/export/report/{id}", deps.exportHandler.DownloadReport)

	// Photos (only when S3 is configured)
	if deps.photosHandler != nil {
		mux.HandleFunc("POST "+apiV1+"/items/{id}/photos", deps.photosHandler.UploadPhoto)
		mux.HandleFunc("GET "+apiV1+"/items/{id}/photos", deps.photosHandler.ListPhotos)
		mux.HandleFunc("DELETE "+apiV1+"/items/{id}/photos", deps.photosHandler.DeletePhotos)
	}

	// Catalog proxy (only when enabled)
	if deps.catalogHandler != nil {
		mux.HandleFunc("GET "+apiV1+"/catalog/sets/{setNumber}", deps.catalogHandler.LookupSet)
	}
}

func runMigrations(ctx context.Context, cfg *config.Config, slogger *slog.Logger) error {
	slogger.Info("running database migrations")

	migrationConfig := &db.MigrationConfig{
		DatabaseURL: cfg.GetDatabaseURL(),
		SourcePath:  cfg.Database.MigrationPath,
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}

	return db.RunMigrationsWithRetry(ctx, migrationConfig, slogger, 3)
}
