package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/erp/receipt/docs"
	printingapp "github.com/erp/receipt/internal/application/printing"
	"github.com/erp/receipt/internal/domain/receipt"
	"github.com/erp/receipt/internal/infrastructure/auth"
	"github.com/erp/receipt/internal/infrastructure/cache"
	"github.com/erp/receipt/internal/infrastructure/config"
	"github.com/erp/receipt/internal/infrastructure/event"
	"github.com/erp/receipt/internal/infrastructure/logger"
	"github.com/erp/receipt/internal/infrastructure/persistence"
	infra "github.com/erp/receipt/internal/infrastructure/printing"
	"github.com/erp/receipt/internal/infrastructure/storage"
	"github.com/erp/receipt/internal/infrastructure/surface"
	"github.com/erp/receipt/internal/infrastructure/telemetry"
	"github.com/erp/receipt/internal/interfaces/http/handler"
	"github.com/erp/receipt/internal/interfaces/http/middleware"
	"github.com/erp/receipt/internal/interfaces/http/router"
)

const version = "1.0.0"

var (
	_ printingapp.DispatchRecorder = (*telemetry.PrintMetrics)(nil)
	_ printingapp.JobRecorder      = (*telemetry.PrintMetrics)(nil)
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Telemetry: traces, metrics, logs and profiles
	tel := setupTelemetry(ctx, cfg, log)
	defer tel.shutdown(log)
	log = tel.logger

	log.Info("Starting receipt print service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.Bool("jwt", cfg.JWT.Enabled),
	)

	// Database with zap backed GORM logger and metrics plugin
	dbMetrics, err := telemetry.NewDBMetrics(tel.meter, telemetry.DBMetricsConfig{
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err != nil {
		log.Fatal("Failed to create database metrics", zap.Error(err))
	}
	defer dbMetrics.Stop()

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithGormLogger(gormLog),
		persistence.WithPlugins(telemetry.NewDBMetricsPlugin(dbMetrics)),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully", zap.String("driver", db.Driver))

	if cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        dbSystem(db.Driver),
		}, log)
		if err := dbTracing.Register(db.DB); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		dbMetrics.StartPoolStatsCollection(ctx, sqlDB)
	}

	// Repositories
	jobRepo := persistence.NewGormPrintJobRepository(db.DB)
	reprintRepo := persistence.NewGormReprintRepository(db.DB)

	// Redis backs the idempotency store and the token blacklist when enabled
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			_ = redisClient.Close()
		}()
	}

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// Rendering and document storage
	renderer, err := infra.NewChromedpRenderer(&infra.ChromedpConfig{
		DefaultTimeout: cfg.Printing.RenderTimeout,
		RemoteURL:      cfg.Printing.ChromeRemoteURL,
		ExecPath:       cfg.Printing.ChromeExecPath,
		NoSandbox:      cfg.Printing.ChromeNoSandbox,
		Logger:         log.Named("chromedp"),
	})
	if err != nil {
		log.Fatal("Failed to create PDF renderer", zap.Error(err))
	}
	defer func() {
		_ = renderer.Close()
	}()

	docStorage, err := newDocumentStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to create document storage", zap.Error(err))
	}

	printMetrics, err := telemetry.NewPrintMetrics(tel.meter, log)
	if err != nil {
		log.Fatal("Failed to create print metrics", zap.Error(err))
	}

	eventBus := event.NewBus(log.Named("events"))
	eventBus.Subscribe(event.NewJobLogHandler(log.Named("jobs")))

	serviceOpts := []printingapp.ServiceOption{
		printingapp.WithIdempotencyStore(idempotencyStore),
		printingapp.WithJobRecorder(printMetrics),
		printingapp.WithEventPublisher(eventBus),
	}
	if cfg.Printing.ReprintLogPath != "" {
		auditLog, closeAudit, err := logger.NewAuditLogger(cfg.Printing.ReprintLogPath)
		if err != nil {
			log.Fatal("Failed to open reprint log", zap.Error(err))
		}
		defer func() {
			_ = closeAudit()
		}()
		serviceOpts = append(serviceOpts, printingapp.WithAuditLog(auditLog))
	}

	printService := printingapp.NewPrintService(
		jobRepo, reprintRepo, renderer, docStorage,
		serviceConfig(cfg), log.Named("print"), serviceOpts...,
	)
	receiptService := printingapp.NewReceiptService(
		infra.NewComposer(),
		infra.NewMarotoReceiptRenderer(log.Named("maroto")),
		surface.NewLogNotifier(log),
		log.Named("receipt"),
		printingapp.WithDefaultCompany(cfg.Printing.Company.Company()),
	)

	go printService.RunRetention(ctx, cfg.Printing.RetentionInterval)

	// HTTP engine
	middleware.SetupValidator()
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Failed to set trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
		SkipPaths:   []string{"/health", cfg.Metrics.Path},
	}))
	engine.Use(logger.GinMiddleware(log, "/health", cfg.Metrics.Path))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  cfg.HTTP.CORSAllowOrigins,
		AllowMethods:  cfg.HTTP.CORSAllowMethods,
		AllowHeaders:  cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders: []string{middleware.RequestIDHeader, "Idempotent-Replayed"},
		MaxAge:        12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: tel.meterProvider,
		Enabled:       cfg.Telemetry.MetricsEnabled,
	}))
	engine.Use(middleware.ProfilingWithConfig(middleware.ProfilingConfig{
		Enabled:   cfg.Profiling.Enabled,
		SkipPaths: []string{"/health", cfg.Metrics.Path},
	}))
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
		engine.Use(middleware.RateLimit(limiter))
	}
	if cfg.Metrics.Enabled {
		prom := middleware.NewPrometheusMetrics("receipt")
		engine.Use(prom.Middleware("/health", cfg.Metrics.Path))
		engine.GET(cfg.Metrics.Path, prom.Handler())
	}
	engine.Use(middleware.SpanErrorMarker())

	// Terminal authentication
	authMiddleware := func(c *gin.Context) { c.Next() }
	var authHandler *handler.AuthHandler
	if cfg.JWT.Enabled {
		terminals, err := auth.NewTerminalAuthenticator(cfg.Terminals)
		if err != nil {
			log.Fatal("Invalid terminal configuration", zap.Error(err))
		}
		jwtService := auth.NewJWTService(cfg.JWT)

		var blacklist auth.TokenBlacklist
		if redisClient != nil {
			blacklist = auth.NewRedisTokenBlacklist(redisClient)
		} else {
			blacklist = auth.NewInMemoryTokenBlacklist()
		}

		jwtConfig := middleware.DefaultJWTConfig(jwtService)
		jwtConfig.TokenBlacklist = blacklist
		jwtConfig.Logger = log
		authMiddleware = middleware.JWTAuthMiddlewareWithConfig(jwtConfig)
		authHandler = handler.NewAuthHandler(terminals, jwtService, blacklist, log)
		log.Info("Terminal authentication enabled", zap.Int("terminals", len(cfg.Terminals)))
	}

	// Handlers and routes
	printHandler := handler.NewPrintHandler(printService, log)
	receiptHandler := handler.NewReceiptHandler(receiptService, log)
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version).
		AddCheck("database", func(context.Context) error { return db.Ping() })
	if redisClient != nil {
		systemHandler.AddCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.PrintRoutes(printHandler, authMiddleware)).
		Register(handler.PrinterRoutes(printHandler, authMiddleware)).
		Register(handler.ReceiptRoutes(receiptHandler, authMiddleware)).
		Register(handler.SystemRoutes(systemHandler)).
		RegisterRoot(handler.LegacyPrintRoutes(printHandler, authMiddleware))
	if authHandler != nil {
		r.Register(handler.AuthRoutes(authHandler, authMiddleware))
	}
	r.Setup()

	engine.GET("/health", systemHandler.Health)
	engine.GET("/api/v1/health", systemHandler.Health)

	// API documentation, answering 404 unless swagger.enabled is set
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, authMiddleware),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)
	if cfg.Swagger.Enabled {
		log.Info("API documentation enabled",
			zap.Bool("require_auth", cfg.Swagger.RequireAuth),
			zap.Strings("allowed_ips", cfg.Swagger.AllowedIPs),
		)
	}

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if closer, ok := idempotencyStore.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	log.Info("Server exited gracefully")
}

// serviceConfig maps the printing section onto the print service settings
func serviceConfig(cfg *config.Config) printingapp.ServiceConfig {
	sc := printingapp.DefaultServiceConfig()
	sc.Defaults = cfg.Printing.Defaults
	sc.DefaultPrinterID = cfg.Printing.DefaultPrinterID
	if len(cfg.Printing.Printers) > 0 {
		sc.Printers = make([]printingapp.Printer, 0, len(cfg.Printing.Printers))
		for _, p := range cfg.Printing.Printers {
			sc.Printers = append(sc.Printers, printingapp.Printer{
				ID:    p.ID,
				Name:  p.Name,
				Paper: receipt.PaperSize(p.Paper),
			})
		}
	}
	if cfg.Printing.TempDir != "" {
		sc.TempDir = cfg.Printing.TempDir
	}
	if cfg.Printing.CleanupDelay > 0 {
		sc.CleanupDelay = cfg.Printing.CleanupDelay
	}
	if cfg.Printing.MarginMM > 0 {
		sc.MarginMM = cfg.Printing.MarginMM
	}
	sc.RenderTimeout = cfg.Printing.RenderTimeout
	sc.Retention = cfg.Printing.Retention()
	if cfg.Printing.IdempotencyTTL > 0 {
		sc.Idempotency.TTL = cfg.Printing.IdempotencyTTL
	}
	return sc
}

func newDocumentStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (infra.DocumentStorage, error) {
	if cfg.Storage.Type == "s3" {
		s3Storage, err := storage.NewS3DocumentStorage(&cfg.Storage,
			storage.WithLogger(log.Named("s3")),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
		)
		if err != nil {
			return nil, err
		}
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		log.Info("Using S3 document storage", zap.String("bucket", s3Storage.GetBucket()))
		return s3Storage, nil
	}
	log.Info("Using filesystem document storage", zap.String("path", cfg.Storage.BasePath))
	return infra.NewFileSystemStorage(&infra.FileSystemStorageConfig{
		BasePath: cfg.Storage.BasePath,
		BaseURL:  cfg.Storage.BaseURL,
		Logger:   log.Named("storage"),
	})
}

func dbSystem(driver string) string {
	if driver == "sqlite" {
		return "sqlite"
	}
	return "postgresql"
}

// telemetryStack owns the OpenTelemetry providers and the profiler
type telemetryStack struct {
	tracer        *telemetry.TracerProvider
	meterProvider *telemetry.MeterProvider
	meter         metric.Meter
	logs          *telemetry.LoggerProvider
	profiler      *telemetry.Profiler
	logger        *zap.Logger
}

func setupTelemetry(ctx context.Context, cfg *config.Config, log *zap.Logger) *telemetryStack {
	t := &telemetryStack{logger: log}
	serviceName := cfg.Telemetry.ServiceName

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to create tracer provider", zap.Error(err))
	}
	t.tracer = tp

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to create meter provider", zap.Error(err))
	}
	t.meterProvider = mp
	t.meter = mp.Meter(telemetry.TracerName)

	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to create logger provider", zap.Error(err))
	}
	t.logs = lp
	if lp.IsEnabled() {
		level, err := zapcore.ParseLevel(cfg.Log.Level)
		if err != nil {
			level = zapcore.InfoLevel
		}
		t.logger = telemetry.Bridge(log, lp, serviceName, level)
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   serviceName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	t.profiler = profiler
	if profiler.IsEnabled() && tp.IsEnabled() {
		if err := tp.EnableSpanProfiles(); err != nil {
			log.Warn("Span profiles unavailable", zap.Error(err))
		}
	}
	return t
}

func (t *telemetryStack) shutdown(log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := t.profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := t.logs.Shutdown(ctx); err != nil {
		log.Error("Error shutting down logger provider", zap.Error(err))
	}
	if err := t.meterProvider.Shutdown(ctx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := t.tracer.Shutdown(ctx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
}
