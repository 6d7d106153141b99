package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "saas-tenancy/docs"
	"saas-tenancy/internal/api"
	"saas-tenancy/internal/auth"
	"saas-tenancy/internal/catalog"
	"saas-tenancy/internal/config"
	"saas-tenancy/internal/logger"
	"saas-tenancy/internal/manager"
	"saas-tenancy/internal/messaging"
	"saas-tenancy/internal/metrics"
	"saas-tenancy/internal/storage"
	"saas-tenancy/internal/store"
	"saas-tenancy/internal/tenancy"
	"saas-tenancy/internal/worker"
)

// @title SaaS Tenancy API
// @version 1.0
// @description Tenant-scoped product catalog with per-request tenant resolution
// @host localhost:8080
// @BasePath /
// @schemes http

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// Init Metrics
	metrics.Init()

	// Load Configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.Log.Level, cfg.Log.Format, "saas-tenancy")
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer lg.Sync()
	lg.Info("configuration loaded", zap.String("driver", cfg.Database.Driver))

	// Setup JWT Secret
	auth.SetSecret(cfg.Auth.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage engines
	var (
		shared store.Engine
		open   store.OpenFunc
	)
	switch cfg.Database.Driver {
	case config.DriverMemory:
		shared = store.NewMemoryEngine().Unique(store.TenantsCollection, "identifier")
		open = func(string) (store.Engine, error) { return store.NewMemoryEngine(), nil }
		lg.Warn("using in-memory storage; data is lost on restart")
	default:
		db, err := storage.NewStorage(cfg.Database.URL, lg)
		if err != nil {
			lg.Fatal("failed to init DB", zap.Error(err))
		}
		defer db.Close()
		if cfg.Database.Migrate {
			if err := storage.Migrate(ctx, db.DB, lg); err != nil {
				lg.Fatal("failed to migrate DB", zap.Error(err))
			}
		}
		shared = db
		open = storage.Open(ctx, lg)
		lg.Info("PostgreSQL connected")
	}
	router := store.NewIsolatingRouter(shared, open, lg)
	defer router.Close()

	reg := store.NewRegistry()
	products := catalog.RegisterProducts(reg)
	st := store.New(router, reg, store.WithLogger(lg))
	dir := store.NewDirectory(shared, lg)
	svc := catalog.NewService(st, products, lg)

	// Tenant resolution
	apiOpts := []api.Option{api.WithHealthCheck("database", shared.Ping)}
	var cache tenancy.Cache = tenancy.NewMemoryCache(cfg.Tenancy.CacheSize)
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			lg.Fatal("invalid redis url", zap.Error(err))
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		cache = tenancy.NewRedisCache(rdb, lg)
		apiOpts = append(apiOpts, api.WithHealthCheck("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}))
		lg.Info("Redis tenant cache enabled")
	}
	defer cache.Close()
	resolver := tenancy.NewResolver(dir,
		tenancy.WithCache(cache, cfg.Tenancy.CacheTTL),
		tenancy.WithLogger(lg),
	)
	dir.OnChange(func(ctx context.Context, change store.TenantChange) {
		resolver.Invalidate(ctx, change.Tenant.Identifier)
	})

	// Background jobs
	var events messaging.Publisher = messaging.NoopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		rabbitClient, err := messaging.NewRabbitClient(cfg.RabbitMQ.URL, lg)
		if err != nil {
			lg.Fatal("failed to connect to RabbitMQ", zap.Error(err))
		}
		defer rabbitClient.Close()
		lg.Info("RabbitMQ connected")
		events = rabbitClient

		processor := worker.NewProcessor(resolver, lg)
		processor.Handle(catalog.JobImport, svc.ImportJob)

		tm := manager.NewTenantManager(rabbitClient, func(tenant string) manager.Pool {
			return worker.NewWorkerPool(tenant, rabbitClient.GetConnection(), processor.Process, cfg.Workers, lg)
		}, lg)
		defer tm.ShutdownAll()
		dir.OnChange(tm.HandleTenantChange)

		// Recover existing tenants
		if err := tm.Sync(ctx, dir); err != nil {
			lg.Fatal("failed to recover tenants", zap.Error(err))
		}
		go tm.RefreshQueueDepths(ctx, 10*time.Second)

		apiOpts = append(apiOpts, api.WithJobs(rabbitClient), api.WithTenantManager(tm))
	} else {
		lg.Warn("RabbitMQ not configured; imports run inline and workers are disabled")
	}
	dir.OnChange(func(ctx context.Context, change store.TenantChange) {
		if err := events.PublishEvent(ctx, messaging.TenantEvent(change, time.Now())); err != nil {
			lg.Warn("failed to publish tenant event", zap.String("tenant", change.Tenant.Identifier), zap.Error(err))
		}
	})

	// Init API
	apiHandler := api.NewAPI(cfg, dir, svc, resolver, lg, apiOpts...)
	go apiHandler.Limiter.Run(ctx, time.Minute)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           apiHandler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Info("starting API server", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done() // Wait for interrupt signal
	lg.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop HTTP server; deferred calls then stop consumers and close connections.
	if err := server.Shutdown(shutdownCtx); err != nil {
		lg.Error("HTTP shutdown error", zap.Error(err))
	}
	lg.Info("graceful shutdown complete")
}
