// Command server runs the student registry API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sixt-edu/student-registry/config"
	"github.com/sixt-edu/student-registry/internal/application/registry"
	"github.com/sixt-edu/student-registry/internal/application/transfer"
	"github.com/sixt-edu/student-registry/internal/infrastructure/persistence/postgres"
	redisinfra "github.com/sixt-edu/student-registry/internal/infrastructure/persistence/redis"
	"github.com/sixt-edu/student-registry/internal/infrastructure/service"
	httpiface "github.com/sixt-edu/student-registry/internal/interface/http"
	"github.com/sixt-edu/student-registry/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Default().Error("config load failed", logger.Err(err))
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
		Pretty: cfg.IsDevelopment() && cfg.Observability.LogFormat != "json",
	})

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", logger.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres
	pgCfg := postgres.DefaultConfig()
	pgCfg.URL = cfg.Database.URL
	pgCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
	pgCfg.MinConns = int32(cfg.Database.MaxIdleConns)
	pgCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	pgCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	conn, err := postgres.NewConnection(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Info("postgres connected")

	if cfg.Database.Migrate {
		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			return err
		}
		log.Info("migrations applied")
	}

	// Redis
	cache, err := redisinfra.NewCache(redisinfra.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		return err
	}
	defer cache.Close()
	log.Info("redis connected")

	// Persistence and coordination
	store := postgres.NewStudentStore(conn)
	lookupRepo := postgres.NewLookupRepository(conn)
	projections := redisinfra.NewProjectionCache(cache)
	locks := service.NewRedisLockCoordinator(redisinfra.NewRWLock(cache))

	// Application services
	resolver := registry.NewResolver(lookupRepo)
	regCfg := registry.Config{LockWait: cfg.Lock.Wait, LockHold: cfg.Lock.Hold}
	students := registry.NewService(store, projections, locks, resolver, log, regCfg)
	search := registry.NewSearchService(store, projections, locks, resolver, log, regCfg)
	lookups := registry.NewLookupService(lookupRepo, log)
	exporter := transfer.NewExporter(store, resolver, log)
	importer := transfer.NewImporter(students, log)

	// HTTP
	router := httpiface.NewRouter(
		httpiface.NewStudentHandler(students, search, log),
		httpiface.NewLookupHandler(lookups, log),
		httpiface.NewTransferHandler(exporter, importer, log),
		httpiface.NewHealthHandler(cfg.App.Version, map[string]httpiface.Pinger{
			"postgres": conn,
			"redis":    cache,
		}),
		log,
		cfg.HTTP.AllowedOrigins,
	)

	server := httpiface.NewServer(httpiface.ServerConfig{
		Addr:         cfg.HTTP.Addr(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}, router.Setup(), log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
