// Command portal serves the clinic front end: visitor sessions against the
// clinic backend, role-gated pages and the session audit trail.
//
//	@title			Clinic Portal
//	@version		1.0
//	@description	Session and role-gated front service for the clinic management backend.
//	@BasePath		/
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	gomongo "go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	_ "github.com/medicore/clinic-portal/docs"
	"github.com/medicore/clinic-portal/internal/api"
	"github.com/medicore/clinic-portal/internal/api/metrics"
	"github.com/medicore/clinic-portal/internal/core/ports"
	"github.com/medicore/clinic-portal/internal/core/service"
	"github.com/medicore/clinic-portal/internal/infrastructure/clinicapi"
	"github.com/medicore/clinic-portal/internal/infrastructure/db/mongo"
	"github.com/medicore/clinic-portal/internal/infrastructure/db/redis"
	"github.com/medicore/clinic-portal/internal/infrastructure/queue"
	"github.com/medicore/clinic-portal/internal/infrastructure/storage"
	"github.com/medicore/clinic-portal/internal/pkg/config"
	"github.com/medicore/clinic-portal/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "clinic-portal",
	})
	if envErr != nil {
		log.Debug().Msg("no .env file found, using process environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("portal stopped")
	}
	log.Info().Msg("portal stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	client := clinicapi.New(clinicapi.Config{
		BaseURL: cfg.ClinicAPI.BaseURL,
		Timeout: cfg.ClinicAPI.Timeout,
	}, logger.Component("clinicapi"), clinicapi.WithObserver(metrics.ObserveUpstream))

	// --- Persisted session storage ---
	var (
		rdb     *goredis.Client
		factory ports.StorageFactory
		onSweep func(time.Time)
	)
	switch cfg.Session.Backend {
	case config.StorageRedis:
		c, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer c.Close()
		rdb = c
		factory = redis.NewStorageFactory(c)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("session storage: redis")
	default:
		mem := storage.NewMemory()
		factory = mem.Factory()
		onSweep = func(now time.Time) {
			if n := mem.Purge(now); n > 0 {
				log.Debug().Int("purged", n).Msg("expired session values purged")
			}
		}
		log.Warn().Msg("session storage: memory, sessions will not survive a restart")
	}

	registry := service.NewRegistry(client, factory, service.RegistryConfig{
		IdleTTL:    cfg.Session.IdleTTL,
		StorageTTL: cfg.Session.StorageTTL,
		OnSize:     func(n int) { metrics.ActiveSessions.Set(float64(n)) },
		OnSweep:    onSweep,
	}, logger.Component("session"))
	registry.Subscribe(metrics.ObserveSessionEvent)

	g, gctx := errgroup.WithContext(ctx)

	// --- Audit trail ---
	var db *gomongo.Database
	if cfg.Audit.Enabled {
		mc, d, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer func() {
			if err := mongo.Disconnect(mc, shutdownTimeout); err != nil {
				log.Warn().Err(err).Msg("audit database disconnect")
			}
		}()
		db = d

		repo := mongo.NewSessionEventRepository(db, cfg.Audit.Retention)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return err
		}
		dispatcher := queue.NewDispatcher(cfg.Audit.Workers, service.NewAuditService(repo, logger.Component("audit")), logger.Component("queue"))
		dispatcher.OnDepth = metrics.ObserveAuditDepth
		dispatcher.OnError = metrics.ObserveAuditError
		dispatcher.Start(gctx)
		registry.Subscribe(dispatcher.Enqueue)
		log.Info().Str("database", cfg.Mongo.Database).Int("workers", cfg.Audit.Workers).Msg("audit trail enabled")
	}

	e := api.NewRouter(api.Deps{
		Config:   cfg,
		Log:      logger.Component("http"),
		Sessions: registry,
		Mongo:    db,
		Redis:    rdb,
		Upstream: client.Ping,
	})

	g.Go(func() error {
		registry.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("backend", cfg.ClinicAPI.BaseURL).Msg("portal listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(sctx)
	})

	return g.Wait()
}
