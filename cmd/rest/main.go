package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"ai-consulting-be/internal/bootstrap"
	"ai-consulting-be/internal/config"
	"ai-consulting-be/internal/controller"
	"ai-consulting-be/internal/pkg/logger"
	"ai-consulting-be/internal/repository/unitofwork"
	"ai-consulting-be/internal/server"
	"ai-consulting-be/internal/tracer"
	"ai-consulting-be/pkg/database"
	pktNats "ai-consulting-be/pkg/nats"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 0. Load Configuration
	cfg := config.Load()

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer sysLogger.Sync()

	// 1. Initialize Tracer
	shutdownTracer := tracer.InitTracer(cfg.App.OtelEnabled, cfg.App.OtelEndpoint)
	defer shutdownTracer(context.Background())

	infra := bootstrap.Infra{Checks: map[string]controller.Pinger{}}

	// 2. Initialize Database
	if cfg.Database.Driver == config.StoreDriverPostgres {
		gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection, database.DefaultPoolConfig())
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			log.Panicf("Unable to get DB handle: %v", err)
		}
		defer sqlDB.Close()

		infra.UowFactory = unitofwork.NewRepositoryFactory(gormDB)
		infra.Checks["database"] = sqlDB.PingContext
	}

	// 3. Initialize Redis (session locks)
	if cfg.App.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Panicf("Invalid REDIS_URL: %v", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()

		infra.Redis = rdb
		infra.Checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	// 4. Initialize NATS (domain events)
	if cfg.App.NatsURL != "" {
		publisher, err := pktNats.NewPublisher(cfg.App.NatsURL, cfg.Intelligence.ContextTTL, sysLogger)
		if err != nil {
			sysLogger.Warn("NATS", "NATS unavailable, events will be dropped", map[string]interface{}{"error": err.Error()})
		} else {
			defer publisher.Close()
			infra.Nats = publisher
		}
	}

	// 5. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(infra, cfg, sysLogger)
	if err != nil {
		log.Panicf("Unable to build container: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 6. Start Background Services
	if err := container.Start(ctx); err != nil {
		log.Panicf("Unable to start background services: %v", err)
	}
	defer container.Close()

	// 7. Run Server until a signal arrives
	srv := server.New(cfg, container)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Run)
	g.Go(func() error {
		<-gctx.Done()
		sysLogger.Info("SERVER", "Shutting down server", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		sysLogger.Error("SERVER", "Server stopped", map[string]interface{}{"error": err.Error()})
	}
}
