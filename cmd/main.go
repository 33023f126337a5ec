package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"taskflow/internal/activity"
	"taskflow/internal/cache"
	"taskflow/internal/config"
	"taskflow/internal/controller"
	"taskflow/internal/database"
	"taskflow/internal/middleware"
	"taskflow/internal/queue"
	"taskflow/internal/realtime"
	"taskflow/internal/repository"
	"taskflow/internal/routes"
	"taskflow/internal/service"
	"taskflow/internal/worker"
	"taskflow/pkg/logger"
)

func main() {
	// Existing environment wins over .env.
	_ = godotenv.Load()

	cfg := config.Get()
	logger.Init(cfg.LogLevel, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error(ctx, "Server exited", "error", err)
		os.Exit(1)
	}
	logger.Info(ctx, "Server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.MigrateOrCreateSchema(ctx, db); err != nil {
		return err
	}
	store := repository.New(db)
	checks := []controller.Check{{Name: "database", Ping: store.Ping}}

	// Redis is optional: it backs the board cache and the realtime relay.
	var rc *redis.Client
	if cfg.RedisURL != "" {
		rc, err = cache.NewClient(ctx, cfg.RedisURL, cfg.RedisPoolSize)
		if err != nil {
			return err
		}
		defer rc.Close()
	}

	var boardCache service.BoardCache
	if bc := cache.New(rc, time.Duration(cfg.CacheTTL)*time.Second); bc != nil {
		boardCache = bc
		checks = append(checks, controller.Check{Name: "redis", Ping: bc.Ping})
	}
	svc := service.New(store, boardCache, cfg.MaxPageLimit)

	var pub activity.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		queue.EnsureTopic(ctx, cfg.KafkaBrokers, cfg.KafkaActivityTopic, cfg.KafkaPartitions)
		producer := queue.NewActivityProducer(ctx, cfg.KafkaBrokers, cfg.KafkaActivityTopic)
		defer producer.Close()
		pub = producer
	}
	recorder := activity.NewRecorder(store, pub, cfg.ActivityPageLimit, cfg.MaxPageLimit)

	hub := realtime.NewHub()
	var events realtime.Broadcaster = hub
	var relay *realtime.Relay
	if cfg.RelayEnabled && rc != nil {
		relay = realtime.NewRelay(hub, rc, cfg.RealtimeChannel)
		events = relay
	} else if cfg.RelayEnabled {
		logger.Warn(ctx, "Realtime relay requested without REDIS_URL; broadcasting locally only")
	}

	h := controller.New(svc, recorder, events, hub, controller.Options{
		Heartbeat:      cfg.HeartbeatInterval,
		AllowedOrigins: cfg.WSAllowedOrigins,
		Checks:         checks,
	})
	g, ctx := errgroup.WithContext(ctx)
	server := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: routes.Router(h, routes.Options{
			JWTSecret:     cfg.JWTSecret,
			Users:         svc,
			StreamLimiter: middleware.NewRateLimiter(cfg.StreamRatePerSec, cfg.StreamBurst),
		}),
		ReadTimeout: 10 * time.Second,
		// No WriteTimeout: streaming responses stay open indefinitely.
		IdleTimeout: 120 * time.Second,
		// Streams end when the process is told to stop.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g.Go(func() error {
		logger.Info(ctx, "HTTP server listening", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if len(cfg.KafkaBrokers) > 0 {
		g.Go(func() error {
			worker.Run(ctx, cfg.KafkaBrokers, cfg.KafkaActivityTopic, recorder)
			return nil
		})
	}
	if relay != nil {
		g.Go(func() error { return relay.Run(ctx) })
	}
	return g.Wait()
}
