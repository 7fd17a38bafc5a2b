package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/ayushagrawal/box-office/internal/clock"
	"github.com/ayushagrawal/box-office/internal/config"
	"github.com/ayushagrawal/box-office/internal/postgres"
	"github.com/ayushagrawal/box-office/internal/redis"
	"github.com/ayushagrawal/box-office/internal/repository"
	memorystore "github.com/ayushagrawal/box-office/internal/repository/memory"
	postgresstore "github.com/ayushagrawal/box-office/internal/repository/postgres"
	redisrepo "github.com/ayushagrawal/box-office/internal/repository/redis"
	"github.com/ayushagrawal/box-office/internal/service"
	"github.com/ayushagrawal/box-office/internal/service/holds"
	"github.com/ayushagrawal/box-office/internal/service/sweeper"
	httpgin "github.com/ayushagrawal/box-office/internal/transport/http/gin"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	services   *service.Services
	cache      *redisrepo.Cache
	pubsub     *redisrepo.EventsPubSub
	httpServer *http.Server
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Redis backs either the store itself or the ambient components
	// (cache, idempotency, rate limiting, pubsub, metrics); without an
	// address those stay nil and the service layer skips them.
	var rdb *goredis.Client
	if cfg.Redis.Addr != "" {
		var err error
		rdb, err = redis.New(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
	}

	store, err := newStore(ctx, cfg, rdb)
	if err != nil {
		return nil, err
	}

	var (
		cache   *redisrepo.Cache
		pubsub  *redisrepo.EventsPubSub
		limiter *redisrepo.SlidingWindowLimiter
		counter *redisrepo.ExpiryCounter
		idem    *redisrepo.IdempotencyStore
	)
	if rdb != nil {
		cache = redisrepo.NewCache(rdb)
		pubsub = redisrepo.NewEventsPubSub(rdb)
		limiter = redisrepo.NewSlidingWindowLimiter(rdb, cfg.Holds.RateLimit, cfg.Holds.RateWindow)
		counter = redisrepo.NewExpiryCounter(rdb)
		idem = redisrepo.NewIdempotencyStore(rdb, 2*time.Hour)
	}

	services := service.NewServices(store, clock.NewSystem(), logger, cache, pubsub, limiter, counter, service.Config{
		Holds: holds.Config{
			TTL:         cfg.Holds.TTL,
			MinTTL:      cfg.Holds.MinTTL,
			MaxTTL:      cfg.Holds.MaxTTL,
			MaxQuantity: cfg.Holds.MaxQuantity,
		},
		Sweeper: sweeper.Config{Interval: cfg.Holds.SweepInterval},
	})

	router := httpgin.NewRouter(services, idem, counter, logger)

	return &App{
		cfg:      cfg,
		logger:   logger,
		services: services,
		cache:    cache,
		pubsub:   pubsub,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
	}, nil
}

func newStore(ctx context.Context, cfg *config.Config, rdb *goredis.Client) (repository.Store, error) {
	switch cfg.Store.Backend {
	case config.StoreMemory:
		return memorystore.NewStore(), nil

	case config.StoreRedis:
		if rdb == nil {
			return nil, fmt.Errorf("redis store selected but REDIS_ADDR is empty")
		}
		return redisrepo.NewStore(rdb), nil

	case config.StorePostgres:
		dsn := fmt.Sprintf(
			"postgres://%s:%s@%s:%d/%s?sslmode=%s",
			cfg.Postgres.User,
			cfg.Postgres.Password,
			cfg.Postgres.Host,
			cfg.Postgres.Port,
			cfg.Postgres.Name,
			cfg.Postgres.SSLMode,
		)

		pool, err := postgres.New(ctx, postgres.Config{DSN: dsn})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}

		store := postgresstore.NewStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}

		return store, nil
	}

	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Background expiry sweeper
	g.Go(func() error {
		return a.services.Sweeper.Run(gCtx)
	})

	// Drop cached status views when another instance changes an event.
	if a.pubsub != nil && a.cache != nil {
		g.Go(func() error {
			err := a.pubsub.Subscribe(gCtx, func(ctx context.Context, eventID uuid.UUID) {
				_ = a.cache.InvalidateEvent(ctx, eventID)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("events subscription: %w", err)
			}
			return nil
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
