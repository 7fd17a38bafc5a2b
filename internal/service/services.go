package service

import (
	"log/slog"

	"github.com/ayushagrawal/box-office/internal/clock"
	"github.com/ayushagrawal/box-office/internal/repository"
	redisrepo "github.com/ayushagrawal/box-office/internal/repository/redis"
	"github.com/ayushagrawal/box-office/internal/service/booking"
	"github.com/ayushagrawal/box-office/internal/service/holds"
	"github.com/ayushagrawal/box-office/internal/service/registry"
	"github.com/ayushagrawal/box-office/internal/service/sweeper"
)

type Services struct {
	Registry *registry.Service
	Holds    *holds.Service
	Booking  *booking.Service
	Sweeper  *sweeper.Service
}

type Config struct {
	Holds   holds.Config
	Sweeper sweeper.Config
}

// NewServices wires the four core services over a shared store. The Redis
// components (cache, pubsub, limiter, counter) are optional and may be nil
// when no Redis is configured.
func NewServices(
	store repository.Store,
	clk clock.Clock,
	logger *slog.Logger,
	cache *redisrepo.Cache,
	pubsub *redisrepo.EventsPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	counter *redisrepo.ExpiryCounter,
	cfg Config,
) *Services {
	return &Services{
		Registry: registry.New(store, clk, cache),
		Holds:    holds.New(store, clk, cache, pubsub, limiter, cfg.Holds),
		Booking:  booking.New(store, clk, cache, pubsub),
		Sweeper:  sweeper.New(store, clk, logger, cache, pubsub, counter, cfg.Sweeper),
	}
}
