package holds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayushagrawal/box-office/internal/clock"
	"github.com/ayushagrawal/box-office/internal/domain"
	"github.com/ayushagrawal/box-office/internal/repository"
	redisrepo "github.com/ayushagrawal/box-office/internal/repository/redis"
)

type Config struct {
	TTL         time.Duration
	MinTTL      time.Duration
	MaxTTL      time.Duration
	MaxQuantity int
}

// Service is the hold manager: it creates holds against the ledger and
// owns the hold lifecycle outside of confirmation.
type Service struct {
	store   repository.Store
	clock   clock.Clock
	cache   *redisrepo.Cache
	pubsub  *redisrepo.EventsPubSub
	limiter *redisrepo.SlidingWindowLimiter
	cfg     Config
}

func New(
	store repository.Store,
	clk clock.Clock,
	cache *redisrepo.Cache,
	pubsub *redisrepo.EventsPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	cfg Config,
) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = 2 * time.Minute
	}

	if cfg.MinTTL <= 0 {
		cfg.MinTTL = 10 * time.Second
	}

	if cfg.MaxTTL <= 0 || cfg.MaxTTL < cfg.MinTTL {
		cfg.MaxTTL = 15 * time.Minute
	}

	if cfg.MaxQuantity <= 0 {
		cfg.MaxQuantity = 100
	}

	return &Service{
		store:   store,
		clock:   clk,
		cache:   cache,
		pubsub:  pubsub,
		limiter: limiter,
		cfg:     cfg,
	}
}

// CreateHold reserves qty seats on the event and persists an active hold
// with a fresh confirmation token.
//
// Returns:
//   - holds.ErrInvalidQuantity for qty outside (0, MaxQuantity]; rejected
//     before the ledger is touched.
//   - holds.ErrEventNotFound for an unknown event.
//   - holds.ErrInsufficientSeats when the ledger cannot cover qty; no hold
//     is created.
//   - holds.ErrRateLimited when rlKey exceeds the configured limit.
func (s *Service) CreateHold(
	ctx context.Context,
	eventID uuid.UUID,
	qty int,
	ttl time.Duration,
	rlKey string,
) (domain.Hold, error) {
	const op = "service.holds.CreateHold"

	if qty <= 0 || qty > s.cfg.MaxQuantity {
		return domain.Hold{}, fmt.Errorf("%s:%w: got %d, max %d",
			op, ErrInvalidQuantity, qty, s.cfg.MaxQuantity)
	}

	if s.limiter != nil && rlKey != "" {
		ok, _, retry, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			return domain.Hold{}, fmt.Errorf("%s:%w", op, err)
		}
		if !ok {
			return domain.Hold{}, fmt.Errorf("%s:%w: retry in %s", op, ErrRateLimited, retry)
		}
	}

	now := s.clock.Now()

	hold := domain.Hold{
		ID:        uuid.New(),
		EventID:   eventID,
		Qty:       qty,
		Status:    domain.HoldActive,
		Token:     uuid.New(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.clampTTL(ttl)),
	}

	if err := s.store.Holds().Create(ctx, hold); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return domain.Hold{}, fmt.Errorf("%s:%w", op, ErrEventNotFound)
		case errors.Is(err, repository.ErrInsufficientSeats):
			return domain.Hold{}, fmt.Errorf("%s:%w", op, ErrInsufficientSeats)
		}

		return domain.Hold{}, fmt.Errorf("%s:%w", op, err)
	}

	s.notify(ctx, eventID)

	return hold, nil
}

func (s *Service) GetHold(ctx context.Context, holdID uuid.UUID) (domain.Hold, error) {
	const op = "service.holds.GetHold"

	hold, err := s.store.Holds().Get(ctx, holdID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Hold{}, fmt.Errorf("%s:%w", op, ErrHoldNotFound)
		}

		return domain.Hold{}, fmt.Errorf("%s:%w", op, err)
	}

	return hold, nil
}

// CancelHold releases an active hold's seats and marks it cancelled.
// Cancelling a non-active hold is not accepted silently: it returns
// holds.ErrInvalidState so caller bugs are distinguishable from retries.
func (s *Service) CancelHold(ctx context.Context, holdID uuid.UUID) (domain.Hold, error) {
	const op = "service.holds.CancelHold"

	hold, err := s.store.Holds().Cancel(ctx, holdID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return domain.Hold{}, fmt.Errorf("%s:%w", op, ErrHoldNotFound)
		case errors.Is(err, repository.ErrInvalidState):
			return domain.Hold{}, fmt.Errorf("%s:%w", op, ErrInvalidState)
		}

		return domain.Hold{}, fmt.Errorf("%s:%w", op, err)
	}

	s.notify(ctx, hold.EventID)

	return hold, nil
}

// ExpireHold forces expiry of an active hold, releasing its seats.
func (s *Service) ExpireHold(ctx context.Context, holdID uuid.UUID) (domain.Hold, error) {
	const op = "service.holds.ExpireHold"

	hold, err := s.store.Holds().Expire(ctx, holdID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return domain.Hold{}, fmt.Errorf("%s:%w", op, ErrHoldNotFound)
		case errors.Is(err, repository.ErrInvalidState):
			return domain.Hold{}, fmt.Errorf("%s:%w", op, ErrInvalidState)
		}

		return domain.Hold{}, fmt.Errorf("%s:%w", op, err)
	}

	s.notify(ctx, hold.EventID)

	return hold, nil
}

func (s *Service) notify(ctx context.Context, eventID uuid.UUID) {
	if s.cache != nil {
		_ = s.cache.InvalidateEvent(ctx, eventID)
	}

	if s.pubsub != nil {
		_ = s.pubsub.PublishEventChanged(ctx, eventID)
	}
}

func (s *Service) clampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return s.cfg.TTL
	}

	if ttl < s.cfg.MinTTL {
		return s.cfg.MinTTL
	}

	if ttl > s.cfg.MaxTTL {
		return s.cfg.MaxTTL
	}

	return ttl
}
