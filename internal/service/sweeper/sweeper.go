// Package sweeper runs the background expiry loop: on every tick it
// scans for overdue active holds and releases their inventory.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ayushagrawal/box-office/internal/clock"
	"github.com/ayushagrawal/box-office/internal/repository"
	redisrepo "github.com/ayushagrawal/box-office/internal/repository/redis"
)

type Config struct {
	Interval time.Duration
}

type Service struct {
	store   repository.Store
	clock   clock.Clock
	logger  *slog.Logger
	cache   *redisrepo.Cache
	pubsub  *redisrepo.EventsPubSub
	counter *redisrepo.ExpiryCounter
	cfg     Config
}

func New(
	store repository.Store,
	clk clock.Clock,
	logger *slog.Logger,
	cache *redisrepo.Cache,
	pubsub *redisrepo.EventsPubSub,
	counter *redisrepo.ExpiryCounter,
	cfg Config,
) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}

	return &Service{
		store:   store,
		clock:   clk,
		logger:  logger,
		cache:   cache,
		pubsub:  pubsub,
		counter: counter,
		cfg:     cfg,
	}
}

// Run loops until ctx is cancelled, sweeping at the configured interval.
// A failed cycle is logged and the loop keeps going; the sweeper is a
// cleanup mechanism, not the authority on expiry (readers check
// expires_at themselves).
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.Info("expiry sweeper started", "interval", s.cfg.Interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("expiry sweeper stopped")
			return nil
		case <-ticker.C:
			expired, err := s.SweepOnce(ctx)
			if err != nil {
				s.logger.Error("sweep cycle finished with errors",
					"expired", expired, "error", err)
			}
		}
	}
}

// SweepOnce expires every overdue active hold it can find and returns the
// number of holds expired. A failure on one hold does not abort the rest
// of the batch; per-hold errors are joined into the returned error.
func (s *Service) SweepOnce(ctx context.Context) (int, error) {
	const op = "service.sweeper.SweepOnce"

	overdue, err := s.store.Holds().ListExpired(ctx, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	var (
		expired int
		faults  []error
		touched = make(map[uuid.UUID]struct{})
	)

	for _, h := range overdue {
		if _, err := s.store.Holds().Expire(ctx, h.ID); err != nil {
			// A concurrent confirmation or cancellation winning the
			// transition is a normal outcome, not a sweep fault.
			if errors.Is(err, repository.ErrInvalidState) {
				continue
			}

			faults = append(faults, fmt.Errorf("hold %s: %w", h.ID, err))
			continue
		}

		expired++
		touched[h.EventID] = struct{}{}

		s.logger.Info("hold expired",
			"hold_id", h.ID, "event_id", h.EventID, "qty", h.Qty)
	}

	for eventID := range touched {
		s.notify(ctx, eventID)
	}

	if expired > 0 {
		if s.counter != nil {
			_ = s.counter.Add(ctx, int64(expired))
		}

		s.logger.Info("sweep cycle done", "expired", expired, "faults", len(faults))
	}

	if len(faults) > 0 {
		return expired, fmt.Errorf("%s:%w", op, errors.Join(faults...))
	}

	return expired, nil
}

func (s *Service) notify(ctx context.Context, eventID uuid.UUID) {
	if s.cache != nil {
		_ = s.cache.InvalidateEvent(ctx, eventID)
	}

	if s.pubsub != nil {
		_ = s.pubsub.PublishEventChanged(ctx, eventID)
	}
}
