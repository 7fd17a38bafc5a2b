package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ayushagrawal/box-office/internal/clock"
	"github.com/ayushagrawal/box-office/internal/domain"
	"github.com/ayushagrawal/box-office/internal/repository"
	redisrepo "github.com/ayushagrawal/box-office/internal/repository/redis"
)

// maxTotalSeats bounds event capacity at creation time.
const maxTotalSeats = 10000

// statusCacheTTL bounds how stale a cached seat-count view can be when an
// invalidation is lost.
const statusCacheTTL = 2 * time.Second

// Service is the event registry: it owns event identity and initializes
// the ledger entry for each new event.
type Service struct {
	store repository.Store
	clock clock.Clock
	cache *redisrepo.Cache
}

func New(store repository.Store, clk clock.Clock, cache *redisrepo.Cache) *Service {
	return &Service{store: store, clock: clk, cache: cache}
}

// CreateEvent registers a new event with held=booked=0.
func (s *Service) CreateEvent(ctx context.Context, name string, totalSeats int) (domain.Event, error) {
	const op = "service.registry.CreateEvent"

	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Event{}, fmt.Errorf("%s:%w", op, ErrInvalidName)
	}

	if totalSeats <= 0 || totalSeats > maxTotalSeats {
		return domain.Event{}, fmt.Errorf("%s:%w: got %d", op, ErrInvalidSeats, totalSeats)
	}

	event := domain.Event{
		ID:         uuid.New(),
		Name:       name,
		TotalSeats: totalSeats,
		CreatedAt:  s.clock.Now(),
	}

	if err := s.store.Events().Create(ctx, event); err != nil {
		return domain.Event{}, fmt.Errorf("%s:%w", op, err)
	}

	return event, nil
}

func (s *Service) GetEvent(ctx context.Context, eventID uuid.UUID) (domain.Event, error) {
	const op = "service.registry.GetEvent"

	event, err := s.store.Events().Get(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Event{}, fmt.Errorf("%s:%w", op, ErrEventNotFound)
		}

		return domain.Event{}, fmt.Errorf("%s:%w", op, err)
	}

	return event, nil
}

// GetStatus returns the event's current seat counters. With a cache
// configured the view is read through it; every hold or booking mutation
// invalidates the entry, and the short TTL caps any staleness left over.
func (s *Service) GetStatus(ctx context.Context, eventID uuid.UUID) (domain.SeatCounts, error) {
	const op = "service.registry.GetStatus"

	load := func(ctx context.Context) (domain.SeatCounts, error) {
		return s.store.Ledger().Counts(ctx, eventID)
	}

	var (
		counts domain.SeatCounts
		err    error
	)
	if s.cache != nil {
		counts, err = redisrepo.GetOrSetJSON(ctx, s.cache,
			redisrepo.KeyEventStatus(eventID), statusCacheTTL, load)
	} else {
		counts, err = load(ctx)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.SeatCounts{}, fmt.Errorf("%s:%w", op, ErrEventNotFound)
		}

		return domain.SeatCounts{}, fmt.Errorf("%s:%w", op, err)
	}

	return counts, nil
}
