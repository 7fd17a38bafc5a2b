package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ayushagrawal/box-office/internal/clock"
	"github.com/ayushagrawal/box-office/internal/domain"
	"github.com/ayushagrawal/box-office/internal/repository"
	redisrepo "github.com/ayushagrawal/box-office/internal/repository/redis"
)

// Service is the booking confirmer: it converts an active hold into a
// permanent booking exactly once, no matter how often the caller retries.
type Service struct {
	store  repository.Store
	clock  clock.Clock
	cache  *redisrepo.Cache
	pubsub *redisrepo.EventsPubSub
}

func New(
	store repository.Store,
	clk clock.Clock,
	cache *redisrepo.Cache,
	pubsub *redisrepo.EventsPubSub,
) *Service {
	return &Service{store: store, clock: clk, cache: cache, pubsub: pubsub}
}

// Confirm converts the hold into a booking.
//
// Repeated calls with the same hold and matching token return the
// original booking unchanged. A hold whose TTL has lapsed is expired
// lazily here even if the sweeper has not reached it yet; expiry wins
// over a confirmation that arrives past the deadline.
//
// Returns:
//   - booking.ErrHoldNotFound for an unknown hold.
//   - booking.ErrTokenMismatch when the token does not match; no mutation.
//   - booking.ErrHoldExpired for an expired (or just-lapsed) hold.
//   - booking.ErrAlreadyTerminal for a cancelled hold.
func (s *Service) Confirm(ctx context.Context, holdID, token uuid.UUID) (domain.Booking, error) {
	const op = "service.booking.Confirm"

	hold, err := s.store.Holds().Get(ctx, holdID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Booking{}, fmt.Errorf("%s:%w", op, ErrHoldNotFound)
		}

		return domain.Booking{}, fmt.Errorf("%s:%w", op, err)
	}

	switch hold.Status {
	case domain.HoldConfirmed:
		if hold.Token != token {
			return domain.Booking{}, fmt.Errorf("%s:%w", op, ErrTokenMismatch)
		}
		return s.existing(ctx, op, holdID)
	case domain.HoldExpired:
		return domain.Booking{}, fmt.Errorf("%s:%w", op, ErrHoldExpired)
	case domain.HoldCancelled:
		return domain.Booking{}, fmt.Errorf("%s:%w", op, ErrAlreadyTerminal)
	}

	// A lapsed TTL outranks everything else about an active hold: the
	// inventory goes back even when the token is wrong.
	if hold.ExpiredAt(s.clock.Now()) {
		return domain.Booking{}, s.lazyExpire(ctx, op, hold)
	}

	if hold.Token != token {
		return domain.Booking{}, fmt.Errorf("%s:%w", op, ErrTokenMismatch)
	}

	bk := domain.Booking{
		ID:        uuid.New(),
		HoldID:    hold.ID,
		EventID:   hold.EventID,
		Qty:       hold.Qty,
		CreatedAt: s.clock.Now(),
	}

	if err := s.store.Bookings().ConfirmHold(ctx, bk); err != nil {
		if errors.Is(err, repository.ErrInvalidState) || errors.Is(err, repository.ErrConflict) {
			// Lost the race against a concurrent confirm, cancel or
			// sweeper expiry; the hold's final state decides the answer.
			return s.resolveRace(ctx, op, holdID)
		}

		return domain.Booking{}, fmt.Errorf("%s:%w", op, err)
	}

	s.notify(ctx, hold.EventID)

	return bk, nil
}

func (s *Service) GetBooking(ctx context.Context, bookingID uuid.UUID) (domain.Booking, error) {
	const op = "service.booking.GetBooking"

	bk, err := s.store.Bookings().Get(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Booking{}, fmt.Errorf("%s:%w", op, ErrBookingNotFound)
		}

		return domain.Booking{}, fmt.Errorf("%s:%w", op, err)
	}

	return bk, nil
}

func (s *Service) existing(ctx context.Context, op string, holdID uuid.UUID) (domain.Booking, error) {
	bk, err := s.store.Bookings().GetByHold(ctx, holdID)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("%s:%w", op, err)
	}

	return bk, nil
}

// lazyExpire reclaims inventory for a hold found overdue at confirmation
// time. The sweeper may beat us to the transition; either way the hold
// ends up expired exactly once.
func (s *Service) lazyExpire(ctx context.Context, op string, hold domain.Hold) error {
	if _, err := s.store.Holds().Expire(ctx, hold.ID); err != nil &&
		!errors.Is(err, repository.ErrInvalidState) {
		return fmt.Errorf("%s:%w", op, err)
	}

	s.notify(ctx, hold.EventID)

	return fmt.Errorf("%s:%w", op, ErrHoldExpired)
}

func (s *Service) resolveRace(ctx context.Context, op string, holdID uuid.UUID) (domain.Booking, error) {
	hold, err := s.store.Holds().Get(ctx, holdID)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("%s:%w", op, err)
	}

	switch hold.Status {
	case domain.HoldConfirmed:
		return s.existing(ctx, op, holdID)
	case domain.HoldExpired:
		return domain.Booking{}, fmt.Errorf("%s:%w", op, ErrHoldExpired)
	default:
		return domain.Booking{}, fmt.Errorf("%s:%w", op, ErrAlreadyTerminal)
	}
}

func (s *Service) notify(ctx context.Context, eventID uuid.UUID) {
	if s.cache != nil {
		_ = s.cache.InvalidateEvent(ctx, eventID)
	}

	if s.pubsub != nil {
		_ = s.pubsub.PublishEventChanged(ctx, eventID)
	}
}
