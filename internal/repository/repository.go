package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ayushagrawal/box-office/internal/domain"
)

// Ledger holds the per-event seat counters. Every mutation is a single
// atomic unit with respect to all other ledger operations on the same
// event; operations on different events proceed in parallel.
type Ledger interface {
	// Reserve atomically checks available >= qty and moves qty into held.
	// Returns ErrInsufficientSeats with no mutation when the check fails,
	// ErrNotFound for an unknown event.
	Reserve(ctx context.Context, eventID uuid.UUID, qty int) error

	// Release moves qty out of held. Releasing more than is currently held
	// is a programming error and returns ErrLedgerUnderflow without
	// mutating the counters.
	Release(ctx context.Context, eventID uuid.UUID, qty int) error

	// Confirm moves qty from held to booked in one unit. The quantity never
	// transiently disappears from held+booked.
	Confirm(ctx context.Context, eventID uuid.UUID, qty int) error

	// Counts returns the current counters including the derived Available.
	Counts(ctx context.Context, eventID uuid.UUID) (domain.SeatCounts, error)
}

type EventRepository interface {
	Create(ctx context.Context, event domain.Event) error
	Get(ctx context.Context, eventID uuid.UUID) (domain.Event, error)
}

type HoldRepository interface {
	// Create reserves hold.Qty seats on the hold's event and persists the
	// hold as one atomic unit. Returns ErrInsufficientSeats (nothing
	// persisted) or ErrNotFound for an unknown event.
	Create(ctx context.Context, hold domain.Hold) error

	Get(ctx context.Context, holdID uuid.UUID) (domain.Hold, error)

	// Cancel transitions an active hold to cancelled and releases its
	// reserved quantity. Any non-active status yields ErrInvalidState with
	// the ledger untouched.
	Cancel(ctx context.Context, holdID uuid.UUID) (domain.Hold, error)

	// Expire transitions an active hold to expired and releases its
	// reserved quantity. The transition is a compare-and-swap: a hold
	// raced between expiry and confirmation has exactly one winner.
	Expire(ctx context.Context, holdID uuid.UUID) (domain.Hold, error)

	// ListExpired returns active holds whose expires_at is at or before now.
	ListExpired(ctx context.Context, now time.Time) ([]domain.Hold, error)
}

type BookingRepository interface {
	// ConfirmHold transitions an active hold to confirmed, moves its
	// quantity from held to booked and persists the booking, all as one
	// atomic unit. A non-active hold yields ErrInvalidState. At most one
	// booking ever exists per hold.
	ConfirmHold(ctx context.Context, booking domain.Booking) error

	Get(ctx context.Context, bookingID uuid.UUID) (domain.Booking, error)

	// GetByHold returns the booking created for the given hold, if any.
	GetByHold(ctx context.Context, holdID uuid.UUID) (domain.Booking, error)
}

// Store is the storage contract shared by the memory, redis and postgres
// backends.
type Store interface {
	Events() EventRepository
	Holds() HoldRepository
	Bookings() BookingRepository
	Ledger() Ledger
}
