package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ayushagrawal/box-office/internal/domain"
	"github.com/ayushagrawal/box-office/internal/repository"
)

type bookingRepo struct {
	store *Store
}

func (r *bookingRepo) ConfirmHold(_ context.Context, booking domain.Booking) error {
	const op = "memory.bookingRepo.ConfirmHold"

	e, ok := r.store.entry(booking.EventID)
	if !ok {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	h, ok := r.store.holds[booking.HoldID]
	if !ok {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	if h.Status != domain.HoldActive {
		return fmt.Errorf("%s:%w: hold is %s", op, repository.ErrInvalidState, h.Status)
	}

	if _, exists := r.store.byHold[booking.HoldID]; exists {
		return fmt.Errorf("%s:%w", op, repository.ErrConflict)
	}

	if booking.Qty > e.held {
		return fmt.Errorf("%s:%w: confirm %d with held %d",
			op, repository.ErrLedgerUnderflow, booking.Qty, e.held)
	}

	h.Status = domain.HoldConfirmed
	e.held -= booking.Qty
	e.booked += booking.Qty

	cp := booking
	r.store.bookings[booking.ID] = &cp
	r.store.byHold[booking.HoldID] = booking.ID

	return nil
}

func (r *bookingRepo) Get(_ context.Context, bookingID uuid.UUID) (domain.Booking, error) {
	const op = "memory.bookingRepo.Get"

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	b, ok := r.store.bookings[bookingID]
	if !ok {
		return domain.Booking{}, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return *b, nil
}

func (r *bookingRepo) GetByHold(_ context.Context, holdID uuid.UUID) (domain.Booking, error) {
	const op = "memory.bookingRepo.GetByHold"

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.byHold[holdID]
	if !ok {
		return domain.Booking{}, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return *r.store.bookings[id], nil
}
