package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ayushagrawal/box-office/internal/domain"
	"github.com/ayushagrawal/box-office/internal/repository"
)

type ledger struct {
	store *Store
}

func (l *ledger) Reserve(_ context.Context, eventID uuid.UUID, qty int) error {
	const op = "memory.ledger.Reserve"

	e, ok := l.store.entry(eventID)
	if !ok {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	available := e.event.TotalSeats - e.held - e.booked
	if available < qty {
		return fmt.Errorf("%s:%w: requested %d, available %d",
			op, repository.ErrInsufficientSeats, qty, available)
	}

	e.held += qty

	return nil
}

func (l *ledger) Release(_ context.Context, eventID uuid.UUID, qty int) error {
	const op = "memory.ledger.Release"

	e, ok := l.store.entry(eventID)
	if !ok {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	if qty > e.held {
		return fmt.Errorf("%s:%w: release %d with held %d",
			op, repository.ErrLedgerUnderflow, qty, e.held)
	}

	e.held -= qty

	return nil
}

func (l *ledger) Confirm(_ context.Context, eventID uuid.UUID, qty int) error {
	const op = "memory.ledger.Confirm"

	e, ok := l.store.entry(eventID)
	if !ok {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	if qty > e.held {
		return fmt.Errorf("%s:%w: confirm %d with held %d",
			op, repository.ErrLedgerUnderflow, qty, e.held)
	}

	e.held -= qty
	e.booked += qty

	return nil
}

func (l *ledger) Counts(_ context.Context, eventID uuid.UUID) (domain.SeatCounts, error) {
	const op = "memory.ledger.Counts"

	e, ok := l.store.entry(eventID)
	if !ok {
		return domain.SeatCounts{}, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	l.store.mu.RLock()
	defer l.store.mu.RUnlock()

	return domain.SeatCounts{
		Total:     e.event.TotalSeats,
		Held:      e.held,
		Booked:    e.booked,
		Available: e.event.TotalSeats - e.held - e.booked,
	}, nil
}
