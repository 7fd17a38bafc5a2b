package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayushagrawal/box-office/internal/domain"
	"github.com/ayushagrawal/box-office/internal/repository"
)

type holdRepo struct {
	store *Store
}

func (r *holdRepo) Create(_ context.Context, hold domain.Hold) error {
	const op = "memory.holdRepo.Create"

	e, ok := r.store.entry(hold.EventID)
	if !ok {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	available := e.event.TotalSeats - e.held - e.booked
	if available < hold.Qty {
		return fmt.Errorf("%s:%w: requested %d, available %d",
			op, repository.ErrInsufficientSeats, hold.Qty, available)
	}

	if _, exists := r.store.holds[hold.ID]; exists {
		return fmt.Errorf("%s:%w", op, repository.ErrConflict)
	}

	e.held += hold.Qty

	cp := hold
	r.store.holds[hold.ID] = &cp

	return nil
}

func (r *holdRepo) Get(_ context.Context, holdID uuid.UUID) (domain.Hold, error) {
	const op = "memory.holdRepo.Get"

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	h, ok := r.store.holds[holdID]
	if !ok {
		return domain.Hold{}, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return *h, nil
}

func (r *holdRepo) Cancel(ctx context.Context, holdID uuid.UUID) (domain.Hold, error) {
	const op = "memory.holdRepo.Cancel"

	h, err := r.release(holdID, domain.HoldCancelled)
	if err != nil {
		return domain.Hold{}, fmt.Errorf("%s:%w", op, err)
	}

	return h, nil
}

func (r *holdRepo) Expire(ctx context.Context, holdID uuid.UUID) (domain.Hold, error) {
	const op = "memory.holdRepo.Expire"

	h, err := r.release(holdID, domain.HoldExpired)
	if err != nil {
		return domain.Hold{}, fmt.Errorf("%s:%w", op, err)
	}

	return h, nil
}

// release performs the compare-and-swap transition active->to and credits
// the hold's quantity back to the ledger, all under the event's lock. A
// hold raced between expiry, cancellation and confirmation therefore has
// exactly one winner.
func (r *holdRepo) release(holdID uuid.UUID, to domain.HoldStatus) (domain.Hold, error) {
	r.store.mu.RLock()
	h, ok := r.store.holds[holdID]
	if !ok {
		r.store.mu.RUnlock()
		return domain.Hold{}, repository.ErrNotFound
	}
	eventID := h.EventID
	r.store.mu.RUnlock()

	e, ok := r.store.entry(eventID)
	if !ok {
		return domain.Hold{}, repository.ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	h, ok = r.store.holds[holdID]
	if !ok {
		return domain.Hold{}, repository.ErrNotFound
	}

	if h.Status != domain.HoldActive {
		return domain.Hold{}, fmt.Errorf("%w: hold is %s", repository.ErrInvalidState, h.Status)
	}

	if h.Qty > e.held {
		return domain.Hold{}, fmt.Errorf("%w: release %d with held %d",
			repository.ErrLedgerUnderflow, h.Qty, e.held)
	}

	h.Status = to
	e.held -= h.Qty

	return *h, nil
}

func (r *holdRepo) ListExpired(_ context.Context, now time.Time) ([]domain.Hold, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var expired []domain.Hold
	for _, h := range r.store.holds {
		if h.Status == domain.HoldActive && h.ExpiredAt(now) {
			expired = append(expired, *h)
		}
	}

	return expired, nil
}
