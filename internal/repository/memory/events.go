package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ayushagrawal/box-office/internal/domain"
	"github.com/ayushagrawal/box-office/internal/repository"
)

type eventRepo struct {
	store *Store
}

func (r *eventRepo) Create(_ context.Context, event domain.Event) error {
	const op = "memory.eventRepo.Create"

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.events[event.ID]; ok {
		return fmt.Errorf("%s:%w", op, repository.ErrConflict)
	}

	r.store.events[event.ID] = &eventEntry{event: event}

	return nil
}

func (r *eventRepo) Get(_ context.Context, eventID uuid.UUID) (domain.Event, error) {
	const op = "memory.eventRepo.Get"

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	e, ok := r.store.events[eventID]
	if !ok {
		return domain.Event{}, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return e.event, nil
}
