package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/ayushagrawal/box-office/internal/domain"
)

type eventRepo struct {
	store *Store
}

func (r *eventRepo) Create(ctx context.Context, event domain.Event) error {
	const op = "postgres.eventRepo.Create"

	if _, err := r.store.pool.Exec(ctx,
		`INSERT INTO events(id, name, total_seats, held, booked, created_at)
		 VALUES ($1, $2, $3, 0, 0, $4)`,
		event.ID, event.Name, event.TotalSeats, event.CreatedAt,
	); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *eventRepo) Get(ctx context.Context, eventID uuid.UUID) (domain.Event, error) {
	const op = "postgres.eventRepo.Get"

	var event domain.Event
	if err := r.store.pool.QueryRow(ctx,
		`SELECT id, name, total_seats, created_at
		 FROM events
		 WHERE id = $1`,
		eventID,
	).Scan(&event.ID, &event.Name, &event.TotalSeats, &event.CreatedAt); err != nil {
		return domain.Event{}, wrapDBErr(op, err)
	}

	return event, nil
}
