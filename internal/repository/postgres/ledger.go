package postgres

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

// Reserve relies on a single conditional UPDATE: the row lock makes the
// availability check and the increment one atomic unit per event.
func (l *ledger) Reserve(ctx context.Context, eventID uuid.UUID, qty int) error {
	const op = "postgres.ledger.Reserve"
	return reserve(ctx, l.store.pool, op, eventID, qty)
}

func (l *ledger) Release(ctx context.Context, eventID uuid.UUID, qty int) error {
	const op = "postgres.ledger.Release"
	return release(ctx, l.store.pool, op, eventID, qty)
}

func (l *ledger) Confirm(ctx context.Context, eventID uuid.UUID, qty int) error {
	const op = "postgres.ledger.Confirm"
	return confirm(ctx, l.store.pool, op, eventID, qty)
}

func (l *ledger) Counts(ctx context.Context, eventID uuid.UUID) (domain.SeatCounts, error) {
	const op = "postgres.ledger.Counts"

	var c domain.SeatCounts
	if err := l.store.pool.QueryRow(ctx,
		`SELECT total_seats, held, booked
		 FROM events
		 WHERE id = $1`,
		eventID,
	).Scan(&c.Total, &c.Held, &c.Booked); err != nil {
		return domain.SeatCounts{}, wrapDBErr(op, err)
	}

	c.Available = c.Total - c.Held - c.Booked

	return c, nil
}

func reserve(ctx context.Context, db DB, op string, eventID uuid.UUID, qty int) error {
	tag, err := db.Exec(ctx,
		`UPDATE events
		 SET held = held + $2
		 WHERE id = $1 AND total_seats - held - booked >= $2`,
		eventID, qty,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return zeroRowsErr(ctx, db, op, eventID, repository.ErrInsufficientSeats)
	}

	return nil
}

func release(ctx context.Context, db DB, op string, eventID uuid.UUID, qty int) error {
	tag, err := db.Exec(ctx,
		`UPDATE events
		 SET held = held - $2
		 WHERE id = $1 AND held >= $2`,
		eventID, qty,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return zeroRowsErr(ctx, db, op, eventID, repository.ErrLedgerUnderflow)
	}

	return nil
}

func confirm(ctx context.Context, db DB, op string, eventID uuid.UUID, qty int) error {
	tag, err := db.Exec(ctx,
		`UPDATE events
		 SET held = held - $2, booked = booked + $2
		 WHERE id = $1 AND held >= $2`,
		eventID, qty,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return zeroRowsErr(ctx, db, op, eventID, repository.ErrLedgerUnderflow)
	}

	return nil
}

// zeroRowsErr tells an unknown event apart from a failed counter guard.
func zeroRowsErr(ctx context.Context, db DB, op string, eventID uuid.UUID, guardErr error) error {
	var exists bool
	if err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`,
		eventID,
	).Scan(&exists); err != nil {
		return wrapDBErr(op, err)
	}

	if !exists {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return fmt.Errorf("%s:%w", op, guardErr)
}
