package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/ayushagrawal/box-office/internal/domain"
)

type bookingRepo struct {
	store *Store
}

// ConfirmHold performs the status CAS, the held->booked move and the
// booking insert in one serializable transaction; the UNIQUE constraint
// on hold_id backstops the one-booking-per-hold rule.
func (r *bookingRepo) ConfirmHold(ctx context.Context, booking domain.Booking) error {
	const op = "postgres.bookingRepo.ConfirmHold"

	return r.store.runTx(ctx, func(ctx context.Context, tx DB) error {
		var eventID uuid.UUID
		var qty int
		if err := tx.QueryRow(ctx,
			`UPDATE holds
			 SET status = $2
			 WHERE id = $1 AND status = $3
			 RETURNING event_id, qty`,
			booking.HoldID, domain.HoldConfirmed, domain.HoldActive,
		).Scan(&eventID, &qty); err != nil {
			return invalidStateErr(ctx, tx, op, booking.HoldID, err)
		}

		if err := confirm(ctx, tx, op, eventID, qty); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO bookings(id, hold_id, event_id, qty, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			booking.ID, booking.HoldID, booking.EventID,
			booking.Qty, booking.CreatedAt,
		); err != nil {
			return wrapDBErr(op, err)
		}

		return nil
	})
}

func (r *bookingRepo) Get(ctx context.Context, bookingID uuid.UUID) (domain.Booking, error) {
	const op = "postgres.bookingRepo.Get"

	var b domain.Booking
	if err := r.store.pool.QueryRow(ctx,
		`SELECT id, hold_id, event_id, qty, created_at
		 FROM bookings
		 WHERE id = $1`,
		bookingID,
	).Scan(&b.ID, &b.HoldID, &b.EventID, &b.Qty, &b.CreatedAt); err != nil {
		return domain.Booking{}, wrapDBErr(op, err)
	}

	return b, nil
}

func (r *bookingRepo) GetByHold(ctx context.Context, holdID uuid.UUID) (domain.Booking, error) {
	const op = "postgres.bookingRepo.GetByHold"

	var b domain.Booking
	if err := r.store.pool.QueryRow(ctx,
		`SELECT id, hold_id, event_id, qty, created_at
		 FROM bookings
		 WHERE hold_id = $1`,
		holdID,
	).Scan(&b.ID, &b.HoldID, &b.EventID, &b.Qty, &b.CreatedAt); err != nil {
		return domain.Booking{}, wrapDBErr(op, err)
	}

	return b, nil
}
