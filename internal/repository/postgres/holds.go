package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ayushagrawal/box-office/internal/domain"
	"github.com/ayushagrawal/box-office/internal/repository"
)

type holdRepo struct {
	store *Store
}

func (r *holdRepo) Create(ctx context.Context, hold domain.Hold) error {
	const op = "postgres.holdRepo.Create"

	return r.store.runTx(ctx, func(ctx context.Context, tx DB) error {
		if err := reserve(ctx, tx, op, hold.EventID, hold.Qty); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO holds(id, event_id, qty, status, token, created_at, expires_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			hold.ID, hold.EventID, hold.Qty, hold.Status,
			hold.Token, hold.CreatedAt, hold.ExpiresAt,
		); err != nil {
			return wrapDBErr(op, err)
		}

		return nil
	})
}

func (r *holdRepo) Get(ctx context.Context, holdID uuid.UUID) (domain.Hold, error) {
	const op = "postgres.holdRepo.Get"
	return getHold(ctx, r.store.pool, op, holdID)
}

func (r *holdRepo) Cancel(ctx context.Context, holdID uuid.UUID) (domain.Hold, error) {
	const op = "postgres.holdRepo.Cancel"
	return r.release(ctx, op, holdID, domain.HoldCancelled)
}

func (r *holdRepo) Expire(ctx context.Context, holdID uuid.UUID) (domain.Hold, error) {
	const op = "postgres.holdRepo.Expire"
	return r.release(ctx, op, holdID, domain.HoldExpired)
}

// release transitions active->to with a conditional UPDATE (the
// compare-and-swap) and credits the quantity back, both in one
// serializable transaction.
func (r *holdRepo) release(
	ctx context.Context,
	op string,
	holdID uuid.UUID,
	to domain.HoldStatus,
) (domain.Hold, error) {
	var hold domain.Hold

	err := r.store.runTx(ctx, func(ctx context.Context, tx DB) error {
		if err := tx.QueryRow(ctx,
			`UPDATE holds
			 SET status = $2
			 WHERE id = $1 AND status = $3
			 RETURNING id, event_id, qty, status, token, created_at, expires_at`,
			holdID, to, domain.HoldActive,
		).Scan(&hold.ID, &hold.EventID, &hold.Qty, &hold.Status,
			&hold.Token, &hold.CreatedAt, &hold.ExpiresAt); err != nil {
			return invalidStateErr(ctx, tx, op, holdID, err)
		}

		return release(ctx, tx, op, hold.EventID, hold.Qty)
	})
	if err != nil {
		return domain.Hold{}, err
	}

	return hold, nil
}

func (r *holdRepo) ListExpired(ctx context.Context, now time.Time) ([]domain.Hold, error) {
	const op = "postgres.holdRepo.ListExpired"

	rows, err := r.store.pool.Query(ctx,
		`SELECT id, event_id, qty, status, token, created_at, expires_at
		 FROM holds
		 WHERE status = $1 AND expires_at <= $2`,
		domain.HoldActive, now,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var expired []domain.Hold
	for rows.Next() {
		var h domain.Hold
		if err := rows.Scan(&h.ID, &h.EventID, &h.Qty, &h.Status,
			&h.Token, &h.CreatedAt, &h.ExpiresAt); err != nil {
			return nil, wrapDBErr(op, err)
		}
		expired = append(expired, h)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return expired, nil
}

func getHold(ctx context.Context, db DB, op string, holdID uuid.UUID) (domain.Hold, error) {
	var h domain.Hold
	if err := db.QueryRow(ctx,
		`SELECT id, event_id, qty, status, token, created_at, expires_at
		 FROM holds
		 WHERE id = $1`,
		holdID,
	).Scan(&h.ID, &h.EventID, &h.Qty, &h.Status,
		&h.Token, &h.CreatedAt, &h.ExpiresAt); err != nil {
		return domain.Hold{}, wrapDBErr(op, err)
	}

	return h, nil
}

// invalidStateErr tells a missing hold apart from a lost status CAS.
func invalidStateErr(ctx context.Context, db DB, op string, holdID uuid.UUID, cause error) error {
	if !errors.Is(cause, pgx.ErrNoRows) {
		return wrapDBErr(op, cause)
	}

	h, err := getHold(ctx, db, op, holdID)
	if err != nil {
		return err
	}

	return fmt.Errorf("%s:%w: hold is %s", op, repository.ErrInvalidState, h.Status)
}
