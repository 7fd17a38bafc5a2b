package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ayushagrawal/box-office/internal/domain"
	"github.com/ayushagrawal/box-office/internal/repository"
)

type eventRepo struct {
	rdb *redis.Client
}

func (r *eventRepo) Create(ctx context.Context, event domain.Event) error {
	const op = "redis.eventRepo.Create"

	b, err := json.Marshal(eventRecord{
		ID:         event.ID,
		Name:       event.Name,
		TotalSeats: event.TotalSeats,
		CreatedAt:  event.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	ok, err := r.rdb.SetNX(ctx, keyEvent(event.ID), string(b), 0).Result()
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if !ok {
		return fmt.Errorf("%s:%w", op, repository.ErrConflict)
	}

	return nil
}

func (r *eventRepo) Get(ctx context.Context, eventID uuid.UUID) (domain.Event, error) {
	const op = "redis.eventRepo.Get"

	payload, err := r.rdb.Get(ctx, keyEvent(eventID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Event{}, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	if err != nil {
		return domain.Event{}, fmt.Errorf("%s:%w", op, err)
	}

	var rec eventRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return domain.Event{}, fmt.Errorf("%s:%w", op, err)
	}

	return domain.Event{
		ID:         rec.ID,
		Name:       rec.Name,
		TotalSeats: rec.TotalSeats,
		CreatedAt:  rec.CreatedAt,
	}, nil
}
