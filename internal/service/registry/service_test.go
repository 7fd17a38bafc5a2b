package registry_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayushagrawal/box-office/internal/clock"
	"github.com/ayushagrawal/box-office/internal/domain"
	"github.com/ayushagrawal/box-office/internal/repository/memory"
	"github.com/ayushagrawal/box-office/internal/service/registry"
)

func TestCreateEvent(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := registry.New(memory.NewStore(), clock.NewFixed(now), nil)
	ctx := context.Background()

	event, err := svc.CreateEvent(ctx, "  Summer Concert  ", 500)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, "Summer Concert", event.Name)
	assert.Equal(t, 500, event.TotalSeats)
	assert.Equal(t, now, event.CreatedAt)

	got, err := svc.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, event, got)

	counts, err := svc.GetStatus(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SeatCounts{Total: 500, Available: 500}, counts)
}

func TestCreateEvent_Validation(t *testing.T) {
	t.Parallel()

	svc := registry.New(memory.NewStore(), clock.NewSystem(), nil)
	ctx := context.Background()

	_, err := svc.CreateEvent(ctx, "   ", 10)
	assert.ErrorIs(t, err, registry.ErrInvalidName)

	_, err = svc.CreateEvent(ctx, "concert", 0)
	assert.ErrorIs(t, err, registry.ErrInvalidSeats)

	_, err = svc.CreateEvent(ctx, "concert", -5)
	assert.ErrorIs(t, err, registry.ErrInvalidSeats)

	_, err = svc.CreateEvent(ctx, "concert", 10001)
	assert.ErrorIs(t, err, registry.ErrInvalidSeats)

	_, err = svc.CreateEvent(ctx, "concert", 10000)
	assert.NoError(t, err)
}

func TestGetEvent_NotFound(t *testing.T) {
	t.Parallel()

	svc := registry.New(memory.NewStore(), clock.NewSystem(), nil)

	_, err := svc.GetEvent(context.Background(), uuid.New())
	assert.ErrorIs(t, err, registry.ErrEventNotFound)

	_, err = svc.GetStatus(context.Background(), uuid.New())
	assert.ErrorIs(t, err, registry.ErrEventNotFound)
}
