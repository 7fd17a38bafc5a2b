package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayushagrawal/box-office/internal/domain"
	"github.com/ayushagrawal/box-office/internal/repository"
)

// newTestStore connects to the database named by TEST_DATABASE_URL and
// skips the test when it is unset or unreachable.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping Postgres integration tests")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("skipping Postgres integration tests: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := pool.Ping(ctx); err != nil {
		t.Skipf("skipping Postgres integration tests: %v", err)
	}

	store := NewStore(pool)
	require.NoError(t, store.EnsureSchema(ctx))

	_, err = pool.Exec(ctx, "TRUNCATE bookings, holds, events")
	require.NoError(t, err)

	return store
}

func seedEvent(t *testing.T, store *Store, total int) domain.Event {
	t.Helper()

	event := domain.Event{
		ID:         uuid.New(),
		Name:       "test event",
		TotalSeats: total,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, store.Events().Create(context.Background(), event))

	return event
}

func TestStore_EventRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	event := seedEvent(t, store, 100)

	got, err := store.Events().Get(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, event.TotalSeats, got.TotalSeats)

	err = store.Events().Create(ctx, event)
	assert.ErrorIs(t, err, repository.ErrConflict)

	_, err = store.Events().Get(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStore_HoldLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	event := seedEvent(t, store, 10)

	hold := domain.Hold{
		ID:        uuid.New(),
		EventID:   event.ID,
		Qty:       7,
		Status:    domain.HoldActive,
		Token:     uuid.New(),
		CreatedAt: now,
		ExpiresAt: now.Add(time.Minute),
	}
	require.NoError(t, store.Holds().Create(ctx, hold))

	counts, err := store.Ledger().Counts(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SeatCounts{Total: 10, Held: 7, Available: 3}, counts)

	// Oversell rejected.
	err = store.Holds().Create(ctx, domain.Hold{
		ID: uuid.New(), EventID: event.ID, Qty: 5,
		Status: domain.HoldActive, Token: uuid.New(),
		CreatedAt: now, ExpiresAt: now.Add(time.Minute),
	})
	assert.ErrorIs(t, err, repository.ErrInsufficientSeats)

	cancelled, err := store.Holds().Cancel(ctx, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.HoldCancelled, cancelled.Status)

	counts, err = store.Ledger().Counts(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, counts.Available)

	_, err = store.Holds().Cancel(ctx, hold.ID)
	assert.ErrorIs(t, err, repository.ErrInvalidState)
}

func TestStore_ConfirmHold(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	event := seedEvent(t, store, 10)

	hold := domain.Hold{
		ID:        uuid.New(),
		EventID:   event.ID,
		Qty:       6,
		Status:    domain.HoldActive,
		Token:     uuid.New(),
		CreatedAt: now,
		ExpiresAt: now.Add(time.Minute),
	}
	require.NoError(t, store.Holds().Create(ctx, hold))

	booking := domain.Booking{
		ID:        uuid.New(),
		HoldID:    hold.ID,
		EventID:   event.ID,
		Qty:       hold.Qty,
		CreatedAt: now,
	}
	require.NoError(t, store.Bookings().ConfirmHold(ctx, booking))

	counts, err := store.Ledger().Counts(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SeatCounts{Total: 10, Booked: 6, Available: 4}, counts)

	got, err := store.Bookings().GetByHold(ctx, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, got.ID)

	// The hold is terminal now.
	err = store.Bookings().ConfirmHold(ctx, domain.Booking{
		ID: uuid.New(), HoldID: hold.ID, EventID: event.ID, Qty: hold.Qty, CreatedAt: now,
	})
	assert.ErrorIs(t, err, repository.ErrInvalidState)

	_, err = store.Holds().Expire(ctx, hold.ID)
	assert.ErrorIs(t, err, repository.ErrInvalidState)
}

func TestStore_ListExpired(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	event := seedEvent(t, store, 100)

	overdue := domain.Hold{
		ID: uuid.New(), EventID: event.ID, Qty: 2,
		Status: domain.HoldActive, Token: uuid.New(),
		CreatedAt: now.Add(-2 * time.Minute), ExpiresAt: now.Add(-time.Minute),
	}
	fresh := domain.Hold{
		ID: uuid.New(), EventID: event.ID, Qty: 2,
		Status: domain.HoldActive, Token: uuid.New(),
		CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, store.Holds().Create(ctx, overdue))
	require.NoError(t, store.Holds().Create(ctx, fresh))

	expired, err := store.Holds().ListExpired(ctx, now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, overdue.ID, expired[0].ID)
}
