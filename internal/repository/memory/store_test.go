package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayushagrawal/box-office/internal/domain"
	"github.com/ayushagrawal/box-office/internal/repository"
	"github.com/ayushagrawal/box-office/internal/repository/memory"
)

func newEvent(total int) domain.Event {
	return domain.Event{
		ID:         uuid.New(),
		Name:       "test event",
		TotalSeats: total,
		CreatedAt:  time.Now().UTC(),
	}
}

func newHold(eventID uuid.UUID, qty int, expiresAt time.Time) domain.Hold {
	return domain.Hold{
		ID:        uuid.New(),
		EventID:   eventID,
		Qty:       qty,
		Status:    domain.HoldActive,
		Token:     uuid.New(),
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt,
	}
}

func TestEventRepo_CreateAndGet(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	ctx := context.Background()

	event := newEvent(100)
	require.NoError(t, store.Events().Create(ctx, event))

	got, err := store.Events().Get(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, event, got)

	counts, err := store.Ledger().Counts(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SeatCounts{Total: 100, Available: 100}, counts)
}

func TestEventRepo_CreateDuplicate(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	ctx := context.Background()

	event := newEvent(10)
	require.NoError(t, store.Events().Create(ctx, event))

	err := store.Events().Create(ctx, event)
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestEventRepo_GetMissing(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()

	_, err := store.Events().Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestHoldRepo_CreateReservesSeats(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	ctx := context.Background()

	event := newEvent(10)
	require.NoError(t, store.Events().Create(ctx, event))

	hold := newHold(event.ID, 7, time.Now().Add(time.Minute))
	require.NoError(t, store.Holds().Create(ctx, hold))

	counts, err := store.Ledger().Counts(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SeatCounts{Total: 10, Held: 7, Available: 3}, counts)

	// Not enough left for 5.
	err = store.Holds().Create(ctx, newHold(event.ID, 5, time.Now().Add(time.Minute)))
	assert.ErrorIs(t, err, repository.ErrInsufficientSeats)

	// 3 still fits.
	require.NoError(t, store.Holds().Create(ctx, newHold(event.ID, 3, time.Now().Add(time.Minute))))

	counts, err = store.Ledger().Counts(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SeatCounts{Total: 10, Held: 10, Available: 0}, counts)
}

func TestHoldRepo_CreateUnknownEvent(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()

	err := store.Holds().Create(context.Background(), newHold(uuid.New(), 1, time.Now().Add(time.Minute)))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestHoldRepo_CancelReleasesSeats(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	ctx := context.Background()

	event := newEvent(10)
	require.NoError(t, store.Events().Create(ctx, event))

	hold := newHold(event.ID, 4, time.Now().Add(time.Minute))
	require.NoError(t, store.Holds().Create(ctx, hold))

	cancelled, err := store.Holds().Cancel(ctx, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.HoldCancelled, cancelled.Status)

	counts, err := store.Ledger().Counts(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SeatCounts{Total: 10, Available: 10}, counts)

	// Second cancel loses the CAS.
	_, err = store.Holds().Cancel(ctx, hold.ID)
	assert.ErrorIs(t, err, repository.ErrInvalidState)
}

func TestHoldRepo_ExpireThenConfirmFails(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	ctx := context.Background()

	event := newEvent(10)
	require.NoError(t, store.Events().Create(ctx, event))

	hold := newHold(event.ID, 2, time.Now().Add(time.Minute))
	require.NoError(t, store.Holds().Create(ctx, hold))

	_, err := store.Holds().Expire(ctx, hold.ID)
	require.NoError(t, err)

	err = store.Bookings().ConfirmHold(ctx, domain.Booking{
		ID:      uuid.New(),
		HoldID:  hold.ID,
		EventID: event.ID,
		Qty:     hold.Qty,
	})
	assert.ErrorIs(t, err, repository.ErrInvalidState)

	counts, err := store.Ledger().Counts(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SeatCounts{Total: 10, Available: 10}, counts)
}

func TestBookingRepo_ConfirmHoldMovesSeats(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	ctx := context.Background()

	event := newEvent(10)
	require.NoError(t, store.Events().Create(ctx, event))

	hold := newHold(event.ID, 6, time.Now().Add(time.Minute))
	require.NoError(t, store.Holds().Create(ctx, hold))

	booking := domain.Booking{
		ID:        uuid.New(),
		HoldID:    hold.ID,
		EventID:   event.ID,
		Qty:       hold.Qty,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Bookings().ConfirmHold(ctx, booking))

	counts, err := store.Ledger().Counts(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SeatCounts{Total: 10, Booked: 6, Available: 4}, counts)

	got, err := store.Bookings().Get(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking, got)

	byHold, err := store.Bookings().GetByHold(ctx, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, byHold.ID)

	// The hold is now confirmed; expiring it must lose.
	_, err = store.Holds().Expire(ctx, hold.ID)
	assert.ErrorIs(t, err, repository.ErrInvalidState)
}

func TestLedger_ReleaseUnderflow(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	ctx := context.Background()

	event := newEvent(10)
	require.NoError(t, store.Events().Create(ctx, event))

	err := store.Ledger().Release(ctx, event.ID, 1)
	assert.ErrorIs(t, err, repository.ErrLedgerUnderflow)
}

func TestHoldRepo_ListExpired(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	ctx := context.Background()
	now := time.Now().UTC()

	event := newEvent(100)
	require.NoError(t, store.Events().Create(ctx, event))

	overdue := newHold(event.ID, 1, now.Add(-time.Second))
	fresh := newHold(event.ID, 1, now.Add(time.Hour))
	exactly := newHold(event.ID, 1, now)
	require.NoError(t, store.Holds().Create(ctx, overdue))
	require.NoError(t, store.Holds().Create(ctx, fresh))
	require.NoError(t, store.Holds().Create(ctx, exactly))

	expired, err := store.Holds().ListExpired(ctx, now)
	require.NoError(t, err)

	ids := make(map[uuid.UUID]bool, len(expired))
	for _, h := range expired {
		ids[h.ID] = true
	}

	// expires_at == now counts as expired.
	assert.True(t, ids[overdue.ID])
	assert.True(t, ids[exactly.ID])
	assert.False(t, ids[fresh.ID])
}

// Hammer one event from many goroutines and check the ledger never sells
// more than TotalSeats.
func TestStore_NoOversellUnderConcurrency(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	ctx := context.Background()

	const totalSeats = 50

	event := newEvent(totalSeats)
	require.NoError(t, store.Events().Create(ctx, event))

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hold := newHold(event.ID, 3, time.Now().Add(time.Minute))
			if err := store.Holds().Create(ctx, hold); err != nil {
				return
			}
			_ = store.Bookings().ConfirmHold(ctx, domain.Booking{
				ID:      uuid.New(),
				HoldID:  hold.ID,
				EventID: event.ID,
				Qty:     hold.Qty,
			})
		}()
	}
	wg.Wait()

	counts, err := store.Ledger().Counts(ctx, event.ID)
	require.NoError(t, err)

	assert.Equal(t, totalSeats, counts.Total)
	assert.GreaterOrEqual(t, counts.Available, 0)
	assert.Equal(t, counts.Total, counts.Held+counts.Booked+counts.Available)
	assert.Zero(t, counts.Held)
}

// Race Expire against ConfirmHold on the same active hold: exactly one
// transition may win.
func TestStore_ExpireConfirmRace(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		event := newEvent(10)
		require.NoError(t, store.Events().Create(ctx, event))

		hold := newHold(event.ID, 5, time.Now().Add(time.Minute))
		require.NoError(t, store.Holds().Create(ctx, hold))

		var (
			wg         sync.WaitGroup
			expireErr  error
			confirmErr error
		)

		wg.Add(2)
		go func() {
			defer wg.Done()
			_, expireErr = store.Holds().Expire(ctx, hold.ID)
		}()
		go func() {
			defer wg.Done()
			confirmErr = store.Bookings().ConfirmHold(ctx, domain.Booking{
				ID:      uuid.New(),
				HoldID:  hold.ID,
				EventID: event.ID,
				Qty:     hold.Qty,
			})
		}()
		wg.Wait()

		if expireErr == nil {
			require.ErrorIs(t, confirmErr, repository.ErrInvalidState)
		} else {
			require.NoError(t, confirmErr)
			require.ErrorIs(t, expireErr, repository.ErrInvalidState)
		}

		counts, err := store.Ledger().Counts(ctx, event.ID)
		require.NoError(t, err)
		require.Zero(t, counts.Held)
		require.Equal(t, 10, counts.Booked+counts.Available)
	}
}
