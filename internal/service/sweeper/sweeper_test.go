package sweeper_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayushagrawal/box-office/internal/domain"
	"github.com/ayushagrawal/box-office/internal/repository/memory"
	"github.com/ayushagrawal/box-office/internal/service/sweeper"
)

// fakeClock is advanced by the test between sweep cycles.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedHold(t *testing.T, store *memory.Store, eventID uuid.UUID, qty int, expiresAt time.Time) domain.Hold {
	t.Helper()

	hold := domain.Hold{
		ID:        uuid.New(),
		EventID:   eventID,
		Qty:       qty,
		Status:    domain.HoldActive,
		Token:     uuid.New(),
		CreatedAt: testNow,
		ExpiresAt: expiresAt,
	}
	require.NoError(t, store.Holds().Create(context.Background(), hold))

	return hold
}

func TestSweepOnce(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	clk := &fakeClock{now: testNow}
	ctx := context.Background()

	event := domain.Event{ID: uuid.New(), Name: "test event", TotalSeats: 20, CreatedAt: testNow}
	require.NoError(t, store.Events().Create(ctx, event))

	overdue1 := seedHold(t, store, event.ID, 3, testNow.Add(time.Minute))
	overdue2 := seedHold(t, store, event.ID, 5, testNow.Add(2*time.Minute))
	fresh := seedHold(t, store, event.ID, 2, testNow.Add(time.Hour))

	svc := sweeper.New(store, clk, discardLogger(), nil, nil, nil, sweeper.Config{Interval: time.Second})

	// Nothing is due yet.
	expired, err := svc.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, expired)

	clk.Advance(5 * time.Minute)

	expired, err = svc.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, expired)

	for _, id := range []uuid.UUID{overdue1.ID, overdue2.ID} {
		h, err := store.Holds().Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.HoldExpired, h.Status)
	}

	h, err := store.Holds().Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.HoldActive, h.Status)

	// Inventory for the expired holds is back.
	counts, err := store.Ledger().Counts(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SeatCounts{Total: 20, Held: 2, Available: 18}, counts)

	// A second pass finds nothing new.
	expired, err = svc.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, expired)
}

// A hold confirmed between the scan and the transition must not be
// reverted by the sweeper.
func TestSweepOnce_SkipsConfirmedHold(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	clk := &fakeClock{now: testNow}
	ctx := context.Background()

	event := domain.Event{ID: uuid.New(), Name: "test event", TotalSeats: 10, CreatedAt: testNow}
	require.NoError(t, store.Events().Create(ctx, event))

	hold := seedHold(t, store, event.ID, 4, testNow.Add(time.Minute))

	require.NoError(t, store.Bookings().ConfirmHold(ctx, domain.Booking{
		ID:        uuid.New(),
		HoldID:    hold.ID,
		EventID:   event.ID,
		Qty:       hold.Qty,
		CreatedAt: testNow,
	}))

	clk.Advance(5 * time.Minute)

	svc := sweeper.New(store, clk, discardLogger(), nil, nil, nil, sweeper.Config{Interval: time.Second})

	expired, err := svc.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, expired)

	counts, err := store.Ledger().Counts(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SeatCounts{Total: 10, Booked: 4, Available: 6}, counts)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	clk := &fakeClock{now: testNow}

	svc := sweeper.New(store, clk, discardLogger(), nil, nil, nil, sweeper.Config{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
