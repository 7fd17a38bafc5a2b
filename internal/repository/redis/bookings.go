package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ayushagrawal/box-office/internal/domain"
	"github.com/ayushagrawal/box-office/internal/repository"
)

// KEYS: hold, held, booked, booking, booking-by-hold, expiry zset
// ARGV: booking JSON, booking ID, hold ID
const luaConfirmHold = `
local payload = redis.call('GET', KEYS[1])
if not payload then return -1 end
local hold = cjson.decode(payload)
if hold['status'] ~= 'active' then return -3 end
if redis.call('EXISTS', KEYS[5]) == 1 then return -5 end
local held = tonumber(redis.call('GET', KEYS[2]) or '0')
if hold['qty'] > held then return -4 end
hold['status'] = 'confirmed'
redis.call('DECRBY', KEYS[2], hold['qty'])
redis.call('INCRBY', KEYS[3], hold['qty'])
redis.call('SET', KEYS[1], cjson.encode(hold))
redis.call('SET', KEYS[4], ARGV[1])
redis.call('SET', KEYS[5], ARGV[2])
redis.call('ZREM', KEYS[6], ARGV[3])
return 1
`

var scriptConfirmHold = redis.NewScript(luaConfirmHold)

type bookingRepo struct {
	rdb *redis.Client
}

func (r *bookingRepo) ConfirmHold(ctx context.Context, booking domain.Booking) error {
	const op = "redis.bookingRepo.ConfirmHold"

	payload, err := encodeBooking(booking)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	keys := []string{
		keyHold(booking.HoldID),
		keyHeld(booking.EventID),
		keyBooked(booking.EventID),
		keyBooking(booking.ID),
		keyBookingByHold(booking.HoldID),
		keyHoldExpiry,
	}

	code, err := scriptConfirmHold.Run(ctx, r.rdb, keys,
		payload, booking.ID.String(), booking.HoldID.String()).Int()
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if err := codeToErr(code); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (r *bookingRepo) Get(ctx context.Context, bookingID uuid.UUID) (domain.Booking, error) {
	const op = "redis.bookingRepo.Get"

	payload, err := r.rdb.Get(ctx, keyBooking(bookingID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Booking{}, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	if err != nil {
		return domain.Booking{}, fmt.Errorf("%s:%w", op, err)
	}

	booking, err := decodeBooking(payload)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("%s:%w", op, err)
	}

	return booking, nil
}

func (r *bookingRepo) GetByHold(ctx context.Context, holdID uuid.UUID) (domain.Booking, error) {
	const op = "redis.bookingRepo.GetByHold"

	id, err := r.rdb.Get(ctx, keyBookingByHold(holdID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Booking{}, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	if err != nil {
		return domain.Booking{}, fmt.Errorf("%s:%w", op, err)
	}

	bookingID, err := uuid.Parse(id)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("%s:%w", op, err)
	}

	return r.Get(ctx, bookingID)
}
