package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ayushagrawal/box-office/internal/domain"
	"github.com/ayushagrawal/box-office/internal/repository"
)

// Hold creation and release are single Lua scripts covering both the
// ledger counters and the hold record, so no interleaving can observe a
// half-applied transition.

// KEYS: event, held, booked, hold, expiry zset
// ARGV: qty, hold JSON, hold ID, expiry unix score
const luaCreateHold = `
local ev = redis.call('GET', KEYS[1])
if not ev then return -1 end
if redis.call('EXISTS', KEYS[4]) == 1 then return -5 end
local total = cjson.decode(ev)['total_seats']
local held = tonumber(redis.call('GET', KEYS[2]) or '0')
local booked = tonumber(redis.call('GET', KEYS[3]) or '0')
local qty = tonumber(ARGV[1])
if total - held - booked < qty then return -2 end
redis.call('INCRBY', KEYS[2], qty)
redis.call('SET', KEYS[4], ARGV[2])
redis.call('ZADD', KEYS[5], tonumber(ARGV[4]), ARGV[3])
return 1
`

// KEYS: hold, held, expiry zset
// ARGV: target status, hold ID
const luaReleaseHold = `
local payload = redis.call('GET', KEYS[1])
if not payload then return -1 end
local hold = cjson.decode(payload)
if hold['status'] ~= 'active' then return -3 end
local held = tonumber(redis.call('GET', KEYS[2]) or '0')
if hold['qty'] > held then return -4 end
hold['status'] = ARGV[1]
redis.call('DECRBY', KEYS[2], hold['qty'])
redis.call('SET', KEYS[1], cjson.encode(hold))
redis.call('ZREM', KEYS[3], ARGV[2])
return redis.call('GET', KEYS[1])
`

var (
	scriptCreateHold  = redis.NewScript(luaCreateHold)
	scriptReleaseHold = redis.NewScript(luaReleaseHold)
)

type holdRepo struct {
	rdb *redis.Client
}

func (r *holdRepo) Create(ctx context.Context, hold domain.Hold) error {
	const op = "redis.holdRepo.Create"

	payload, err := encodeHold(hold)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	keys := []string{
		keyEvent(hold.EventID),
		keyHeld(hold.EventID),
		keyBooked(hold.EventID),
		keyHold(hold.ID),
		keyHoldExpiry,
	}

	code, err := scriptCreateHold.Run(ctx, r.rdb, keys,
		hold.Qty, payload, hold.ID.String(), hold.ExpiresAt.Unix()).Int()
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if err := codeToErr(code); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (r *holdRepo) Get(ctx context.Context, holdID uuid.UUID) (domain.Hold, error) {
	const op = "redis.holdRepo.Get"

	payload, err := r.rdb.Get(ctx, keyHold(holdID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Hold{}, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	if err != nil {
		return domain.Hold{}, fmt.Errorf("%s:%w", op, err)
	}

	hold, err := decodeHold(payload)
	if err != nil {
		return domain.Hold{}, fmt.Errorf("%s:%w", op, err)
	}

	return hold, nil
}

func (r *holdRepo) Cancel(ctx context.Context, holdID uuid.UUID) (domain.Hold, error) {
	const op = "redis.holdRepo.Cancel"
	return r.release(ctx, op, holdID, domain.HoldCancelled)
}

func (r *holdRepo) Expire(ctx context.Context, holdID uuid.UUID) (domain.Hold, error) {
	const op = "redis.holdRepo.Expire"
	return r.release(ctx, op, holdID, domain.HoldExpired)
}

func (r *holdRepo) release(
	ctx context.Context,
	op string,
	holdID uuid.UUID,
	to domain.HoldStatus,
) (domain.Hold, error) {
	// The event ID is needed for the counter key; read it from the
	// record first. The script re-reads and re-checks the record, so the
	// two-step lookup cannot race the transition itself.
	current, err := r.Get(ctx, holdID)
	if err != nil {
		return domain.Hold{}, fmt.Errorf("%s:%w", op, err)
	}

	keys := []string{keyHold(holdID), keyHeld(current.EventID), keyHoldExpiry}

	res, err := scriptReleaseHold.Run(ctx, r.rdb, keys, string(to), holdID.String()).Result()
	if err != nil {
		return domain.Hold{}, fmt.Errorf("%s:%w", op, err)
	}

	if code, ok := res.(int64); ok {
		if err := codeToErr(int(code)); err != nil {
			return domain.Hold{}, fmt.Errorf("%s:%w", op, err)
		}
	}

	hold, err := decodeHold(asString(res))
	if err != nil {
		return domain.Hold{}, fmt.Errorf("%s:%w", op, err)
	}

	return hold, nil
}

func (r *holdRepo) ListExpired(ctx context.Context, now time.Time) ([]domain.Hold, error) {
	const op = "redis.holdRepo.ListExpired"

	ids, err := r.rdb.ZRangeByScore(ctx, keyHoldExpiry, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now.Unix()),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	var expired []domain.Hold
	for _, id := range ids {
		holdID, err := uuid.Parse(id)
		if err != nil {
			continue
		}

		hold, err := r.Get(ctx, holdID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("%s:%w", op, err)
		}

		if hold.Status == domain.HoldActive && hold.ExpiredAt(now) {
			expired = append(expired, hold)
		}
	}

	return expired, nil
}
