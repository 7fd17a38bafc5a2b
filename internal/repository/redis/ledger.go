package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ayushagrawal/box-office/internal/domain"
	"github.com/ayushagrawal/box-office/internal/repository"
)

// Each ledger mutation is one Lua script so the availability check and
// the counter update land as a single atomic unit on the server.
//
// KEYS[1] = event record, KEYS[2] = held counter, KEYS[3] = booked counter

const luaReserve = `
local ev = redis.call('GET', KEYS[1])
if not ev then return -1 end
local total = cjson.decode(ev)['total_seats']
local held = tonumber(redis.call('GET', KEYS[2]) or '0')
local booked = tonumber(redis.call('GET', KEYS[3]) or '0')
local qty = tonumber(ARGV[1])
if total - held - booked < qty then return -2 end
redis.call('INCRBY', KEYS[2], qty)
return 1
`

const luaRelease = `
if redis.call('EXISTS', KEYS[1]) == 0 then return -1 end
local held = tonumber(redis.call('GET', KEYS[2]) or '0')
local qty = tonumber(ARGV[1])
if qty > held then return -4 end
redis.call('DECRBY', KEYS[2], qty)
return 1
`

const luaConfirm = `
if redis.call('EXISTS', KEYS[1]) == 0 then return -1 end
local held = tonumber(redis.call('GET', KEYS[2]) or '0')
local qty = tonumber(ARGV[1])
if qty > held then return -4 end
redis.call('DECRBY', KEYS[2], qty)
redis.call('INCRBY', KEYS[3], qty)
return 1
`

const luaCounts = `
local ev = redis.call('GET', KEYS[1])
if not ev then return false end
local held = redis.call('GET', KEYS[2]) or '0'
local booked = redis.call('GET', KEYS[3]) or '0'
return {ev, held, booked}
`

var (
	scriptReserve        = redis.NewScript(luaReserve)
	scriptRelease        = redis.NewScript(luaRelease)
	scriptConfirmCounts  = redis.NewScript(luaConfirm)
	scriptStatusSnapshot = redis.NewScript(luaCounts)
)

type ledger struct {
	rdb *redis.Client
}

func (l *ledger) Reserve(ctx context.Context, eventID uuid.UUID, qty int) error {
	const op = "redis.ledger.Reserve"
	return l.run(ctx, op, scriptReserve, eventID, qty)
}

func (l *ledger) Release(ctx context.Context, eventID uuid.UUID, qty int) error {
	const op = "redis.ledger.Release"
	return l.run(ctx, op, scriptRelease, eventID, qty)
}

func (l *ledger) Confirm(ctx context.Context, eventID uuid.UUID, qty int) error {
	const op = "redis.ledger.Confirm"
	return l.run(ctx, op, scriptConfirmCounts, eventID, qty)
}

func (l *ledger) run(
	ctx context.Context,
	op string,
	script *redis.Script,
	eventID uuid.UUID,
	qty int,
) error {
	keys := []string{keyEvent(eventID), keyHeld(eventID), keyBooked(eventID)}

	res, err := script.Run(ctx, l.rdb, keys, qty).Int()
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if err := codeToErr(res); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (l *ledger) Counts(ctx context.Context, eventID uuid.UUID) (domain.SeatCounts, error) {
	const op = "redis.ledger.Counts"

	keys := []string{keyEvent(eventID), keyHeld(eventID), keyBooked(eventID)}

	res, err := scriptStatusSnapshot.Run(ctx, l.rdb, keys).Slice()
	if err != nil {
		if err == redis.Nil {
			return domain.SeatCounts{}, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
		}

		return domain.SeatCounts{}, fmt.Errorf("%s:%w", op, err)
	}

	if len(res) != 3 {
		return domain.SeatCounts{}, fmt.Errorf("%s: bad script result: %v", op, res)
	}

	var rec eventRecord
	if err := json.Unmarshal([]byte(asString(res[0])), &rec); err != nil {
		return domain.SeatCounts{}, fmt.Errorf("%s:%w", op, err)
	}

	held := asInt(res[1])
	booked := asInt(res[2])

	return domain.SeatCounts{
		Total:     rec.TotalSeats,
		Held:      held,
		Booked:    booked,
		Available: rec.TotalSeats - held - booked,
	}, nil
}

func codeToErr(code int) error {
	switch code {
	case scriptOK:
		return nil
	case scriptNotFound:
		return repository.ErrNotFound
	case scriptInsufficient:
		return repository.ErrInsufficientSeats
	case scriptInvalidState:
		return repository.ErrInvalidState
	case scriptUnderflow:
		return repository.ErrLedgerUnderflow
	case scriptConflict:
		return repository.ErrConflict
	default:
		return fmt.Errorf("unexpected script result %d", code)
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch t := v.(type) {
	case int64:
		return int(t)
	case int:
		return t
	case string:
		var x int
		fmt.Sscan(t, &x)
		return x
	default:
		return 0
	}
}
