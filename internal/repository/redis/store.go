// Package redis implements the storage contract on a Redis server.
//
// Ledger math and hold transitions are Lua scripts: each script runs as
// one atomic unit on the server, which is what gives the per-event
// check-then-act its serialization. Records are stored as JSON strings
// so the scripts can inspect and rewrite them with cjson.
package redis

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ayushagrawal/box-office/internal/domain"
	"github.com/ayushagrawal/box-office/internal/repository"
)

type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

var _ repository.Store = (*Store)(nil)

func (s *Store) Events() repository.EventRepository     { return &eventRepo{rdb: s.rdb} }
func (s *Store) Holds() repository.HoldRepository       { return &holdRepo{rdb: s.rdb} }
func (s *Store) Bookings() repository.BookingRepository { return &bookingRepo{rdb: s.rdb} }
func (s *Store) Ledger() repository.Ledger              { return &ledger{rdb: s.rdb} }

// Script result codes shared by the ledger and lifecycle scripts.
const (
	scriptOK           = 1
	scriptNotFound     = -1
	scriptInsufficient = -2
	scriptInvalidState = -3
	scriptUnderflow    = -4
	scriptConflict     = -5
)

type eventRecord struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	TotalSeats int       `json:"total_seats"`
	CreatedAt  time.Time `json:"created_at"`
}

type holdRecord struct {
	ID        uuid.UUID `json:"id"`
	EventID   uuid.UUID `json:"event_id"`
	Qty       int       `json:"qty"`
	Status    string    `json:"status"`
	Token     uuid.UUID `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type bookingRecord struct {
	ID        uuid.UUID `json:"id"`
	HoldID    uuid.UUID `json:"hold_id"`
	EventID   uuid.UUID `json:"event_id"`
	Qty       int       `json:"qty"`
	CreatedAt time.Time `json:"created_at"`
}

func encodeHold(h domain.Hold) (string, error) {
	b, err := json.Marshal(holdRecord{
		ID:        h.ID,
		EventID:   h.EventID,
		Qty:       h.Qty,
		Status:    string(h.Status),
		Token:     h.Token,
		CreatedAt: h.CreatedAt,
		ExpiresAt: h.ExpiresAt,
	})
	if err != nil {
		return "", err
	}

	return string(b), nil
}

func decodeHold(payload string) (domain.Hold, error) {
	var rec holdRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return domain.Hold{}, err
	}

	return domain.Hold{
		ID:        rec.ID,
		EventID:   rec.EventID,
		Qty:       rec.Qty,
		Status:    domain.HoldStatus(rec.Status),
		Token:     rec.Token,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

func encodeBooking(b domain.Booking) (string, error) {
	raw, err := json.Marshal(bookingRecord{
		ID:        b.ID,
		HoldID:    b.HoldID,
		EventID:   b.EventID,
		Qty:       b.Qty,
		CreatedAt: b.CreatedAt,
	})
	if err != nil {
		return "", err
	}

	return string(raw), nil
}

func decodeBooking(payload string) (domain.Booking, error) {
	var rec bookingRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return domain.Booking{}, err
	}

	return domain.Booking{
		ID:        rec.ID,
		HoldID:    rec.HoldID,
		EventID:   rec.EventID,
		Qty:       rec.Qty,
		CreatedAt: rec.CreatedAt,
	}, nil
}
