package domain

import (
	"time"

	"github.com/google/uuid"
)

type HoldStatus string

const (
	HoldActive    HoldStatus = "active"
	HoldConfirmed HoldStatus = "confirmed"
	HoldExpired   HoldStatus = "expired"
	HoldCancelled HoldStatus = "cancelled"
)

// Terminal reports whether no further transitions are permitted from s.
func (s HoldStatus) Terminal() bool {
	return s == HoldConfirmed || s == HoldExpired || s == HoldCancelled
}

type Event struct {
	ID         uuid.UUID
	Name       string
	TotalSeats int
	CreatedAt  time.Time
}

// SeatCounts are the per-event ledger counters. Available is derived from
// the other three and never stored.
type SeatCounts struct {
	Total     int
	Held      int
	Booked    int
	Available int
}

type Hold struct {
	ID        uuid.UUID
	EventID   uuid.UUID
	Qty       int
	Status    HoldStatus
	Token     uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// ExpiredAt reports whether the hold's TTL has lapsed at the given instant,
// regardless of whether the sweeper has observed it yet.
func (h Hold) ExpiredAt(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}

type Booking struct {
	ID        uuid.UUID
	HoldID    uuid.UUID
	EventID   uuid.UUID
	Qty       int
	CreatedAt time.Time
}
