// Package memory implements the storage contract with in-process state.
//
// Two levels of locking are involved. Store.mu guards the maps and every
// record field for memory safety. Each event additionally carries its own
// mutex that serializes check-then-act sequences (reserve, hold
// transitions, booking creation) for that event only, so operations on
// different events proceed in parallel.
//
// Lock order: eventEntry.mu before Store.mu, never the reverse.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/ayushagrawal/box-office/internal/domain"
	"github.com/ayushagrawal/box-office/internal/repository"
)

type Store struct {
	mu       sync.RWMutex
	events   map[uuid.UUID]*eventEntry
	holds    map[uuid.UUID]*domain.Hold
	bookings map[uuid.UUID]*domain.Booking
	byHold   map[uuid.UUID]uuid.UUID
}

type eventEntry struct {
	mu     sync.Mutex
	event  domain.Event
	held   int
	booked int
}

func NewStore() *Store {
	return &Store{
		events:   make(map[uuid.UUID]*eventEntry),
		holds:    make(map[uuid.UUID]*domain.Hold),
		bookings: make(map[uuid.UUID]*domain.Booking),
		byHold:   make(map[uuid.UUID]uuid.UUID),
	}
}

var _ repository.Store = (*Store)(nil)

func (s *Store) Events() repository.EventRepository     { return &eventRepo{store: s} }
func (s *Store) Holds() repository.HoldRepository       { return &holdRepo{store: s} }
func (s *Store) Bookings() repository.BookingRepository { return &bookingRepo{store: s} }
func (s *Store) Ledger() repository.Ledger              { return &ledger{store: s} }

func (s *Store) entry(eventID uuid.UUID) (*eventEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[eventID]
	return e, ok
}
