package registry

import "errors"

var (
	ErrEventNotFound = errors.New("event not found")
	ErrInvalidName   = errors.New("event name must not be empty")
	ErrInvalidSeats  = errors.New("total seats must be positive")
)
