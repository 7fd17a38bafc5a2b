package booking

import "errors"

var (
	ErrHoldNotFound    = errors.New("hold not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrTokenMismatch   = errors.New("invalid confirmation token")
	ErrHoldExpired     = errors.New("hold has expired")
	ErrAlreadyTerminal = errors.New("hold is cancelled")
)
