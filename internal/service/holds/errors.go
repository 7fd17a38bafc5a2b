package holds

import "errors"

var (
	ErrInvalidQuantity   = errors.New("invalid hold quantity")
	ErrInsufficientSeats = errors.New("insufficient seats available")
	ErrEventNotFound     = errors.New("event not found")
	ErrHoldNotFound      = errors.New("hold not found")
	ErrInvalidState      = errors.New("hold is not active")
	ErrRateLimited       = errors.New("rate limited")
)
