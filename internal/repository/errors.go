package repository

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientSeats = errors.New("insufficient seats")
	ErrInvalidState      = errors.New("invalid hold state")
	ErrLedgerUnderflow   = errors.New("ledger counter underflow")
)
