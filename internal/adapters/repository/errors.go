package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("highlight not found")
	ErrInvalidID     = errors.New("invalid highlight id")
	ErrBatchTooLarge = errors.New("batch too large")
	ErrClosed        = errors.New("store closed")
	ErrConflict      = errors.New("concurrent update conflict")
)
