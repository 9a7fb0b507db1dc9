package service

import "errors"

// Sentinel errors returned by the service. Validation failures match
// validation.ErrInvalid and missing records match repository.ErrNotFound.
var (
	ErrNotStarted       = errors.New("service not started")
	ErrDuplicateSegment = errors.New("segment already submitted")
	ErrBusy             = errors.New("segment queue full")
	ErrSegmentNotFound  = errors.New("segment not found")
)
