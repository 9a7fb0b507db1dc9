package jobs

import "errors"

// Sentinel kinds for job polling.
var (
	ErrJobFailed     = errors.New("job failed")
	ErrPollExhausted = errors.New("job poll attempts exhausted")
	ErrPollTimeout   = errors.New("job poll timed out")
)
