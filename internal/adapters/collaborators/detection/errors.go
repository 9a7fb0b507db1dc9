package detection

import "errors"

// Sentinel errors.
var (
	ErrNoJobID      = errors.New("service returned no job id")
	ErrTooManyPages = errors.New("too many result pages")
)
