package transcoder

import "errors"

// ErrNoJobID is returned when the service accepts a job without an ID.
var ErrNoJobID = errors.New("transcoder returned no job id")
