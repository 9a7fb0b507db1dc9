package simulate

import "errors"

// ErrUnknownJob is returned when polling an ID the simulator never issued.
var ErrUnknownJob = errors.New("unknown job")
