package metrics

import (
	"errors"
)

// Sentinel kinds for metrics errors.
var (
	ErrUnknownManager = errors.New("metrics manager not initialized")
)
