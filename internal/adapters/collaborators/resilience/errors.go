package resilience

import "errors"

// ErrOpen marks calls short-circuited by an open breaker.
var ErrOpen = errors.New("circuit open")
