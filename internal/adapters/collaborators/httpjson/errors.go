package httpjson

import "errors"

// ErrInvalidBaseURL is returned by New for unusable base URLs.
var ErrInvalidBaseURL = errors.New("invalid base url")
