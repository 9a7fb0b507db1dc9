package textanalytics

import "errors"

// ErrEmptyText is returned for blank input; the API rejects it anyway.
var ErrEmptyText = errors.New("empty text")
