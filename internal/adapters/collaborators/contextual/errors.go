package contextual

import "errors"

// Sentinel errors. Both make the merge layer fall back for the whole batch.
var (
	ErrEmptyResponse     = errors.New("model returned no content")
	ErrMalformedResponse = errors.New("model returned malformed json")
)
