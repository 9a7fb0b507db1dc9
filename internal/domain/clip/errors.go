package clip

import "errors"

var (
	// ErrUnknownStatus is returned for completions with an unexpected status.
	ErrUnknownStatus = errors.New("unknown completion status")
	// ErrSubmit wraps transcoder submission failures.
	ErrSubmit = errors.New("clip submission failed")

	errAlreadyGenerated = errors.New("clip already generated")
	errNotProcessing    = errors.New("clip not processing")
)

// failureMessage is stored on highlights whose clip job failed.
const failureMessage = "clip generation failed"
