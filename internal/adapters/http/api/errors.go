package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/highlights/internal/adapters/repository"
	service "github.com/okian/highlights/internal/app"
	"github.com/okian/highlights/internal/validation"
	"github.com/okian/highlights/pkg/logger"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrRateLimited = errors.New("rate limit exceeded")
)

// WrapKind tags err with a sentinel kind and the failing operation.
func WrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// NewKind returns a kind error for op with no further cause.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// respond maps a service error to its status and code. 5xx errors are
// logged; the rest are the caller's fault.
func respond(ctx context.Context, w http.ResponseWriter, log logger.Logger, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "invalid_input", Message: verr.Error(), Fields: verr.Fields})
	case errors.Is(err, ErrBadRequest), errors.Is(err, validation.ErrInvalid):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, service.ErrSegmentNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrDuplicateSegment):
		writeError(w, http.StatusConflict, "duplicate", err)
	case errors.Is(err, service.ErrBusy):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "timeout", err)
	default:
		log.Error(ctx, "request failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
