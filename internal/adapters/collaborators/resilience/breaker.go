// Package resilience guards collaborator calls with circuit breakers so a
// failing dependency degrades to fallbacks instead of stalling the pipeline.
package resilience

import (
	"context"
	"errors"
	"fmt"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/okian/highlights/pkg/logger"
	"github.com/okian/highlights/pkg/metrics"
)

// Breaker is a named circuit breaker reporting its state to metrics.
type Breaker struct {
	name   string
	cb     *gobreaker.CircuitBreaker[any]
	logger logger.Logger
}

// New creates a closed breaker.
func New(name string, opts ...Option) *Breaker {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	b := &Breaker{name: name, logger: cfg.logger.With(logger.String("breaker", name))}

	metrics.UpdateBreakerState(name, stateToFloat(gobreaker.StateClosed))
	b.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.maxRequests,
		Interval:    cfg.interval,
		Timeout:     cfg.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.minRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.failureRatio
		},
		IsSuccessful: func(err error) bool {
			// The caller giving up is not the dependency failing.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Warn(context.Background(), "circuit breaker state change",
				logger.String("from", from.String()), logger.String("to", to.String()))
			metrics.UpdateBreakerState(name, stateToFloat(to))
		},
	})
	return b
}

// Name returns the breaker name.
func (b *Breaker) Name() string { return b.name }

// State returns the current state as "closed", "half-open" or "open".
func (b *Breaker) State() string { return b.cb.State().String() }

// Execute runs fn through b. While open, fn is not called and the returned
// error matches ErrOpen.
func Execute[T any](ctx context.Context, b *Breaker, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	res, err := b.cb.Execute(func() (any, error) {
		return fn(ctx)
	})
	if err != nil {
		if Rejected(err) {
			metrics.RecordErrorByComponent("breaker", b.name)
			return zero, fmt.Errorf("%s: %w", b.name, errors.Join(ErrOpen, err))
		}
		return zero, err
	}
	v, ok := res.(T)
	if !ok && res != nil {
		return zero, fmt.Errorf("%s: unexpected result type %T", b.name, res)
	}
	return v, nil
}

// Rejected reports whether err came from an open or saturated breaker.
func Rejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
