// Package resilience wraps outbound calls with circuit breaking.
package resilience

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/temcen/cartrec/internal/config"
)

// NewCircuitBreaker builds a breaker that opens after FailureThreshold
// consecutive failures. isSuccessful may be nil; otherwise it decides which
// errors count against the breaker. Errors marked with CallerAborted are
// counted neither as success nor as failure.
func NewCircuitBreaker[T any](
	name string,
	cfg config.BreakerConfig,
	logger *logrus.Logger,
	isSuccessful func(error) bool,
) *gobreaker.CircuitBreaker[T] {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger == nil {
				return
			}
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
		IsSuccessful: isSuccessful,
		IsExcluded:   IsCallerAbort,
	}

	return gobreaker.NewCircuitBreaker[T](settings)
}

// IsOpen reports whether calls through cb are currently rejected.
func IsOpen[T any](cb *gobreaker.CircuitBreaker[T]) bool {
	return cb.State() == gobreaker.StateOpen
}

// callerAbortError is a call failure observed after the caller's own context
// had already ended.
type callerAbortError struct {
	err error
}

func (e *callerAbortError) Error() string { return e.err.Error() }
func (e *callerAbortError) Unwrap() error { return e.err }

// CallerAborted marks err as caused by the caller when ctx is done, so a
// breaker built by NewCircuitBreaker ignores it. Call it inside the function
// passed to Execute.
func CallerAborted(ctx context.Context, err error) error {
	if err == nil || ctx.Err() == nil {
		return err
	}
	return &callerAbortError{err: err}
}

// IsCallerAbort reports whether err was marked by CallerAborted.
func IsCallerAbort(err error) bool {
	var abort *callerAbortError
	return errors.As(err, &abort)
}
