// Package retry runs an operation with capped exponential backoff and
// reports how the attempts ended.
package retry

import (
	"context"
	"errors"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

// Outcome is how a retried operation ended.
type Outcome int

const (
	// Succeeded means an attempt returned nil.
	Succeeded Outcome = iota
	// Exhausted means every attempt failed with a transient error.
	Exhausted
	// Aborted means an attempt returned a permanent error or the context ended.
	Aborted
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Exhausted:
		return "exhausted"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Policy bounds the retry loop.
type Policy struct {
	// MaxAttempts includes the first attempt. Values below 1 mean 1.
	MaxAttempts int
	// BaseDelay is the first backoff; it doubles per retry.
	BaseDelay time.Duration
	// MaxDelay caps a single backoff. Zero means uncapped.
	MaxDelay time.Duration
}

const defaultBaseDelay = 100 * time.Millisecond

// Result is the tagged outcome of Do.
type Result struct {
	Outcome  Outcome
	Attempts int
	// Err is the last attempt's error, nil on success.
	Err error
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }

func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as worth another attempt. Any other non-nil error
// returned from the operation aborts the loop.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err was marked with Transient.
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// Do calls fn until it succeeds, returns a permanent error, the attempts run
// out or ctx is done.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) Result {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	base := p.BaseDelay
	if base <= 0 {
		base = defaultBaseDelay
	}

	backoff, err := goretry.NewExponential(base)
	if err != nil {
		return Result{Outcome: Aborted, Err: err}
	}
	if p.MaxDelay > 0 {
		backoff = goretry.WithCappedDuration(p.MaxDelay, backoff)
	}
	backoff = goretry.WithMaxRetries(uint64(maxAttempts-1), backoff)

	var (
		attempts  int
		lastErr   error
		transient bool
	)
	err = goretry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			transient = false
			lastErr = err
			return err
		}
		attempts++
		err := fn(ctx)
		lastErr = err

		var te *transientError
		if transient = errors.As(err, &te); transient {
			lastErr = te.err
			return goretry.RetryableError(te.err)
		}
		return err
	})

	res := Result{Attempts: attempts}
	switch {
	case err == nil:
		res.Outcome = Succeeded
		return res
	case ctx.Err() != nil:
		res.Outcome = Aborted
		res.Err = ctx.Err()
	case transient:
		res.Outcome = Exhausted
		res.Err = lastErr
	default:
		res.Outcome = Aborted
		res.Err = lastErr
	}
	return res
}
