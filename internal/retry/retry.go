// Package retry runs remote operations with a bounded retry budget and exponential backoff.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/ppiankov/notionblog/internal/logging"
)

const (
	DefaultMaxRetries   = 3
	DefaultInitialDelay = 1000 * time.Millisecond
	DefaultMultiplier   = 2.0
)

// Policy controls how many times an operation is retried and how long to wait between attempts.
type Policy struct {
	MaxRetries   int
	InitialDelay time.Duration
	Multiplier   float64
}

// DefaultPolicy is 3 retries starting at 1s and doubling: 1s, 2s, 4s.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   DefaultMaxRetries,
		InitialDelay: DefaultInitialDelay,
		Multiplier:   DefaultMultiplier,
	}
}

// WithInitialDelay returns a copy of p starting at d.
func (p Policy) WithInitialDelay(d time.Duration) Policy {
	p.InitialDelay = d
	return p
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Do returns the wrapped error immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err carries a Permanent marker.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// sleepFunc waits for d or until ctx is done.
// Tests override it to record delays without sleeping.
var sleepFunc = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do calls op until it succeeds or the retry budget in p is spent.
// The error of the final attempt is returned unchanged.
// Errors marked Permanent skip the budget and return after one attempt; the
// Notion client marks every 4xx response except 409 and 429 that way.
func Do[T any](ctx context.Context, log logging.Logger, name string, p Policy, op func(context.Context) (T, error)) (T, error) {
	delay := p.InitialDelay
	remaining := p.MaxRetries

	for {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if IsPermanent(err) {
			if pe, ok := err.(*permanentError); ok {
				return v, pe.err
			}
			return v, err
		}
		if remaining <= 0 {
			return v, err
		}

		if log != nil {
			log.Warnf("%s failed: %v (retrying in %s, %d attempts left)", name, err, delay, remaining)
		}
		if serr := sleepFunc(ctx, delay); serr != nil {
			var zero T
			return zero, serr
		}

		delay = time.Duration(float64(delay) * p.Multiplier)
		remaining--
	}
}
