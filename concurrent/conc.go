package concurrent

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	stderr "github.com/pkg/errors"
)

// ErrCannotRecover is returned by a Supplier when the operation
// failed in a way that retrying cannot fix
type ErrCannotRecover struct {
	Cause error
}

func (e ErrCannotRecover) Error() string {
	return e.Cause.Error()
}

func (e ErrCannotRecover) Unwrap() error {
	return e.Cause
}

// ErrMaxAttemptsReached is returned when every attempt of an
// operation failed. Causes holds the error of each attempt
type ErrMaxAttemptsReached struct {
	Causes []error
}

func (e ErrMaxAttemptsReached) Error() string {
	return fmt.Sprintf("maximum number of attempts %d reached; see cause for last error: %s",
		len(e.Causes), e.Cause())
}

// Cause returns the error of the last attempt
func (e ErrMaxAttemptsReached) Cause() error {
	if len(e.Causes) == 0 {
		return nil
	}

	return e.Causes[len(e.Causes)-1]
}

func (e ErrMaxAttemptsReached) Unwrap() error {
	return e.Cause()
}

// randomizationFactor spreads the retries of concurrent callers
// between 0.5 and 1.5 times the computed interval
const randomizationFactor = 0.5

var defaultConfig = RetryConfig{
	BaseTimeout:     100 * time.Millisecond,
	BaseExp:         2,
	MaxRetryTimeout: 10 * time.Second,
	Attempts:        10,
	Random:          true,
}

// Supplier performs an operation that may be attempted more than
// once
type Supplier interface {
	Supply() (interface{}, error)
}

// SupplierFunc allows closures to act as a Supplier
type SupplierFunc func() (interface{}, error)

func (s SupplierFunc) Supply() (interface{}, error) {
	return s()
}

// RetryConfig bounds the attempts of RetryWithConfig
type RetryConfig struct {
	// Random spreads each interval around its computed value
	Random bool

	// Attempts is the maximum number of times the operation runs
	Attempts uint8

	// BaseExp multiplies the interval after each failed attempt
	BaseExp uint8

	// BaseTimeout is the interval after the first failed attempt
	BaseTimeout time.Duration

	// MaxRetryTimeout caps the interval between attempts
	MaxRetryTimeout time.Duration
}

// RandomConfigWithAttempts returns a randomized exponential
// configuration bounded to attempts. At least one attempt is made
func RandomConfigWithAttempts(attempts uint8) RetryConfig {
	config := defaultConfig
	config.Attempts = attempts
	if config.Attempts == 0 {
		config.Attempts = 1
	}

	return config
}

func (c RetryConfig) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.BaseTimeout
	b.Multiplier = float64(c.BaseExp)
	b.MaxInterval = c.MaxRetryTimeout
	b.MaxElapsedTime = 0
	b.RandomizationFactor = 0
	if c.Random {
		b.RandomizationFactor = randomizationFactor
	}
	b.Reset()

	retries := uint64(0)
	if c.Attempts > 1 {
		retries = uint64(c.Attempts) - 1
	}

	return backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx)
}

// RetryWithConfig runs the supplier until it succeeds, waiting an
// exponentially increasing interval between attempts. It fails with
// ErrMaxAttemptsReached once config.Attempts attempts have failed.
// A supplier returning ErrCannotRecover is not attempted again and
// the cause is returned
func RetryWithConfig(
	ctx context.Context,
	supplier Supplier,
	config RetryConfig,
) (interface{}, error) {
	var (
		v         interface{}
		errs      []error
		permanent error
	)

	err := backoff.Retry(func() error {
		if err := ctx.Err(); err != nil {
			permanent = stderr.WithStack(err)
			return backoff.Permanent(permanent)
		}

		var err error
		v, err = supplier.Supply()
		if err == nil {
			return nil
		}

		if err, ok := err.(ErrCannotRecover); ok {
			permanent = err.Cause
			return backoff.Permanent(permanent)
		}

		errs = append(errs, err)
		return err
	}, config.backOff(ctx))

	switch {
	case err == nil:
		return v, nil
	case permanent != nil:
		return nil, permanent
	case ctx.Err() != nil:
		return nil, stderr.WithStack(ctx.Err())
	default:
		return nil, ErrMaxAttemptsReached{Causes: errs}
	}
}
