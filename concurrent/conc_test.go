package concurrent

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testRetryConfig = RetryConfig{
	Attempts:        10,
	BaseExp:         2,
	BaseTimeout:     1 * time.Millisecond,
	MaxRetryTimeout: 10 * time.Millisecond,
}

func TestRetryError(t *testing.T) {
	ctx := context.Background()
	runs := 0

	res, err := RetryWithConfig(ctx, SupplierFunc(func() (interface{}, error) {
		runs++
		return runs, errors.New("error")
	}), testRetryConfig)

	assert.Error(t, err)
	assert.Equal(t, "maximum number of attempts 10 reached; see cause for last error: error", err.Error())
	assert.Nil(t, res)
	assert.Equal(t, 10, runs)
}

func TestRetry(t *testing.T) {
	ctx := context.Background()
	runs := 0

	res, err := RetryWithConfig(ctx, SupplierFunc(func() (interface{}, error) {
		runs++
		return 0, nil
	}), testRetryConfig)

	assert.Nil(t, err)
	assert.Equal(t, 0, res)
	assert.Equal(t, 1, runs)
}

func TestRetryWithSomeErrors(t *testing.T) {
	ctx := context.Background()
	runs := 0

	res, err := RetryWithConfig(ctx, SupplierFunc(func() (interface{}, error) {
		runs++
		if runs < 3 {
			return nil, errors.New("error")
		}
		return runs, nil
	}), testRetryConfig)

	assert.Nil(t, err)
	assert.Equal(t, 3, res)
	assert.Equal(t, 3, runs)
}

func TestRetryCannotRecover(t *testing.T) {
	ctx := context.Background()
	runs := 0
	cause := errors.New("unauthorized")

	res, err := RetryWithConfig(ctx, SupplierFunc(func() (interface{}, error) {
		runs++
		return nil, ErrCannotRecover{Cause: cause}
	}), testRetryConfig)

	assert.Equal(t, cause, err)
	assert.Nil(t, res)
	assert.Equal(t, 1, runs)
}

func TestRetryContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RetryWithConfig(ctx, SupplierFunc(func() (interface{}, error) {
		return nil, errors.New("error")
	}), RetryConfig{
		Attempts:        10,
		BaseExp:         2,
		BaseTimeout:     time.Second,
		MaxRetryTimeout: time.Second,
	})

	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRetryContextDeadlineWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	runs := 0

	_, err := RetryWithConfig(ctx, SupplierFunc(func() (interface{}, error) {
		runs++
		return nil, errors.New("error")
	}), RetryConfig{
		Attempts:        10,
		BaseExp:         2,
		BaseTimeout:     time.Second,
		MaxRetryTimeout: time.Second,
	})

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 1, runs)
}

func TestRetryMaxAttemptsCauses(t *testing.T) {
	runs := 0

	_, err := RetryWithConfig(context.Background(), SupplierFunc(func() (interface{}, error) {
		runs++
		return nil, fmt.Errorf("attempt %d", runs)
	}), RetryConfig{
		Attempts:        3,
		BaseExp:         1,
		BaseTimeout:     time.Millisecond,
		MaxRetryTimeout: time.Millisecond,
		Random:          true,
	})

	maxErr, ok := err.(ErrMaxAttemptsReached)
	assert.True(t, ok)
	assert.Len(t, maxErr.Causes, 3)
	assert.Equal(t, "attempt 3", errors.Unwrap(err).Error())
}

func TestRandomConfigWithAttempts(t *testing.T) {
	assert.Equal(t, uint8(3), RandomConfigWithAttempts(3).Attempts)
	assert.Equal(t, uint8(1), RandomConfigWithAttempts(0).Attempts)
	assert.True(t, RandomConfigWithAttempts(3).Random)
}
