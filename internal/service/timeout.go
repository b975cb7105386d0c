package service

import (
	"context"
	"time"

	"github.com/aldosari/medbooking_bot/internal/apperror"
)

// runWithTimeout bounds a store call that cannot be cancelled mid-flight. The
// call keeps running in its goroutine after the deadline, but the caller gets
// a Timeout error instead of a hung conversation.
func runWithTimeout[T any](timeout time.Duration, fn func() (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}

	ch := make(chan result, 1)
	go func() {
		value, err := fn()
		ch <- result{value: value, err: err}
	}()

	select {
	case r := <-ch:
		return r.value, r.err
	case <-time.After(timeout):
		var zero T
		return zero, apperror.Timeout("store request timed out", context.DeadlineExceeded)
	}
}
