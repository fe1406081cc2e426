package framework

import (
	"errors"
	"fmt"
	"time"
)

const defaultPollInterval = time.Millisecond * 10

// ErrTimeout is matched by errors.Is for every error returned by PollUntil when the deadline passes.
var ErrTimeout = errors.New("timed out")

// TimeoutError describes a PollUntil call that ran out of time.
type TimeoutError struct {
	// Operation is a short description of what was being waited for.
	Operation string
	Timeout   time.Duration

	// LastErr is the reason the last completed attempt did not succeed, if it gave one.
	LastErr error
}

func (e *TimeoutError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("timed out after %s waiting for %s; last error was: %s", e.Timeout, e.Operation, e.LastErr)
	}
	return fmt.Sprintf("timed out after %s waiting for %s", e.Timeout, e.Operation)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

func (e *TimeoutError) Unwrap() error {
	return e.LastErr
}

// Attempt is one try of a polled operation.
type Attempt[T any] func() (T, error)

// ErrStopPolling can be wrapped by an Attempt's error to make PollUntil give up immediately
// instead of retrying.
var ErrStopPolling = errors.New("stop polling")

type attemptResult[T any] struct {
	value    T
	err      error
	panicked interface{}
}

// PollUntil calls attempt immediately and then once per interval until it returns a nil error, the
// timeout elapses, or it returns an error wrapping ErrStopPolling. On timeout the result is a
// *TimeoutError carrying the last attempt's error.
//
// PollUntil returns no later than the deadline even if an attempt is still in progress. Such an
// attempt is left to finish in the background and its result is discarded.
func PollUntil[T any](operation string, timeout, interval time.Duration, attempt Attempt[T]) (T, error) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	deadline := time.Now().Add(timeout)
	expired := time.NewTimer(timeout)
	defer expired.Stop()

	var zero T
	var lastErr error
	timedOut := func() (T, error) {
		return zero, &TimeoutError{Operation: operation, Timeout: timeout, LastErr: lastErr}
	}

	for {
		r, finished := awaitAttempt(attempt, expired.C)
		if !finished {
			return timedOut()
		}
		if r.err == nil || errors.Is(r.err, ErrStopPolling) {
			return r.value, r.err
		}
		lastErr = r.err
		if !time.Now().Before(deadline) {
			return timedOut()
		}

		pause := time.NewTimer(interval)
		select {
		case <-expired.C:
			pause.Stop()
			return timedOut()
		case <-pause.C:
		}
		if !time.Now().Before(deadline) {
			return timedOut()
		}
	}
}

// awaitAttempt runs attempt on its own goroutine so that a slow attempt cannot hold the caller past
// the deadline. A panic in the attempt is raised again on the caller's goroutine.
func awaitAttempt[T any](attempt Attempt[T], expired <-chan time.Time) (attemptResult[T], bool) {
	done := make(chan attemptResult[T], 1)
	go func() {
		var r attemptResult[T]
		defer func() {
			if p := recover(); p != nil {
				r.panicked = p
			}
			done <- r
		}()
		r.value, r.err = attempt()
	}()

	var r attemptResult[T]
	select {
	case r = <-done:
	case <-expired:
		select {
		case r = <-done:
		default:
			return r, false
		}
	}
	if r.panicked != nil {
		panic(r.panicked)
	}
	return r, true
}
