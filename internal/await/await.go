// Package await polls a condition until it holds or a deadline passes.
package await

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// Defaults used by New
const (
	DefaultAtMost       = 10 * time.Second
	DefaultPollInterval = 100 * time.Millisecond
)

// Awaiter holds the polling schedule
type Awaiter struct {
	alias        string
	atMost       time.Duration
	pollDelay    time.Duration
	pollInterval time.Duration
}

// New creates an awaiter with default schedule; alias names it in errors
func New(alias string) *Awaiter {
	return &Awaiter{
		alias:        alias,
		atMost:       DefaultAtMost,
		pollInterval: DefaultPollInterval,
	}
}

// AtMost sets the maximum wait
func (a *Awaiter) AtMost(d time.Duration) *Awaiter {
	a.atMost = d
	return a
}

// PollDelay sets the wait before the first evaluation
func (a *Awaiter) PollDelay(d time.Duration) *Awaiter {
	a.pollDelay = d
	return a
}

// PollInterval sets the wait between evaluations
func (a *Awaiter) PollInterval(d time.Duration) *Awaiter {
	a.pollInterval = d
	return a
}

// TimeoutError is returned when the condition did not hold within AtMost
type TimeoutError struct {
	Alias     string
	AtMost    time.Duration
	Condition string
	Last      interface{} // last evaluated value, nil if never evaluated
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("condition %q was not fulfilled within %s: expected value %s but last was %v",
		e.Alias, e.AtMost, e.Condition, e.Last)
}

// ErrInvalidSchedule is returned for non-positive AtMost or PollInterval
var ErrInvalidSchedule = errors.New("invalid polling schedule")

type outcome[T any] struct {
	value T
	err   error
}

// Until evaluates supplier on a poller goroutine until matcher accepts its
// result, and returns that result. A supplier error stops polling and is
// returned. If AtMost elapses first a *TimeoutError is returned.
func Until[T any](ctx context.Context, a *Awaiter, supplier func() (T, error), matcher Matcher[T]) (T, error) {
	var zero T
	if a.atMost <= 0 || a.pollInterval <= 0 || a.pollDelay < 0 {
		return zero, fmt.Errorf("%w: atMost=%s pollDelay=%s pollInterval=%s",
			ErrInvalidSchedule, a.atMost, a.pollDelay, a.pollInterval)
	}

	ctx, cancel := context.WithTimeout(ctx, a.atMost)
	defer cancel()

	var last atomic.Pointer[T]
	done := make(chan outcome[T], 1)

	go func() {
		delay := time.NewTimer(a.pollDelay)
		defer delay.Stop()
		select {
		case <-ctx.Done():
			return
		case <-delay.C:
		}

		ticker := time.NewTicker(a.pollInterval)
		defer ticker.Stop()

		for {
			value, err := supplier()
			if err != nil {
				done <- outcome[T]{err: fmt.Errorf("condition %q failed: %w", a.alias, err)}
				return
			}
			last.Store(&value)
			if matcher.Matches(value) {
				done <- outcome[T]{value: value}
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-ctx.Done():
		// the poller may have finished at the same instant
		select {
		case out := <-done:
			return out.value, out.err
		default:
		}
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, ctx.Err()
		}
		te := &TimeoutError{Alias: a.alias, AtMost: a.atMost, Condition: matcher.String()}
		if v := last.Load(); v != nil {
			te.Last = *v
		}
		return zero, te
	}
}

// UntilTrue polls condition until it returns true
func UntilTrue(ctx context.Context, a *Awaiter, condition func() (bool, error)) error {
	_, err := Until(ctx, a, condition, EqualTo(true))
	return err
}
