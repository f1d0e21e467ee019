// Package task provides a non-blocking handle over a background
// computation. A Task is created when work is dispatched, polled from the
// tick thread via TryRecv, and consumed at most once.
package task

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimedOut is reported when a task's deadline elapses before the
// background computation completes.
var ErrTimedOut = errors.New("background task timed out")

// Result carries the final outcome of a background computation.
type Result[T any] struct {
	Value T
	Err   error
}

// Task is a single-owner, non-blocking handle to a computation running on
// a background goroutine. It is not safe for concurrent use; each task
// belongs to exactly one owner (one arbiter).
type Task[T any] struct {
	result   chan Result[T]
	done     chan struct{}
	cancel   context.CancelFunc
	created  time.Time
	timeout  time.Duration
	consumed bool
}

// Run dispatches fn on a new goroutine and returns a handle to it. The
// context passed to fn is cancelled when the handle is cancelled or its
// timeout elapses. A panic inside fn surfaces as an error result, never as
// a panic in the owner.
func Run[T any](parent context.Context, fn func(context.Context) (T, error)) *Task[T] {
	return RunWithTimeout(parent, 0, fn)
}

// RunWithTimeout is Run with a deadline. The deadline is checked lazily on
// the owner's next poll, not by a timer; fn additionally observes it
// through its context.
func RunWithTimeout[T any](parent context.Context, timeout time.Duration, fn func(context.Context) (T, error)) *Task[T] {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	t := &Task[T]{
		result:  make(chan Result[T], 1),
		done:    make(chan struct{}),
		cancel:  cancel,
		created: time.Now(),
		timeout: timeout,
	}
	go func() {
		defer close(t.done)
		defer func() {
			if r := recover(); r != nil {
				t.result <- Result[T]{Err: fmt.Errorf("background task panicked: %v", r)}
			}
		}()
		v, err := fn(ctx)
		t.result <- Result[T]{Value: v, Err: err}
	}()
	return t
}

// TryRecv polls for completion without blocking. It returns (result, true)
// exactly once: when the computation has finished, or when the timeout
// has elapsed (ErrTimedOut, cancelling the underlying work). Before
// completion, and on every call after the result has been consumed, it
// returns (zero, false).
func (t *Task[T]) TryRecv() (Result[T], bool) {
	var zero Result[T]
	if t.consumed {
		return zero, false
	}
	select {
	case res := <-t.result:
		t.consumed = true
		t.cancel()
		return res, true
	default:
	}
	if t.timeout > 0 && time.Since(t.created) >= t.timeout {
		t.consumed = true
		t.cancel()
		return Result[T]{Err: ErrTimedOut}, true
	}
	return zero, false
}

// Wait blocks until the computation finishes, the timeout elapses, or ctx
// is done. It exists for tests and tooling; never call it on the tick
// path.
func (t *Task[T]) Wait(ctx context.Context) (Result[T], error) {
	var zero Result[T]
	if t.consumed {
		return zero, errors.New("task result already consumed")
	}
	var deadline <-chan time.Time
	if t.timeout > 0 {
		remaining := t.timeout - time.Since(t.created)
		timer := time.NewTimer(remaining)
		defer timer.Stop()
		deadline = timer.C
	}
	select {
	case res := <-t.result:
		t.consumed = true
		t.cancel()
		return res, nil
	case <-deadline:
		t.consumed = true
		t.cancel()
		return Result[T]{Err: ErrTimedOut}, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// IsFinished reports whether the background computation has completed.
// Cheap and side-effect free; does not consume the result.
func (t *Task[T]) IsFinished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Elapsed returns wall-clock time since the task was created.
func (t *Task[T]) Elapsed() time.Duration {
	return time.Since(t.created)
}

// Cancel signals the background computation to stop (best effort,
// non-blocking). The owner calls this when discarding a handle whose
// result will never be observed.
func (t *Task[T]) Cancel() {
	t.cancel()
}
