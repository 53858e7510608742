package pipeline

import (
	"context"
	"fmt"
	"time"
)

// StageOutcome is the result of racing a stage against a deadline.
type StageOutcome[T any] struct {
	// Completed is false when the deadline expired first. The underlying
	// work keeps running; its eventual result is handed to the late handler.
	Completed bool
	Value     T
	Err       error
}

type settled[T any] struct {
	value T
	err   error
}

// RunBounded starts fn and a deadline timer concurrently and returns as soon
// as either settles. The deadline narrows the waiting window only: fn's
// context is not cancelled on expiry, and a result arriving afterwards is
// delivered asynchronously to onLate (which may be nil). RunBounded performs
// no retries; retry policy belongs to the caller.
func RunBounded[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error), onLate func(T, error)) StageOutcome[T] {
	done := make(chan settled[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				done <- settled[T]{value: zero, err: fmt.Errorf("stage panic: %v", r)}
			}
		}()
		value, err := fn(ctx)
		done <- settled[T]{value: value, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case s := <-done:
		return StageOutcome[T]{Completed: true, Value: s.value, Err: s.err}
	case <-timer.C:
	case <-ctx.Done():
	}

	go func() {
		s := <-done
		if onLate != nil {
			onLate(s.value, s.err)
		}
	}()
	var zero T
	return StageOutcome[T]{Completed: false, Value: zero, Err: ctx.Err()}
}
