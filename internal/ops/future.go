// Package ops tracks the state of individual in-flight operations. Each
// caller owns the Future for the operation it started; there is no shared
// "loading" flag.
package ops

import (
	"context"
	"fmt"
	"sync"
)

type State int

const (
	Pending State = iota
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Future is the result of one operation started with Go.
type Future[T any] struct {
	done  chan struct{}
	mu    sync.Mutex
	state State
	value T
	err   error
}

// Go runs fn in its own goroutine and returns its Future. A panic in fn
// fails the future instead of crashing the process.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		var (
			v   T
			err error
		)
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("operation panicked: %v", r)
			}
			f.resolve(v, err)
		}()
		v, err = fn(ctx)
	}()
	return f
}

// Resolved returns a future that already holds v or err.
func Resolved[T any](v T, err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	f.resolve(v, err)
	return f
}

func (f *Future[T]) resolve(v T, err error) {
	f.mu.Lock()
	f.value, f.err = v, err
	if err != nil {
		f.state = Failed
	} else {
		f.state = Succeeded
	}
	f.mu.Unlock()
	close(f.done)
}

// State reports the current state without blocking.
func (f *Future[T]) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Done is closed once the operation has finished.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the operation finishes or ctx is done. Cancelling ctx
// abandons the wait only; the operation itself observes the context it was
// started with.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Snapshot is a JSON-friendly view of a future.
type Snapshot[T any] struct {
	State State  `json:"state"`
	Value *T     `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

// Snapshot reports the state and, once finished, the outcome.
func (f *Future[T]) Snapshot() Snapshot[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := Snapshot[T]{State: f.state}
	switch f.state {
	case Succeeded:
		v := f.value
		s.Value = &v
	case Failed:
		s.Error = f.err.Error()
	}
	return s
}
