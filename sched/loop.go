package sched

import (
	"context"
	"runtime"
	"sync"

	"github.com/wippyai/wasm-embed/errors"
)

// ErrClosed is returned when work is submitted to a closed loop.
var ErrClosed = errors.Closed(errors.PhaseRun, "loop")

type task struct {
	fn   func() error
	done chan error
}

// Loop is a single-threaded task executor. All tasks run in submission order
// on one goroutine whose OS thread is locked for the loop's lifetime, so
// everything scheduled onto a loop is serialized. A loop belongs to exactly
// one execution call and is never shared across calls.
//
// Goroutine stacks grow on demand, so deep guest call chains need no fixed
// stack reservation.
type Loop struct {
	mu      sync.Mutex
	tasks   chan task
	stopped chan struct{}
	closed  bool
}

// NewLoop starts a loop ready to accept tasks.
func NewLoop() *Loop {
	l := &Loop{
		tasks:   make(chan task, 16),
		stopped: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for t := range l.tasks {
		err := t.fn()
		t.done <- err
	}
	close(l.stopped)
}

// Do runs fn on the loop and waits for it to finish, returning fn's error.
// If ctx is done before fn completes, Do returns the context error; fn still
// runs to completion on the loop (guest execution is not preemptible).
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	t := task{fn: fn, done: make(chan error, 1)}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.tasks <- t
	l.mu.Unlock()

	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit enqueues fn without waiting for it. Errors from fn are discarded;
// use Do when the result matters.
func (l *Loop) Submit(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.tasks <- task{fn: fn, done: make(chan error, 1)}
	return nil
}

// Close stops the loop after draining every task already queued. It blocks
// until the loop goroutine has exited. Close is idempotent.
func (l *Loop) Close() error {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.tasks)
	}
	l.mu.Unlock()

	<-l.stopped
	return nil
}
