package surface

import (
	"context"
	"errors"
)

// looperQueue is how many posted tasks may wait for the looper.
const looperQueue = 64

// errLooperStopped is returned when a task cannot run anymore.
var errLooperStopped = errors.New("surface looper stopped")

// looper runs posted tasks one at a time, in order, on one goroutine.
type looper struct {
	tasks chan func()
	done  chan struct{}
}

func newLooper() *looper {
	return &looper{
		tasks: make(chan func(), looperQueue),
		done:  make(chan struct{}),
	}
}

// run executes tasks until ctx is done.
func (l *looper) run(ctx context.Context) {
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			return
		case task := <-l.tasks:
			task()
		}
	}
}

// post queues task without waiting for it.
func (l *looper) post(ctx context.Context, task func()) error {
	select {
	case l.tasks <- task:
		return nil
	case <-l.done:
		return errLooperStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// do runs task on the looper and waits for it to finish.
// It must not be called from the looper itself.
func (l *looper) do(ctx context.Context, task func()) error {
	finished := make(chan struct{})

	if err := l.post(ctx, func() {
		defer close(finished)
		task()
	}); err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return errLooperStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
