// Copyright (c) Umkerius. All rights reserved.
// Licensed under the MIT License.

package parallelism

// A Future is the typed future/promise handle returned by [Submit]: a single
// task submitted to a [Pool], later forced to yield its result.
type Future[T any] struct {
	task   *Task
	result T
}

// Submit creates a task running fn and places it on p's queue, returning a
// [Future] that can later be forced with [Future.SpinForce],
// [Future.YieldForce], or [Future.WorkForce]. It returns an error instead of
// a Future if the pool has already been closed.
func Submit[T any](p *Pool, fn func() (T, error)) (*Future[T], error) {
	f := &Future[T]{}
	f.task = newTask(p, func(t *Task) {
		var err error
		f.result, err = fn()
		t.err = err
	})
	if err := p.Submit(f.task); err != nil {
		return nil, err
	}
	return f, nil
}

// Task returns the underlying [Task], for callers that need to compose a
// Future with APIs that operate on *Task directly (e.g. to build a slice of
// heterogeneous futures to force together).
func (f *Future[T]) Task() *Task { return f.task }

// SpinForce forces the future's task to completion (stealing it if still
// queued, busy-waiting otherwise) and returns its result and any captured
// fault.
func (f *Future[T]) SpinForce() (T, error) {
	err := f.task.SpinForce()
	return f.result, err
}

// YieldForce forces the future's task to completion (stealing it if still
// queued, blocking without spinning otherwise) and returns its result and any
// captured fault.
func (f *Future[T]) YieldForce() (T, error) {
	err := f.task.YieldForce()
	return f.result, err
}

// WorkForce forces the future's task to completion, cooperatively draining
// other queued work while it waits, and returns its result and any captured
// fault.
func (f *Future[T]) WorkForce() (T, error) {
	err := f.task.WorkForce()
	return f.result, err
}

// Done reports whether the future's task has finished executing.
func (f *Future[T]) Done() bool { return f.task.Done() }
