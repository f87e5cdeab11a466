// Copyright (c) Umkerius. All rights reserved.
// Licensed under the MIT License.

package parallelism

import "github.com/Umkerius/std.parallelism/internal/osprio"

// RunOneShot executes fn on a freshly spawned goroutine -- a degenerate pool
// of one worker with no queue and no stealing -- and returns a [Future] whose
// Force methods simply join that goroutine rather than participating in any
// pool's queue discipline. priority, if non-zero, is passed through to the
// new goroutine's OS thread exactly as [Pool.SetPriority] would.
//
// This is the free-function equivalent of [Task.ExecuteInNewThread] for
// callers building a Future directly from a function rather than from an
// existing *Task.
func RunOneShot[T any](fn func() (T, error), priority int) *Future[T] {
	f := &Future[T]{}
	t := &Task{
		oneShotDone: make(chan struct{}),
		run: func(t *Task) {
			var err error
			f.result, err = fn()
			t.err = err
		},
	}
	f.task = t
	go func() {
		osprio.PinCurrentThread()
		if priority != 0 {
			osprio.SetCurrentThreadPriority(priority)
		}
		t.runBody()
		t.state.Store(int32(stateDone))
		close(t.oneShotDone)
	}()
	return f
}

// ExecuteInNewThread runs the task's body on a freshly spawned goroutine
// instead of submitting it to a pool, exactly like [RunOneShot] but starting
// from an already-constructed *Task. It panics if the task has already been
// submitted to a pool.
func (t *Task) ExecuteInNewThread(priority int) {
	if t.pool != nil {
		panic("parallelism: task already belongs to a pool")
	}
	t.oneShotDone = make(chan struct{})
	go func() {
		osprio.PinCurrentThread()
		if priority != 0 {
			osprio.SetCurrentThreadPriority(priority)
		}
		t.runBody()
		t.state.Store(int32(stateDone))
		close(t.oneShotDone)
	}()
}
