// Copyright (c) Umkerius. All rights reserved.
// Licensed under the MIT License.

package parallelism

import (
	"runtime"
	"sync/atomic"
)

type taskState int32

const (
	stateNotStarted taskState = iota
	stateInProgress
	stateDone
)

// A Task is a single unit of deferred work with its own state machine. Tasks
// are created by [Submit] or internally by the data-parallel algorithms; most
// callers only interact with the typed [Future] wrapper that [Submit]
// returns.
//
// A Task is movable only by construction: once it has been submitted to a
// Pool its address is fixed until it reaches Done. prev and next are
// intrusive doubly-linked queue pointers, valid only while queued is true;
// they and queued are owned exclusively by the Pool's queue mutex.
type Task struct {
	state atomic.Int32

	err error

	// Intrusive queue links, guarded by pool.mu.
	prev, next *Task
	queued     bool

	pool *Pool

	// run executes the task body; runBody wraps it to capture any panic into
	// err. It is called
	// with the Pool's mutex unheld, by whichever goroutine is allowed to
	// transition the task from NotStarted to InProgress.
	run func(t *Task)

	// setDoneOnCompletion is false only for the self-resubmitting "submitter"
	// tasks used by the batched lazy-submission scheme (see batch.go): such a
	// task resets its own state to NotStarted and re-pushes itself before its
	// run function returns, so the generic executor must not overwrite that
	// with Done.
	setDoneOnCompletion bool

	// oneShotDone is non-nil only for tasks executed via RunOneShot /
	// ExecuteInNewThread, i.e. tasks with no owning pool. It is closed once
	// the task reaches Done, standing in for the pool-wide waiter condition
	// variable that pool-owned tasks use instead.
	oneShotDone chan struct{}
}

func newTask(pool *Pool, run func(t *Task)) *Task {
	return &Task{pool: pool, run: run, setDoneOnCompletion: true}
}

// Done reports whether the task has finished executing. It never blocks and
// never returns the task's captured fault -- see SpinForce, YieldForce, and
// WorkForce for that.
func (t *Task) Done() bool {
	return taskState(t.state.Load()) == stateDone
}

// SpinForce ensures the task has executed, busy-waiting on its state word if
// it is already running elsewhere, and returns any fault captured from its
// body. If the task is still queued, SpinForce steals and runs it inline on
// the calling goroutine. Intended only for very short tasks: a long-running
// task forced this way will waste a full CPU core while the caller waits.
func (t *Task) SpinForce() error {
	if t.pool == nil {
		<-t.oneShotDone
		return t.err
	}
	if t.pool.tryStealAndExecute(t) {
		return t.err
	}
	for taskState(t.state.Load()) != stateDone {
		runtime.Gosched()
	}
	return t.err
}

// YieldForce ensures the task has executed, blocking the calling goroutine
// without spinning if it is already running elsewhere, and returns any fault
// captured from its body.
func (t *Task) YieldForce() error {
	if t.pool == nil {
		<-t.oneShotDone
		return t.err
	}
	if t.pool.tryStealAndExecute(t) {
		return t.err
	}
	return t.pool.waitForDone(t)
}

// WorkForce ensures the task has executed. Like YieldForce it blocks without
// spinning, but while waiting it cooperatively executes other tasks still
// queued in the same pool instead of idling. This is what makes WorkForce
// safe to call from within a task body that is itself waiting on a child
// task: the calling goroutine keeps draining the shared queue, so a pool of
// any size -- including one smaller than the depth of a dependency graph --
// cannot deadlock as long as that graph is acyclic.
func (t *Task) WorkForce() error {
	if t.pool == nil {
		<-t.oneShotDone
		return t.err
	}
	p := t.pool
	if p.tryStealAndExecute(t) {
		return t.err
	}
	for {
		if taskState(t.state.Load()) == stateDone {
			return t.err
		}
		other := p.tryPopAnyTask()
		if other == nil {
			break
		}
		p.executeInline(other)
	}
	return p.waitForDone(t)
}

// runBody invokes run, converting a panic into a captured executionFault
// rather than letting it crash the pool.
func (t *Task) runBody() {
	defer func() {
		if r := recover(); r != nil {
			t.err = newExecutionFault(r)
		}
	}()
	t.run(t)
}
