// Copyright (c) Umkerius. All rights reserved.
// Licensed under the MIT License.

package parallelism

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Umkerius/std.parallelism/internal/osprio"
)

type poolStatus int32

const (
	statusRunning poolStatus = iota
	statusFinishing
	statusStopNow
)

// Pool owns a fixed set of worker goroutines and the single shared FIFO
// queue they drain. Use [NewPool] to create one, [Submit] to place a task on
// it, and [Task.SpinForce], [Task.YieldForce], or [Task.WorkForce] to force a
// submitted task to completion.
//
// The zero value is not usable; a Pool must be created via [NewPool].
type Pool struct {
	mu         sync.Mutex
	workerCond sync.Cond
	waiterCond sync.Cond
	head, tail *Task
	length     int

	status atomic.Int32

	workers   []*worker
	nextIndex atomic.Int64 // next worker index to hand out, 1-based

	daemon   atomic.Bool
	priority atomic.Int32 // OS thread priority passthrough; see internal/osprio
	prioGen  atomic.Int64 // bumped on SetPriority so workers know to reapply

	logger *zap.Logger

	// Goroutines that call into the pool's algorithms without being one of
	// its workers have no index of their own: WorkerIndex returns 0 for all
	// of them, so they share slot 0 of a WorkerLocalStorage by construction.
}

type worker struct {
	index int
	pool  *Pool
}

// NewPool creates a pool with GOMAXPROCS-ish default sizing left to the
// caller: pass the desired worker count explicitly. A pool of size 0 is
// legal; every algorithm in this package degrades to serial, in-goroutine
// execution against such a pool, and Submit still queues tasks but they are
// only ever run by a forcer.
func NewPool(workerCount int, opts ...PoolOption) *Pool {
	if workerCount < 0 {
		panic("parallelism: worker count must be non-negative")
	}
	p := &Pool{logger: zap.NewNop()}
	p.workerCond.L = &p.mu
	p.waiterCond.L = &p.mu
	for _, opt := range opts {
		opt(p)
	}
	p.workers = make([]*worker, workerCount)
	for i := range p.workers {
		w := &worker{index: i + 1, pool: p}
		p.workers[i] = w
		go w.loop()
	}
	return p
}

// PoolOption configures a Pool at construction time.
type PoolOption func(*Pool)

// WithLogger overrides the pool's structured logger, which defaults to a
// no-op logger. Following the teacher's optional-instrumentation posture,
// logging is never required to observe correct behavior.
func WithLogger(logger *zap.Logger) PoolOption {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithDaemon marks the pool's workers as daemon workers: see [Pool.SetDaemon].
func WithDaemon(daemon bool) PoolOption {
	return func(p *Pool) { p.daemon.Store(daemon) }
}

// WithPriority sets the initial OS thread priority; see [Pool.SetPriority].
func WithPriority(priority int) PoolOption {
	return func(p *Pool) { p.priority.Store(int32(priority)) }
}

// Size returns the number of worker goroutines owned by the pool.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Daemon reports whether the pool's workers are marked as daemon workers.
func (p *Pool) Daemon() bool { return p.daemon.Load() }

// SetDaemon marks or unmarks the pool's workers as daemon workers. Since Go
// has no native notion of a daemon thread, this is purely advisory
// bookkeeping: neither [Pool.Finish] nor [Pool.Stop] waits for workers, and
// process exit does not wait for any goroutine, whatever the flag says. Callers that want daemon semantics should simply never
// wait on a daemon pool's workers, which is exactly what [GlobalPool] does.
func (p *Pool) SetDaemon(daemon bool) { p.daemon.Store(daemon) }

// Priority returns the OS thread priority last set via SetPriority or
// WithPriority, which may not yet have been applied to every worker.
func (p *Pool) Priority() int { return int(p.priority.Load()) }

// SetPriority requests that every worker goroutine apply the given OS thread
// scheduling priority (passed through to the platform's native priority
// mechanism -- see internal/osprio). Workers pick up the new value the next
// time they start a task, not synchronously, since Go offers no
// portable way to retarget a specific already-running goroutine's OS thread
// without first locking it, which a worker does for its own lifetime but
// which no other goroutine may do on its behalf.
func (p *Pool) SetPriority(priority int) {
	p.priority.Store(int32(priority))
	p.prioGen.Add(1)
}

// WorkerIndex returns the calling goroutine's stable index in this pool, in
// 1..Size(). Goroutines that are not one of the pool's own workers always
// get index 0.
func (p *Pool) WorkerIndex() int {
	if w := currentWorker(); w != nil && w.pool == p {
		return w.index
	}
	return 0
}

// Submit places a task on the pool's queue for a worker (or a future forcer)
// to execute, and wakes one idle worker. It returns ErrPoolClosed if the pool
// has already been stopped or finished.
func (p *Pool) Submit(t *Task) error {
	t.pool = p
	p.mu.Lock()
	if poolStatus(p.status.Load()) != statusRunning {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	t.state.Store(int32(stateNotStarted))
	p.pushBack(t)
	p.mu.Unlock()
	p.workerCond.Signal()
	return nil
}

// Finish marks the pool as no longer accepting new submissions, but lets
// workers drain every task already queued before they exit. Finish is
// idempotent and never blocks; use Stop if abandoning queued work is
// acceptable and desired.
func (p *Pool) Finish() {
	p.status.CompareAndSwap(int32(statusRunning), int32(statusFinishing))
	p.mu.Lock()
	p.mu.Unlock()
	p.workerCond.Broadcast()
}

// Stop marks the pool as done immediately: workers abandon any tasks still
// queued and exit on their next check. Queued tasks are not executed and
// must be forced by their owners if their results are needed -- forcing
// unlinks and runs a task inline regardless of pool status. Stop is
// idempotent.
func (p *Pool) Stop() {
	p.status.Store(int32(statusStopNow))
	p.mu.Lock()
	p.mu.Unlock()
	p.workerCond.Broadcast()
	p.waiterCond.Broadcast()
}

func (w *worker) loop() {
	p := w.pool
	workerTLS.set(w)
	defer workerTLS.clear()
	osprio.PinCurrentThread()
	lastGen := int64(-1)
	for {
		p.mu.Lock()
		for p.isEmpty() && poolStatus(p.status.Load()) == statusRunning {
			p.workerCond.Wait()
		}
		st := poolStatus(p.status.Load())
		if st == statusStopNow {
			p.mu.Unlock()
			return
		}
		if p.isEmpty() {
			// st must be statusFinishing: the wait loop above only exits
			// early while empty if status != running.
			p.status.CompareAndSwap(int32(statusFinishing), int32(statusStopNow))
			p.mu.Unlock()
			return
		}
		t := p.popFront()
		t.state.Store(int32(stateInProgress))
		p.mu.Unlock()

		if gen := p.prioGen.Load(); gen != lastGen {
			osprio.SetCurrentThreadPriority(int(p.priority.Load()))
			lastGen = gen
		}

		p.executeInline(t)
	}
}

// executeInline runs an already-dequeued, already-InProgress task body and
// completes its state transition. It must be called without p.mu held.
func (p *Pool) executeInline(t *Task) {
	t.runBody()
	if t.setDoneOnCompletion {
		t.state.Store(int32(stateDone))
		p.mu.Lock()
		p.waiterCond.Broadcast()
		p.mu.Unlock()
	}
}

// tryStealAndExecute is the caller-steal primitive: it atomically detaches a
// still-NotStarted task from the queue, marks it InProgress, and runs it
// inline on the calling goroutine. It returns false -- "not stolen" -- if the
// task has no pool (a one-shot task) or a worker has already claimed it.
func (p *Pool) tryStealAndExecute(t *Task) bool {
	if t.pool == nil {
		return false
	}
	p.mu.Lock()
	if !t.queued || taskState(t.state.Load()) != stateNotStarted {
		p.mu.Unlock()
		return false
	}
	p.unlink(t)
	t.state.Store(int32(stateInProgress))
	p.mu.Unlock()
	p.executeInline(t)
	return true
}

// tryPopAnyTask removes and returns the task at the head of the queue,
// marking it InProgress, or nil if the queue is empty. Used by WorkForce to
// drain other work while waiting on a specific task.
func (p *Pool) tryPopAnyTask() *Task {
	p.mu.Lock()
	t := p.popFront()
	if t != nil {
		t.state.Store(int32(stateInProgress))
	}
	p.mu.Unlock()
	return t
}

// waitForDone blocks on the pool-wide waiter condition variable until t
// reaches Done. Every task completion broadcasts this condition, so every
// blocked forcer wakes and re-checks its own task.
func (p *Pool) waitForDone(t *Task) error {
	p.mu.Lock()
	for taskState(t.state.Load()) != stateDone {
		p.waiterCond.Wait()
	}
	p.mu.Unlock()
	return t.err
}

// currentWorker returns the calling goroutine's *worker if it is one of a
// pool's workers, or nil otherwise. See workerlocal.go.
func currentWorker() *worker {
	return workerTLS.get()
}
