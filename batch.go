// Copyright (c) Umkerius. All rights reserved.
// Licensed under the MIT License.

package parallelism

import (
	"runtime"
	"sync"
)

// rangeUnit executes one contiguous work unit [start, end) of a batched
// parallel operation.
type rangeUnit func(start, end int) error

// runBatched submits ⌈total/w⌉ work units to p, each covering one contiguous
// range of [0, total), using O(p.Size()) memory regardless of how large total
// is. It implements the self-resubmitting "submitter task" scheme: after an
// initial round of direct submissions fills a fixed slice of 2*p.Size()
// slots, further rounds are driven by a task that re-queues itself with
// setDoneOnCompletion = false, so any idle worker -- or the calling
// goroutine itself, via caller-steal -- can pick up the next round without
// the driver needing to hold the whole range in memory.
//
// On the first fault raised by any work unit, no further ranges are
// assigned, but work units already submitted are allowed to run to
// completion; their faults, and the first one, are chained together and
// returned.
func (p *Pool) runBatched(total, w int, unit rangeUnit) error {
	if w <= 0 {
		return preconditionFault("work-unit size must be positive, got %d", w)
	}
	if total <= 0 {
		return nil
	}
	if p.Size() == 0 {
		for start := 0; start < total; start += w {
			end := min(start+w, total)
			if err := unit(start, end); err != nil {
				return err
			}
		}
		return nil
	}

	b := &batchDriver{pool: p, w: w, total: total, unit: unit}
	b.slots = make([]*Task, 2*p.Size())

	b.submitRound()

	submitter := newTask(p, nil)
	// setDoneOnCompletion stays false for this task's entire lifetime: once
	// it is resubmitted below, a different goroutine may already be running
	// it again before this call stack unwinds back through executeInline,
	// so run itself -- never executeInline's generic post-runBody check --
	// must own every state transition. Mutating setDoneOnCompletion here
	// after resubmission would be a data race with that other goroutine.
	submitter.setDoneOnCompletion = false
	submitter.run = func(t *Task) {
		// Recovers here, rather than relying on runBody's own recover, so
		// that even a panicking round still transitions the task to Done
		// instead of leaving it stuck InProgress forever (executeInline's generic
		// post-run Done transition never fires for this task; see the
		// setDoneOnCompletion note above).
		defer func() {
			if r := recover(); r != nil {
				t.err = newExecutionFault(r)
				t.state.Store(int32(stateDone))
				p.mu.Lock()
				p.waiterCond.Broadcast()
				p.mu.Unlock()
			}
		}()
		b.submitRound()
		if b.isDoneSubmitting() {
			t.state.Store(int32(stateDone))
			p.mu.Lock()
			p.waiterCond.Broadcast()
			p.mu.Unlock()
			return
		}
		t.state.Store(int32(stateNotStarted))
		p.mu.Lock()
		p.pushBack(t)
		p.mu.Unlock()
	}
	if err := p.Submit(submitter); err != nil {
		return err
	}

	for !b.isDoneSubmitting() {
		stoleAny := false
		for _, s := range b.snapshotSlots() {
			if s != nil && p.tryStealAndExecute(s) {
				stoleAny = true
			}
		}
		if p.tryStealAndExecute(submitter) {
			stoleAny = true
		}
		if !stoleAny {
			runtime.Gosched()
		}
	}

	var faults []error
	if err := submitter.WorkForce(); err != nil {
		faults = append(faults, err)
	}
	for _, s := range b.snapshotSlots() {
		if s == nil {
			continue
		}
		if err := s.WorkForce(); err != nil {
			faults = append(faults, err)
		}
	}
	b.mu.Lock()
	submitErr := b.submitErr
	b.mu.Unlock()
	if submitErr != nil {
		faults = append(faults, submitErr)
	}

	return chainFaults(faults)
}

type batchDriver struct {
	pool  *Pool
	w     int
	total int
	unit  rangeUnit

	mu             sync.Mutex
	next           int
	doneSubmitting bool
	submitErr      error
	slots          []*Task
}

func (b *batchDriver) isDoneSubmitting() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.doneSubmitting
}

func (b *batchDriver) snapshotSlots() []*Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Task, len(b.slots))
	copy(out, b.slots)
	return out
}

// submitRound scans every slot; any that is unused or Done is either
// reassigned to the next unclaimed range or, once the range is exhausted (or
// a fault has been seen), left empty. It runs holding b.mu for its entire
// body; Submit itself does not take b.mu, so there is no lock-order hazard
// with the pool's own mutex.
func (b *batchDriver) submitRound() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, t := range b.slots {
		if t != nil && !t.Done() {
			continue
		}
		if t != nil && t.err != nil {
			b.doneSubmitting = true
		}
		if b.doneSubmitting || b.next >= b.total {
			b.doneSubmitting = true
			continue
		}
		start := b.next
		end := min(start+b.w, b.total)
		b.next = end
		nt := newTask(b.pool, func(nt *Task) {
			nt.err = b.unit(start, end)
		})
		if err := b.pool.Submit(nt); err != nil {
			b.doneSubmitting = true
			b.submitErr = err
			continue
		}
		b.slots[i] = nt
		if b.next >= b.total {
			b.doneSubmitting = true
		}
	}
}
