// Copyright (c) Umkerius. All rights reserved.
// Licensed under the MIT License.

package parallelism

import "iter"

// ParallelOption configures a call to [Parallel], [ParallelIndex],
// [ParallelSeq], [Amap], [Map], or [AsyncBuf].
type ParallelOption func(*parallelConfig)

type parallelConfig struct {
	workUnitSize int
}

// WithWorkUnitSize overrides the number of elements grouped into a single
// work unit. Without it, a default is chosen so that the whole operation
// submits roughly 4*(poolSize+1) work units -- enough to keep every worker
// fed without so many that per-task overhead dominates. For ParallelSeq,
// AsyncBuf, and Map, whose sources have no known length, the default is
// instead a chunk of 4*(poolSize+1) elements. A w of zero or less is treated
// as unset, so the default applies.
func WithWorkUnitSize(w int) ParallelOption {
	return func(c *parallelConfig) { c.workUnitSize = w }
}

func resolveParallelConfig(total, poolSize int, opts []ParallelOption) parallelConfig {
	var c parallelConfig
	for _, opt := range opts {
		opt(&c)
	}
	if c.workUnitSize <= 0 {
		c.workUnitSize = defaultWorkUnitSize(total, poolSize)
	}
	return c
}

func defaultWorkUnitSize(total, poolSize int) int {
	if total <= 0 {
		return 1
	}
	w := total / (4 * (poolSize + 1))
	if w < 1 {
		w = 1
	}
	return w
}

// defaultSeqBufferSize is the fallback chunk size used by ParallelSeq,
// AsyncBuf, and Map, none of whose sources have a known length to divide by
// the way defaultWorkUnitSize does.
func defaultSeqBufferSize(poolSize int) int {
	return 4 * (poolSize + 1)
}

// resolveSeqBufferSize is resolveParallelConfig for the non-random-access
// sources: it must not route through defaultWorkUnitSize, which for a
// total of 0 always yields 1 rather than the intended
// defaultSeqBufferSize fallback.
func resolveSeqBufferSize(poolSize int, opts []ParallelOption) int {
	var c parallelConfig
	for _, opt := range opts {
		opt(&c)
	}
	if c.workUnitSize > 0 {
		return c.workUnitSize
	}
	return defaultSeqBufferSize(poolSize)
}

// Parallel calls body once for each element of items, distributing
// contiguous ranges of the slice across p's workers as independent work
// units. body receives a pointer into items so it may mutate the slice in
// place; the "observable only after forcing" rule governs Parallel's own
// return value, not side effects through that pointer, which the caller
// already holds regardless of forcing.
//
// If body returns ErrForeachBreak, submission of further work units stops,
// but units already in flight run to completion; any faults they raise are
// chained onto the returned error. Any other non-nil return from body is
// itself a fault and is chained the same way.
func Parallel[T any](p *Pool, items []T, body func(elem *T) error, opts ...ParallelOption) error {
	return ParallelIndex(p, items, func(_ int, elem *T) error { return body(elem) }, opts...)
}

// ParallelIndex is [Parallel] for bodies that also need the element's index
// within items.
func ParallelIndex[T any](p *Pool, items []T, body func(index int, elem *T) error, opts ...ParallelOption) error {
	total := len(items)
	if total == 0 {
		return nil
	}
	cfg := resolveParallelConfig(total, p.Size(), opts)
	unit := func(start, end int) error {
		for i := start; i < end; i++ {
			if err := body(i, &items[i]); err != nil {
				return err
			}
		}
		return nil
	}
	return p.runBatched(total, cfg.workUnitSize, unit)
}

// chunkSource is implemented by *[AsyncBuffer] and *[MapBuffer]. Go's
// range-over-func iterators are plain function values with no identity a
// callee could inspect, so ParallelSeq itself cannot tell whether the
// iter.Seq it was handed happens to be Buf.Seq() for some buffer Buf --
// there is nothing to type-switch on. ParallelAsyncBuf and ParallelMapBuf
// sidestep that by taking the buffer itself instead of its Seq view,
// exactly the way the buffer-swap optimization is meant to be reached.
type chunkSource[T any] interface {
	nextChunk() ([]T, bool)
	chunkSize() int
}

// ParallelAsyncBuf is [ParallelSeq] specialized for a source chained
// directly off an [AsyncBuffer]: instead of draining ab.Seq() one element at
// a time into a freshly allocated work-unit buffer, it takes ownership of
// each of ab's own buffers and submits it as a work unit unchanged, with the
// work-unit size overridden to ab's own buffer size. Use this in place of
// ParallelSeq(p, ab.Seq(), body) whenever ab has no other consumer.
func ParallelAsyncBuf[T any](p *Pool, ab *AsyncBuffer[T], body func(elem *T) error) error {
	return parallelChunked[T](p, ab, body)
}

// ParallelMapBuf is [ParallelAsyncBuf] for a source chained off a
// [MapBuffer].
func ParallelMapBuf[T, R any](p *Pool, mb *MapBuffer[T, R], body func(elem *R) error) error {
	return parallelChunked[R](p, mb, body)
}

func parallelChunked[T any](p *Pool, src chunkSource[T], body func(elem *T) error) error {
	if p.Size() == 0 {
		var faults []error
		for {
			chunk, ok := src.nextChunk()
			if !ok {
				break
			}
			stop := false
			for i := range chunk {
				if err := body(&chunk[i]); err != nil {
					faults = append(faults, err)
					stop = true
					break
				}
			}
			if stop {
				break
			}
		}
		return chainFaults(faults)
	}

	maxInFlight := 2 * p.Size()
	inFlight := make([]*Task, 0, maxInFlight)
	var faults []error
	stopped := false

	drainCompleted := func() {
		for len(inFlight) > 0 && inFlight[0].Done() {
			t0 := inFlight[0]
			inFlight = inFlight[1:]
			if t0.err != nil {
				faults = append(faults, t0.err)
				stopped = true
			}
		}
	}

	for !stopped {
		drainCompleted()
		if stopped {
			break
		}

		chunk, ok := src.nextChunk()
		if !ok {
			break
		}

		t := newTask(p, func(t *Task) {
			for i := range chunk {
				if err := body(&chunk[i]); err != nil {
					t.err = err
					return
				}
			}
		})
		if err := p.Submit(t); err != nil {
			faults = append(faults, err)
			break
		}
		inFlight = append(inFlight, t)

		if len(inFlight) >= maxInFlight {
			head := inFlight[0]
			inFlight = inFlight[1:]
			if err := head.WorkForce(); err != nil {
				faults = append(faults, err)
				stopped = true
			}
		}
	}

	for _, t := range inFlight {
		if err := t.WorkForce(); err != nil {
			faults = append(faults, err)
		}
	}

	return chainFaults(faults)
}

// ParallelSeq is [Parallel] for a non-random-access source: a range-over-func
// iterator such as one produced by a generator, channel drain, or file
// scan. Since seq can only be pulled from sequentially, the calling
// goroutine buffers up to W elements at a time into a private slice before
// handing that chunk off as one work unit, bounding the number of
// in-flight chunks to 2*p.Size() the same way the batched submission
// scheme bounds slice-based Parallel to O(pool size) memory.
//
// If seq is an [AsyncBuffer] or [MapBuffer]'s Seq method, prefer
// [ParallelAsyncBuf] or [ParallelMapBuf] on the buffer itself: this
// function can only copy elements out of seq one at a time, while those
// swap the buffer's own chunks straight into work units and adopt its
// buffer size as W.
func ParallelSeq[T any](p *Pool, seq iter.Seq[T], body func(elem *T) error, opts ...ParallelOption) error {
	w := resolveSeqBufferSize(p.Size(), opts)

	if p.Size() == 0 {
		var faults []error
		for v := range seq {
			v := v
			if err := body(&v); err != nil {
				faults = append(faults, err)
				break
			}
		}
		return chainFaults(faults)
	}

	next, stop := iter.Pull(seq)
	defer stop()

	maxInFlight := 2 * p.Size()
	inFlight := make([]*Task, 0, maxInFlight)
	var faults []error
	stopped := false

	drainCompleted := func() {
		for len(inFlight) > 0 && inFlight[0].Done() {
			t0 := inFlight[0]
			inFlight = inFlight[1:]
			if t0.err != nil {
				faults = append(faults, t0.err)
				stopped = true
			}
		}
	}

	for !stopped {
		drainCompleted()
		if stopped {
			break
		}

		buf := make([]T, 0, w)
		for len(buf) < w {
			v, ok := next()
			if !ok {
				stopped = true
				break
			}
			buf = append(buf, v)
		}
		if len(buf) == 0 {
			break
		}

		t := newTask(p, func(t *Task) {
			for i := range buf {
				if err := body(&buf[i]); err != nil {
					t.err = err
					return
				}
			}
		})
		if err := p.Submit(t); err != nil {
			faults = append(faults, err)
			break
		}
		inFlight = append(inFlight, t)

		if len(inFlight) >= maxInFlight {
			head := inFlight[0]
			inFlight = inFlight[1:]
			if err := head.WorkForce(); err != nil {
				faults = append(faults, err)
				stopped = true
			}
		}
	}

	for _, t := range inFlight {
		if err := t.WorkForce(); err != nil {
			faults = append(faults, err)
		}
	}

	return chainFaults(faults)
}
