// Copyright (c) Umkerius. All rights reserved.
// Licensed under the MIT License.

package parallelism

import "iter"

// AsyncBuffer is a read-ahead cursor over a non-random-access source: while
// the caller drains one buffer of elements, a background task fills the
// next. Create one with [AsyncBuf].
type AsyncBuffer[T any] struct {
	pool *Pool
	pull func() (T, bool)
	stop func()
	b    int

	// chunkSrc is non-nil only when this buffer was built by
	// [AsyncBufChain]: instead of pulling the source one element at a time,
	// fillSync takes ownership of chunkSrc's own chunks directly, and b is
	// chunkSrc.chunkSize() rather than anything the caller asked for.
	chunkSrc chunkSource[T]

	cur       []T
	pos       int
	bgTask    *Task
	bgBuf     []T
	exhausted bool
	err       error
}

// AsyncBuf wraps seq in an [AsyncBuffer] that reads b (or a default sized
// from p's worker count, see [WithWorkUnitSize]) elements ahead in the
// background. The first buffer is filled synchronously before AsyncBuf
// returns, matching the teacher's pattern of establishing initial state
// before handing off to the pool.
func AsyncBuf[T any](p *Pool, seq iter.Seq[T], opts ...ParallelOption) *AsyncBuffer[T] {
	b := resolveSeqBufferSize(p.Size(), opts)
	pull, stop := iter.Pull(seq)
	ab := &AsyncBuffer[T]{pool: p, pull: pull, stop: stop, b: b}
	ab.cur = ab.fillSync()
	if len(ab.cur) < ab.b {
		ab.exhausted = true
	} else {
		ab.submitNext()
	}
	return ab
}

// AsyncBufChain is [AsyncBuf] chained directly off an inner [AsyncBuffer]:
// rather than draining src.Seq() one element at a time, it takes ownership
// of each of src's own chunks, and its buffer size is src's own chunk size
// rather than anything a caller could otherwise ask for -- the chaining
// elision the buffer-swap optimization in foreach.go is the random-access
// driver's counterpart of. See [AsyncBufChainFromMapBuf] to chain off a
// [MapBuffer] instead.
func AsyncBufChain[T any](p *Pool, src *AsyncBuffer[T]) *AsyncBuffer[T] {
	return asyncBufChain[T](p, src)
}

// AsyncBufChainFromMapBuf is [AsyncBufChain] for an inner [MapBuffer]
// source, so an AsyncBuffer can adopt a Map's already-transformed chunks
// directly.
func AsyncBufChainFromMapBuf[T, R any](p *Pool, src *MapBuffer[T, R]) *AsyncBuffer[R] {
	return asyncBufChain[R](p, src)
}

func asyncBufChain[T any](p *Pool, src chunkSource[T]) *AsyncBuffer[T] {
	ab := &AsyncBuffer[T]{pool: p, b: src.chunkSize(), chunkSrc: src}
	ab.cur = ab.fillSync()
	if len(ab.cur) < ab.b {
		ab.exhausted = true
	} else {
		ab.submitNext()
	}
	return ab
}

func (ab *AsyncBuffer[T]) fillSync() []T {
	if ab.chunkSrc != nil {
		chunk, ok := ab.chunkSrc.nextChunk()
		if !ok {
			return nil
		}
		return chunk
	}
	buf := make([]T, 0, ab.b)
	for len(buf) < ab.b {
		v, ok := ab.pull()
		if !ok {
			break
		}
		buf = append(buf, v)
	}
	return buf
}

// refill blocks on the background task, if any, and swaps its result in as
// the current buffer, kicking off the next background fill behind it. It
// reports whether any data is now available.
func (ab *AsyncBuffer[T]) refill() bool {
	if ab.bgTask != nil {
		if err := ab.bgTask.WorkForce(); err != nil && ab.err == nil {
			ab.err = err
		}
	}
	ab.cur, ab.pos = ab.bgBuf, 0
	ab.bgBuf = nil
	if len(ab.cur) < ab.b {
		ab.exhausted = true
	} else {
		ab.submitNext()
	}
	return len(ab.cur) > 0
}

// nextChunk hands ownership of the remainder of the current buffer (or the
// next one, if the current buffer is spent) straight to the caller instead
// of copying elements one at a time the way Next does. This is the hook
// ParallelAsyncBuf uses to swap a chained AsyncBuffer's own buffers directly
// into work units.
func (ab *AsyncBuffer[T]) nextChunk() ([]T, bool) {
	if ab.pos < len(ab.cur) {
		chunk := ab.cur[ab.pos:]
		ab.cur, ab.pos = nil, 0
		return chunk, true
	}
	if ab.exhausted || ab.err != nil || !ab.refill() {
		return nil, false
	}
	chunk := ab.cur[ab.pos:]
	ab.cur, ab.pos = nil, 0
	return chunk, true
}

// chunkSize reports the buffer size AsyncBuf was configured with, so a
// chained caller can adopt it as its own work-unit size.
func (ab *AsyncBuffer[T]) chunkSize() int { return ab.b }

// BufferSize reports the buffer size this AsyncBuffer reads ahead by --
// either what AsyncBuf was configured with, or, if built by
// [AsyncBufChain], the inner buffer's own size.
func (ab *AsyncBuffer[T]) BufferSize() int { return ab.b }

func (ab *AsyncBuffer[T]) submitNext() {
	if ab.pool.Size() == 0 {
		ab.bgTask = nil
		ab.bgBuf = ab.fillSync()
		return
	}
	t := newTask(ab.pool, func(t *Task) {
		ab.bgBuf = ab.fillSync()
	})
	if err := ab.pool.Submit(t); err != nil {
		ab.err = err
		ab.bgTask = nil
		ab.bgBuf = nil
		return
	}
	ab.bgTask = t
}

// Next advances to and returns the next element. Its second return value is
// false once the source is exhausted or a fault has occurred; call Err to
// tell the two apart.
func (ab *AsyncBuffer[T]) Next() (T, bool) {
	for ab.pos >= len(ab.cur) {
		if ab.exhausted || ab.err != nil || !ab.refill() {
			var zero T
			return zero, false
		}
	}
	v := ab.cur[ab.pos]
	ab.pos++
	return v, true
}

// Err returns the first fault raised while reading ahead, if any. Production
// errors surface only once the buffer that would have carried them is
// actually reached by the consumer, not when the background task raises
// them.
func (ab *AsyncBuffer[T]) Err() error { return ab.err }

// Close releases the underlying iterator's resources, or, if this buffer
// was built by [AsyncBufChain], closes the inner buffer it took ownership
// of. Safe to call more than once.
func (ab *AsyncBuffer[T]) Close() {
	if ab.stop != nil {
		ab.stop()
	}
	if c, ok := ab.chunkSrc.(interface{ Close() }); ok {
		c.Close()
	}
}

// Seq returns a range-over-func view of the remaining elements, stopping
// early (without setting Err) if the loop body returns false.
func (ab *AsyncBuffer[T]) Seq() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, ok := ab.Next()
			if !ok {
				return
			}
			if !yield(v) {
				return
			}
		}
	}
}

// MapBuffer is [AsyncBuffer] composed with an element-wise transform: each
// background refill also applies fn to its chunk via [AmapInto], so the
// transform itself runs with the same pool-wide parallelism as [Amap].
// Create one with [Map].
type MapBuffer[T, R any] struct {
	pool *Pool
	pull func() (T, bool)
	stop func()
	b    int
	fn   func(T) (R, error)

	// chunkSrc is non-nil only when this buffer was built by [MapChain]; see
	// the equivalent field on AsyncBuffer.
	chunkSrc chunkSource[T]

	cur       []R
	pos       int
	bgTask    *Task
	bgBuf     []R
	bgErr     error
	exhausted bool
	err       error
}

// Map wraps seq in a [MapBuffer] that applies fn to each element, buffering
// and transforming b elements ahead of the consumer in the background.
func Map[T, R any](p *Pool, seq iter.Seq[T], fn func(T) (R, error), opts ...ParallelOption) *MapBuffer[T, R] {
	b := resolveSeqBufferSize(p.Size(), opts)
	pull, stop := iter.Pull(seq)
	mb := &MapBuffer[T, R]{pool: p, pull: pull, stop: stop, b: b, fn: fn}
	mb.cur, mb.err = mb.fillAndMap()
	if len(mb.cur) < mb.b {
		mb.exhausted = true
	} else {
		mb.submitNext()
	}
	return mb
}

// MapChain is [Map] chained directly off an inner [AsyncBuffer]: per the
// spec's chaining elision, src's own chunk size overrides any buffer size
// this call would otherwise pick, and each refill takes ownership of one of
// src's chunks via [AmapInto] instead of pulling src.Seq() one element at a
// time. See [MapChainFromMapBuf] to chain off a [MapBuffer] instead --
// e.g. map(f, async_buf(source, B=64), B=128) is
// MapChain(p, AsyncBuf(p, source, WithWorkUnitSize(64)), f), and the
// resulting MapBuffer.BufferSize is 64, not 128.
func MapChain[T, R any](p *Pool, src *AsyncBuffer[T], fn func(T) (R, error)) *MapBuffer[T, R] {
	return mapChain[T, R](p, src, fn)
}

// MapChainFromMapBuf is [MapChain] for an inner [MapBuffer] source, so a Map
// can be chained directly onto another Map's output.
func MapChainFromMapBuf[T, U, R any](p *Pool, src *MapBuffer[T, U], fn func(U) (R, error)) *MapBuffer[U, R] {
	return mapChain[U, R](p, src, fn)
}

func mapChain[T, R any](p *Pool, src chunkSource[T], fn func(T) (R, error)) *MapBuffer[T, R] {
	mb := &MapBuffer[T, R]{pool: p, b: src.chunkSize(), fn: fn, chunkSrc: src}
	mb.cur, mb.err = mb.fillAndMap()
	if len(mb.cur) < mb.b {
		mb.exhausted = true
	} else {
		mb.submitNext()
	}
	return mb
}

func (mb *MapBuffer[T, R]) fillAndMap() ([]R, error) {
	if mb.chunkSrc != nil {
		chunk, ok := mb.chunkSrc.nextChunk()
		if !ok {
			return nil, nil
		}
		return AmapInto(mb.pool, chunk, nil, mb.fn)
	}
	raw := make([]T, 0, mb.b)
	for len(raw) < mb.b {
		v, ok := mb.pull()
		if !ok {
			break
		}
		raw = append(raw, v)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return AmapInto(mb.pool, raw, nil, mb.fn)
}

// refill is [AsyncBuffer.refill] for MapBuffer, also surfacing a bgErr
// captured from a synchronous (pool-size-zero) fill.
func (mb *MapBuffer[T, R]) refill() bool {
	if mb.bgTask != nil {
		if err := mb.bgTask.WorkForce(); err != nil && mb.err == nil {
			mb.err = err
		}
	} else if mb.bgErr != nil && mb.err == nil {
		mb.err = mb.bgErr
	}
	mb.cur, mb.pos = mb.bgBuf, 0
	mb.bgBuf = nil
	if len(mb.cur) < mb.b {
		mb.exhausted = true
	} else {
		mb.submitNext()
	}
	return len(mb.cur) > 0
}

// nextChunk is [AsyncBuffer.nextChunk] for MapBuffer; ParallelMapBuf uses it
// to swap a chained MapBuffer's own buffers directly into work units.
func (mb *MapBuffer[T, R]) nextChunk() ([]R, bool) {
	if mb.pos < len(mb.cur) {
		chunk := mb.cur[mb.pos:]
		mb.cur, mb.pos = nil, 0
		return chunk, true
	}
	if mb.exhausted || mb.err != nil || !mb.refill() {
		return nil, false
	}
	chunk := mb.cur[mb.pos:]
	mb.cur, mb.pos = nil, 0
	return chunk, true
}

// chunkSize reports the buffer size Map was configured with.
func (mb *MapBuffer[T, R]) chunkSize() int { return mb.b }

// BufferSize reports the buffer size this MapBuffer reads and transforms
// ahead by -- either what Map was configured with, or, if built by
// [MapChain], the inner buffer's own size.
func (mb *MapBuffer[T, R]) BufferSize() int { return mb.b }

func (mb *MapBuffer[T, R]) submitNext() {
	if mb.pool.Size() == 0 {
		mb.bgTask = nil
		mb.bgBuf, mb.bgErr = mb.fillAndMap()
		return
	}
	t := newTask(mb.pool, func(t *Task) {
		buf, err := mb.fillAndMap()
		mb.bgBuf = buf
		t.err = err
	})
	if err := mb.pool.Submit(t); err != nil {
		mb.err = err
		mb.bgTask = nil
		return
	}
	mb.bgTask = t
}

// Next advances to and returns the next transformed element, mirroring
// [AsyncBuffer.Next].
func (mb *MapBuffer[T, R]) Next() (R, bool) {
	for mb.pos >= len(mb.cur) {
		if mb.exhausted || mb.err != nil || !mb.refill() {
			var zero R
			return zero, false
		}
	}
	v := mb.cur[mb.pos]
	mb.pos++
	return v, true
}

// Err returns the first fault raised by fn or by reading the source.
func (mb *MapBuffer[T, R]) Err() error { return mb.err }

// Close releases the underlying iterator's resources, or, if this buffer
// was built by [MapChain], closes the inner buffer it took ownership of.
// Safe to call more than once.
func (mb *MapBuffer[T, R]) Close() {
	if mb.stop != nil {
		mb.stop()
	}
	if c, ok := mb.chunkSrc.(interface{ Close() }); ok {
		c.Close()
	}
}

// Seq returns a range-over-func view of the remaining transformed elements.
func (mb *MapBuffer[T, R]) Seq() iter.Seq[R] {
	return func(yield func(R) bool) {
		for {
			v, ok := mb.Next()
			if !ok {
				return
			}
			if !yield(v) {
				return
			}
		}
	}
}
