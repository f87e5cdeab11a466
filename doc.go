// Copyright (c) Umkerius. All rights reserved.
// Licensed under the MIT License.

// Package parallelism provides a fixed-size task pool backed by a shared FIFO
// queue, a future/promise primitive for forcing a submitted task to yield its
// result, and a handful of data-parallel algorithms built on top of it:
// Parallel (foreach), Amap (eager map), Map and AsyncBuf (lazy, pipelined,
// double-buffered map / read-ahead), and Reduce.
//
// The pool owns a set of worker goroutines and a single mutex-guarded
// intrusive task queue. A task forced by its owner before a worker has picked
// it up is stolen and run inline on the forcing goroutine; a task forced while
// already running is waited on. Task.WorkForce additionally drains other
// queued work while waiting, which is what makes nested parallelism safe: a
// goroutine blocked on a child task does useful work instead of idling.
//
// See [NewPool] to create a pool and [GlobalPool] for the process-wide
// default. See [WorkerLocalStorage] for per-worker accumulators that can be
// drained into a read-only sequence once a parallel phase completes.
package parallelism
