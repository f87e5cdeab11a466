// Copyright (c) Umkerius. All rights reserved.
// Licensed under the MIT License.

package parallelism

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// defaultPoolWorkers is the process-wide worker count used by GlobalPool the
// first time it is materialized. Reads and writes are always safe, but a
// write after GlobalPool has already run has no effect, mirroring the
// teacher's treatment of global mutable configuration (state.DynamicValue /
// JobState) as observable only to readers that have not yet materialized the
// singleton it gates.
var defaultPoolWorkers atomic.Int64

func init() {
	defaultPoolWorkers.Store(int64(defaultWorkerCount()))
}

// DefaultPoolWorkers returns the worker count that GlobalPool will use the
// first time it is called.
func DefaultPoolWorkers() int {
	return int(defaultPoolWorkers.Load())
}

// SetDefaultPoolWorkers changes the worker count GlobalPool will use the
// first time it is called. It has no effect once the global pool has already
// been materialized.
func SetDefaultPoolWorkers(n int) {
	defaultPoolWorkers.Store(int64(n))
}

// NumCPU is the detected core count, matching runtime.NumCPU. It exists as a
// named export so that callers sizing their own pools don't need to import
// "runtime" just for this one value.
func NumCPU() int {
	return runtime.NumCPU()
}

func defaultWorkerCount() int {
	n := runtime.NumCPU() - 1
	if n < 0 {
		return 0
	}
	return n
}

var (
	globalPool     *Pool
	globalPoolOnce sync.Once
)

// GlobalPool lazily constructs the process-wide default pool under a
// single-init guard, sized by DefaultPoolWorkers as of the first call, and
// marks its workers as daemon workers (see Pool.SetDaemon) so that waiting on
// process exit need not wait on them.
func GlobalPool() *Pool {
	globalPoolOnce.Do(func() {
		globalPool = NewPool(DefaultPoolWorkers(), WithDaemon(true))
	})
	return globalPool
}
