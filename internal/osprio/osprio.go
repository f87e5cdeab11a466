// Copyright (c) Umkerius. All rights reserved.
// Licensed under the MIT License.

// Package osprio passes a pool worker's requested scheduling priority through
// to the host OS thread, the way a native thread pool would via its
// platform's nice/priority API. This is a thin passthrough only: osprio does
// not implement scheduling policy of its own, it just asks the OS to apply
// one.
//
// Because Go does not expose a stable mapping from goroutine to OS thread
// except via [runtime.LockOSThread], PinCurrentThread must be called once by
// a worker at the start of its loop, before any call to
// SetCurrentThreadPriority, and the worker must never call
// runtime.UnlockOSThread for the rest of its life.
package osprio

import "runtime"

// PinCurrentThread locks the calling goroutine to its current OS thread for
// the remainder of its life, which is a precondition for
// SetCurrentThreadPriority to have any stable effect.
func PinCurrentThread() {
	runtime.LockOSThread()
}
