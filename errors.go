// Copyright (c) Umkerius. All rights reserved.
// Licensed under the MIT License.

package parallelism

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// constError is a lightweight string-based error type for sentinel values,
// following the teacher's errs.go pattern of exported error constants over a
// hierarchy of structs.
type constError string

func (e constError) Error() string { return string(e) }

const (
	// ErrPoolClosed is returned by Submit when the pool has already been
	// stopped or finished.
	ErrPoolClosed = constError("parallelism: pool is closed")

	// ErrPrecondition is wrapped by preconditionFault and returned when a
	// caller violates an API precondition (a mismatched output buffer length,
	// forcing a task that was never submitted, etc). A work-unit size of zero
	// or less is not reported: WithWorkUnitSize treats it as unset. An empty
	// reduce with no seed returns ErrEmptyReduce, which does not wrap
	// ErrPrecondition.
	ErrPrecondition = constError("parallelism: precondition violated")

	// ErrEmptyReduce is returned by Reduce when the source is empty and no
	// seed value was supplied.
	ErrEmptyReduce = constError("parallelism: cannot reduce empty sequence without a seed")

	// ErrForeachBreak is the sentinel fault a Parallel body returns to break
	// out of the loop early; the package does not raise it on its own. Breaking out
	// of a parallel foreach is a programming error: the work units that have
	// already started are allowed to run to completion and any faults they
	// raise are chained onto this one.
	ErrForeachBreak = constError("parallelism: cannot break out of a parallel foreach body")
)

func preconditionFault(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPrecondition, fmt.Sprintf(format, args...))
}

// executionFault wraps a panic that escaped a task body, capturing the
// recovered value and a stack trace the way the teacher's
// processWithRecovery helper does for worker-pool panics.
type executionFault struct {
	recovered any
	stack     string
}

func newExecutionFault(recovered any) *executionFault {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return &executionFault{recovered: recovered, stack: string(buf[:n])}
}

func (f *executionFault) Error() string {
	return fmt.Sprintf("parallelism: task panicked: %v\n%s", f.recovered, f.stack)
}

// aggregatedFault chains multiple faults raised by the independent work units
// of a single parallel operation. Order of the chain is unspecified, matching
// the unspecified completion order of the underlying work units.
type aggregatedFault struct {
	faults []error
}

func (f *aggregatedFault) Error() string {
	if len(f.faults) == 1 {
		return f.faults[0].Error()
	}
	parts := make([]string, len(f.faults))
	for i, e := range f.faults {
		parts[i] = e.Error()
	}
	return fmt.Sprintf("parallelism: %d faults from parallel operation:\n%s", len(f.faults), strings.Join(parts, "\n"))
}

// Unwrap exposes the chain so that errors.Is/errors.As can find, e.g., a
// single ErrForeachBreak among several concurrently raised faults.
func (f *aggregatedFault) Unwrap() []error { return f.faults }

// chainFaults combines zero or more faults raised by the work units of one
// parallel operation into a single error, returning nil if none were raised
// and the bare error if exactly one was.
func chainFaults(faults []error) error {
	switch len(faults) {
	case 0:
		return nil
	case 1:
		return faults[0]
	default:
		return &aggregatedFault{faults: faults}
	}
}

// IsForeachBreak reports whether err is, or chains, an ErrForeachBreak fault.
func IsForeachBreak(err error) bool {
	return errors.Is(err, ErrForeachBreak)
}
