//go:build linux || darwin

package osprio

import "golang.org/x/sys/unix"

// SetCurrentThreadPriority passes priority through to the calling OS thread's
// nice value via setpriority(2), following the same build-tagged,
// golang.org/x/sys/unix-backed pattern used for CPU affinity elsewhere in the
// wider example corpus. Errors are ignored: a failed priority passthrough is
// not fatal to task execution, only to scheduling fairness, matching the
// spec's treatment of OS priority as advisory.
func SetCurrentThreadPriority(priority int) {
	_ = unix.Setpriority(unix.PRIO_PROCESS, 0, priority)
}
