//go:build windows

package osprio

import "golang.org/x/sys/windows"

// SetCurrentThreadPriority passes priority unchanged to SetThreadPriority as
// a Windows thread priority value for the calling OS thread.
func SetCurrentThreadPriority(priority int) {
	_ = windows.SetThreadPriority(windows.CurrentThread(), priority)
}
