//go:build !linux && !darwin && !windows

package osprio

// SetCurrentThreadPriority is a no-op on platforms with no supported native
// priority mechanism.
func SetCurrentThreadPriority(priority int) {}
