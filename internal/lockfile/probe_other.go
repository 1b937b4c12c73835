//go:build !linux

package lockfile

// lockHeld probes by briefly taking the lock. A start racing the probe can
// fail with ErrUnavailable; callers poll, so the next probe sees the result.
func lockHeld(path string) (bool, error) {
	return tryLockHeld(path)
}
