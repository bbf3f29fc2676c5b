package cachestore

import (
	"fmt"

	"github.com/gofrs/flock"
)

// AcquireMaintenanceLock takes an exclusive file lock guarding bulk cache
// maintenance (Clear, CleanExpired) so two processes do not interleave a
// sweep with each other's writes. Returns a release function.
func AcquireMaintenanceLock(lockPath string) (func(), error) {
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire cache maintenance lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("cache maintenance already running (lock held at %s)", lockPath)
	}
	return func() { _ = lock.Unlock() }, nil
}
