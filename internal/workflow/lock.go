package workflow

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"upkeep/internal/services"
)

// AcquireLock takes the host-wide run lock so two update runs cannot
// interleave their package-manager invocations. It returns a release func on
// success; a held lock is a configuration-class error with a message naming
// the lock file.
func AcquireLock(path string) (func(), error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create lock directory: %w", err)
		}
	}

	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "", "",
			fmt.Sprintf("another upkeep run is already in progress (lock: %s)", path), nil)
	}
	return func() { _ = lock.Unlock() }, nil
}
