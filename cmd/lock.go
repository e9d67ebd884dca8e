package cmd

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/snapbench/snapbench/internal/config"
)

var runLock *flock.Flock

// AcquireLock takes the single-instance lock. Returns false when another
// snapbench process already holds it.
func AcquireLock() (bool, error) {
	path := filepath.Join(config.GetStateDir(), "snapbench.lock")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}

	runLock = flock.New(path)
	return runLock.TryLock()
}

// ReleaseLock releases the single-instance lock if held.
func ReleaseLock() error {
	if runLock == nil {
		return nil
	}
	return runLock.Unlock()
}
