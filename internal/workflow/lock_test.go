package workflow_test

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"upkeep/internal/services"
	"upkeep/internal/workflow"
)

func TestAcquireLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locks", "upkeep.lock")

	release, err := workflow.AcquireLock(path)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}

	_, err = workflow.AcquireLock(path)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("second acquire err = %v, want ErrConfiguration", err)
	}
	if !strings.Contains(err.Error(), "already in progress") {
		t.Errorf("second acquire message = %q", err)
	}

	release()

	release2, err := workflow.AcquireLock(path)
	if err != nil {
		t.Fatalf("reacquire after release: %v", err)
	}
	release2()
}
