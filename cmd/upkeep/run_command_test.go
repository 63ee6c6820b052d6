package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"upkeep/internal/workflow"
)

func TestRunUpdatesEligibleManagers(t *testing.T) {
	cfgPath, base := writeTestConfig(t)
	calls := filepath.Join(base, "calls.txt")
	stubPath(t, map[string]string{
		"chezmoi": fmt.Sprintf("echo \"chezmoi $*\" >> %q\nexit 0\n", calls),
		"pip":     fmt.Sprintf("echo \"pip $*\" >> %q\nexit 0\n", calls),
	})

	out, errOut, err := runCLI(t, cfgPath, "run")
	if err != nil {
		t.Fatalf("run: %v\nstdout:\n%s\nstderr:\n%s", err, out, errOut)
	}

	requireContains(t, out, "Updating dotfiles...")
	requireContains(t, out, "Updating pip...")
	requireContains(t, out, "No outdated packages.")
	requireContains(t, out, "completed")
	requireContains(t, out, "All updates completed in")
	if errOut != "" {
		t.Fatalf("expected empty stderr, got %q", errOut)
	}

	data, err := os.ReadFile(calls)
	if err != nil {
		t.Fatalf("read call log: %v", err)
	}
	recorded := string(data)
	requireContains(t, recorded, "chezmoi update")
	requireContains(t, recorded, "pip install --upgrade pip")
	requireContains(t, recorded, "pip list --outdated --format=freeze")
	requireNotContains(t, recorded, "apt-get")

	logs, err := filepath.Glob(filepath.Join(base, "logs", "upkeep-*.log"))
	if err != nil {
		t.Fatalf("glob run logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected one run log file, got %v", logs)
	}
}

func TestRunUpgradesOutdatedPipPackages(t *testing.T) {
	cfgPath, base := writeTestConfig(t)
	calls := filepath.Join(base, "calls.txt")
	stubPath(t, map[string]string{
		"pip": fmt.Sprintf(`echo "pip $*" >> %q
if [ "$1" = "list" ]; then
    printf 'requests==2.31.0\nurllib3==2.1.0\n'
fi
exit 0
`, calls),
	})

	out, _, err := runCLI(t, cfgPath, "run", "pip")
	if err != nil {
		t.Fatalf("run pip: %v\nstdout:\n%s", err, out)
	}

	requireContains(t, out, "Upgrading outdated packages...")
	requireContains(t, out, "2 outdated packages upgraded successfully!")

	data, err := os.ReadFile(calls)
	if err != nil {
		t.Fatalf("read call log: %v", err)
	}
	requireContains(t, string(data), "pip install --upgrade requests urllib3")
}

func TestRunFailureSetsExitCode(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)
	stubPath(t, map[string]string{
		"chezmoi": "echo boom\nexit 2\n",
	})

	out, errOut, err := runCLI(t, cfgPath, "run", "chezmoi")
	var exitErr *exitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected exitError, got %v", err)
	}
	if exitErr.code != 1 {
		t.Fatalf("expected exit code 1, got %d", exitErr.code)
	}
	requireContains(t, out, "boom")
	requireContains(t, out, "failed")
	requireContains(t, errOut, "Failed to update dotfiles: exit status 2")
	requireContains(t, errOut, "1 of 1 managers failed")
}

func TestRunUnknownManagerIsError(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)
	stubPath(t, map[string]string{"chezmoi": "exit 0\n"})

	_, _, err := runCLI(t, cfgPath, "run", "nope")
	if err == nil {
		t.Fatal("expected error for unknown manager")
	}
	requireContains(t, err.Error(), `unknown manager "nope"`)
}

func TestRunHonorsConfigSkip(t *testing.T) {
	cfgPath, _ := writeTestConfig(t, `[update]
skip = ["pip"]`)
	stubPath(t, map[string]string{
		"chezmoi": "exit 0\n",
		"pip":     "exit 0\n",
	})

	out, _, err := runCLI(t, cfgPath, "run")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "skipped by configuration")
	requireNotContains(t, out, "Updating pip...")

	// Naming the manager explicitly overrides its skip entry.
	out, _, err = runCLI(t, cfgPath, "run", "pip")
	if err != nil {
		t.Fatalf("run pip: %v", err)
	}
	requireContains(t, out, "Updating pip...")
}

func TestRunRefusesConcurrentRun(t *testing.T) {
	cfgPath, base := writeTestConfig(t)
	stubPath(t, map[string]string{"chezmoi": "exit 0\n"})

	release, err := workflow.AcquireLock(filepath.Join(base, "upkeep.lock"))
	if err != nil {
		t.Fatalf("acquire lock: %v", err)
	}
	defer release()

	_, _, err = runCLI(t, cfgPath, "run")
	if err == nil {
		t.Fatal("expected lock contention error")
	}
	requireContains(t, err.Error(), "already in progress")
}
