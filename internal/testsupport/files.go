package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteStubBinary writes an executable shell script into dir and returns its
// path. body runs under /bin/sh.
func WriteStubBinary(t testing.TB, dir, name, body string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

// WithStubbedBinaries writes succeed-immediately stubs for the provided names
// and prepends their directory to PATH for the duration of the test. It
// returns the stub directory so callers can add more elaborate stubs next to
// them.
func WithStubbedBinaries(t testing.TB, names ...string) string {
	t.Helper()

	binDir := filepath.Join(t.TempDir(), "bin")
	for _, name := range names {
		WriteStubBinary(t, binDir, name, "exit 0\n")
	}

	oldPath := os.Getenv("PATH")
	if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
		t.Fatalf("set PATH: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Setenv("PATH", oldPath)
	})
	return binDir
}
