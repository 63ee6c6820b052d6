package testsupport

import (
	"path/filepath"
	"testing"

	"upkeep/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.LockFile = filepath.Join(base, "cache", "upkeep.lock")
	cfgVal.Versions.RemoteBase = "https://git.example.test/tracked"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithPackages sets the tracked package list on the test config.
func WithPackages(pkgs ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Versions.Packages = pkgs
	}
}

// WithRemoteBase overrides the git remote base on the test config.
func WithRemoteBase(base string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Versions.RemoteBase = base
	}
}

// WithComposeDir enables the compose manager against the given directory.
func WithComposeDir(dir string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Compose.Dir = dir
	}
}

// WithSkip marks manager names as skipped in the test config.
func WithSkip(names ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Update.Skip = names
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.CacheDir)
}
