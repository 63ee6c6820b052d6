package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeUpdate()
	if err := c.normalizeVersions(); err != nil {
		return err
	}
	if err := c.normalizeCompose(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LockFile) == "" {
		c.Paths.LockFile = filepath.Join(c.Paths.CacheDir, "upkeep.lock")
	}
	if c.Paths.LockFile, err = expandPath(c.Paths.LockFile); err != nil {
		return fmt.Errorf("paths.lock_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeUpdate() {
	c.Update.SudoBinary = strings.TrimSpace(c.Update.SudoBinary)
	if c.Update.SudoBinary == "" {
		c.Update.SudoBinary = defaultSudoBinary
	}
	c.Update.Skip = dedupeNames(c.Update.Skip)

	phrases := make([]string, 0, len(c.Update.FilterPhrases))
	for _, phrase := range c.Update.FilterPhrases {
		if trimmed := strings.TrimSpace(phrase); trimmed != "" {
			phrases = append(phrases, trimmed)
		}
	}
	c.Update.FilterPhrases = phrases
}

func (c *Config) normalizeVersions() error {
	c.Versions.GitBinary = strings.TrimSpace(c.Versions.GitBinary)
	if c.Versions.GitBinary == "" {
		c.Versions.GitBinary = defaultGitBinary
	}
	c.Versions.PipBinary = strings.TrimSpace(c.Versions.PipBinary)
	if c.Versions.PipBinary == "" {
		c.Versions.PipBinary = defaultPipBinary
	}
	c.Versions.RemoteBase = strings.TrimSpace(c.Versions.RemoteBase)
	if c.Versions.RemoteBase == "" {
		if value, ok := os.LookupEnv("UPKEEP_REMOTE_BASE"); ok {
			c.Versions.RemoteBase = strings.TrimSpace(value)
		}
	}
	c.Versions.RemoteBase = strings.TrimRight(c.Versions.RemoteBase, "/")
	c.Versions.Packages = dedupeNames(c.Versions.Packages)
	if c.Versions.CacheTTLHours <= 0 {
		c.Versions.CacheTTLHours = defaultCacheTTLHours
	}
	if c.Versions.Concurrency <= 0 {
		c.Versions.Concurrency = defaultConcurrency
	}
	return nil
}

func (c *Config) normalizeCompose() error {
	c.Compose.Dir = strings.TrimSpace(c.Compose.Dir)
	if c.Compose.Dir == "" {
		return nil
	}
	var err error
	if c.Compose.Dir, err = expandPath(c.Compose.Dir); err != nil {
		return fmt.Errorf("compose.dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func dedupeNames(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := strings.ToLower(strings.TrimSpace(value))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
