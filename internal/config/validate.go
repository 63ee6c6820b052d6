package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. upkeep runs fine with an empty
// config, so every rule here is conditional on an opted-in feature.
func (c *Config) Validate() error {
	if err := c.validateVersions(); err != nil {
		return err
	}
	if err := c.validateUpdate(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateVersions() error {
	if len(c.Versions.Packages) > 0 && c.Versions.RemoteBase == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/upkeep/config.toml"
		}
		return fmt.Errorf("versions.remote_base is required when versions.packages is set. Set UPKEEP_REMOTE_BASE env var or edit %s (create with 'upkeep config init')", defaultPath)
	}
	if c.Versions.CacheTTLHours <= 0 {
		return errors.New("versions.cache_ttl_hours must be positive")
	}
	if c.Versions.Concurrency <= 0 {
		return errors.New("versions.concurrency must be positive")
	}
	return nil
}

func (c *Config) validateUpdate() error {
	if strings.TrimSpace(c.Update.SudoBinary) == "" {
		return errors.New("update.sudo_binary must be set")
	}
	return nil
}
