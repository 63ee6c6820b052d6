package config

const (
	defaultLogDir           = "~/.local/share/upkeep/logs"
	defaultCacheDir         = "~/.cache/upkeep"
	defaultLogRetentionDays = 30
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultSudoBinary       = "sudo"
	defaultGitBinary        = "git"
	defaultPipBinary        = "pip"
	defaultCacheTTLHours    = 6
	defaultConcurrency      = 4
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			CacheDir: defaultCacheDir,
		},
		Update: Update{
			SudoBinary: defaultSudoBinary,
		},
		Versions: Versions{
			GitBinary:     defaultGitBinary,
			PipBinary:     defaultPipBinary,
			CacheTTLHours: defaultCacheTTLHours,
			Concurrency:   defaultConcurrency,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
