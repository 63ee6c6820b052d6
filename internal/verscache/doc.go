// Package verscache persists resolved version lookups for tracked packages.
//
// Remote tag queries cost a network round trip per package, so `upkeep check`
// stores each result here and reuses it until the configured TTL lapses. The
// cache is the repository's only persistent state.
//
// # Storage
//
// A single human-readable JSON file (default ~/.cache/upkeep/versions.json)
// holding an array of entries. Writes go through a temp file and rename so a
// crash never leaves a truncated cache; a corrupt file is discarded with a
// warning rather than failing the run.
//
// CLI commands for inspection and management:
//
//	upkeep cache show    # List cached lookups with their age
//	upkeep cache clear   # Remove all entries
package verscache
