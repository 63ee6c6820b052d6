package verscache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"upkeep/internal/fileutil"
	"upkeep/internal/logging"
)

// Entry records one resolved version lookup for a tracked package.
type Entry struct {
	Package   string    `json:"package"`
	Version   string    `json:"version"`
	Source    string    `json:"source"` // e.g. "git", "pip"
	CheckedAt time.Time `json:"checked_at"`
}

// Cache provides thread-safe access to the version lookup cache. If path is
// empty the cache is non-functional and every operation becomes a no-op, so
// callers never need a nil check.
type Cache struct {
	path    string
	ttl     time.Duration
	logger  *slog.Logger
	mu      sync.RWMutex
	entries map[string]Entry // keyed by package name
}

// New creates a cache instance backed by the JSON file at path. Entries older
// than ttl are treated as absent on Lookup; a non-positive ttl never expires.
// The cache file is created lazily on first Store call, and a corrupt or
// missing file degrades to an empty cache with a warning.
func New(path string, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "verscache")

	c := &Cache{
		path:    path,
		ttl:     ttl,
		logger:  logger,
		entries: make(map[string]Entry),
	}

	if path == "" {
		return c
	}

	if err := c.load(); err != nil {
		logger.Warn("failed to load version cache",
			logging.String(logging.FieldEventType, "verscache_load_failed"),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "cache will start empty"),
			logging.String(logging.FieldImpact, "version lookups will query remotes again"))
	}

	return c
}

// Lookup returns a fresh cache entry for the given package. Entries past
// their TTL are reported as absent but stay on disk until overwritten.
func (c *Cache) Lookup(pkg string) (Entry, bool) {
	pkg = strings.TrimSpace(pkg)
	if pkg == "" || c.path == "" {
		return Entry{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, found := c.entries[pkg]
	if !found {
		return Entry{}, false
	}
	if c.ttl > 0 && time.Since(entry.CheckedAt) > c.ttl {
		return Entry{}, false
	}
	return entry, true
}

// Store adds or updates an entry and persists the cache to disk.
func (c *Cache) Store(entry Entry) error {
	entry.Package = strings.TrimSpace(entry.Package)
	if entry.Package == "" {
		return errors.New("package name cannot be empty")
	}
	if entry.CheckedAt.IsZero() {
		entry.CheckedAt = time.Now().UTC()
	}
	if c.path == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[entry.Package] = entry

	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}

	c.logger.Debug("cached version lookup",
		logging.String("package", entry.Package),
		logging.String("version", entry.Version),
		logging.String("source", entry.Source))

	return nil
}

// Remove deletes an entry by package name and persists the change.
func (c *Cache) Remove(pkg string) error {
	pkg = strings.TrimSpace(pkg)
	if pkg == "" {
		return errors.New("package name cannot be empty")
	}
	if c.path == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[pkg]; !exists {
		return fmt.Errorf("package %q not found in cache", pkg)
	}

	delete(c.entries, pkg)

	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}

	c.logger.Debug("removed package from cache", logging.String("package", pkg))
	return nil
}

// List returns all cache entries sorted by CheckedAt descending (newest
// first), including expired ones so `upkeep cache show` can surface them.
func (c *Cache) List() []Entry {
	if c.path == "" {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CheckedAt.After(entries[j].CheckedAt)
	})

	return entries
}

// Clear removes all entries and persists the empty cache.
func (c *Cache) Clear() error {
	if c.path == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]Entry)

	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}

	c.logger.Debug("cleared version cache")
	return nil
}

// Count returns the number of entries in the cache.
func (c *Cache) Count() int {
	if c.path == "" {
		return 0
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Path returns the backing file location, empty when the cache is disabled.
func (c *Cache) Path() string {
	return c.path
}

// load reads the cache from disk into memory.
func (c *Cache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // fresh start
		}
		return fmt.Errorf("read cache file: %w", err)
	}

	if len(data) == 0 {
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse cache file: %w", err)
	}

	c.entries = make(map[string]Entry, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry.Package) != "" {
			c.entries[entry.Package] = entry
		}
	}

	c.logger.Debug("loaded version cache",
		logging.Int("entry_count", len(c.entries)),
		logging.String("path", c.path))

	return nil
}

// save writes the cache to disk atomically.
func (c *Cache) save() error {
	entries := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}

	// Sort for deterministic output
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CheckedAt.After(entries[j].CheckedAt)
	})

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	return fileutil.WriteFileAtomic(c.path, data, 0o644)
}
