// Package workcache caches raw ziptree payloads per workno so repeated
// runs against the same work skip the manifest round trip. The core stays
// stateless; this cache is an optional collaborator in front of it.
package workcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"quire/internal/logging"
)

// Entry is one cached manifest payload.
type Entry struct {
	Workno    string          `json:"workno"`
	Payload   json.RawMessage `json:"payload"`
	Revision  string          `json:"revision,omitempty"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Cache provides thread-safe access to the manifest cache. An empty path
// disables it: all operations become no-ops.
type Cache struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	entries map[string]Entry
}

// New creates a cache instance, loading any existing cache file. The file
// is created lazily on first Store.
func New(path string, logger *slog.Logger) *Cache {
	c := &Cache{
		path:    strings.TrimSpace(path),
		logger:  logging.NewComponentLogger(logger, "workcache"),
		entries: make(map[string]Entry),
	}
	if c.path == "" {
		return c
	}
	if err := c.load(); err != nil {
		c.logger.Warn("failed to load manifest cache; starting empty", logging.Error(err))
	}
	return c
}

// Lookup returns the cached payload for a workno if present.
func (c *Cache) Lookup(workno string) (Entry, bool) {
	workno = strings.TrimSpace(workno)
	if workno == "" || c.path == "" {
		return Entry{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, found := c.entries[workno]
	return entry, found
}

// Store adds or replaces an entry and persists the cache.
func (c *Cache) Store(entry Entry) error {
	entry.Workno = strings.TrimSpace(entry.Workno)
	if entry.Workno == "" {
		return errors.New("workno cannot be empty")
	}
	if c.path == "" {
		return nil
	}
	if entry.FetchedAt.IsZero() {
		entry.FetchedAt = time.Now().UTC()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.Workno] = entry
	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	c.logger.Debug("cached manifest",
		logging.String(logging.FieldWorkno, entry.Workno),
		logging.Int("bytes", len(entry.Payload)))
	return nil
}

// Remove deletes an entry and persists the change.
func (c *Cache) Remove(workno string) error {
	workno = strings.TrimSpace(workno)
	if workno == "" {
		return errors.New("workno cannot be empty")
	}
	if c.path == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, found := c.entries[workno]; !found {
		return nil
	}
	delete(c.entries, workno)
	return c.save()
}

// Len returns the number of cached manifests.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("decode cache %s: %w", c.path, err)
	}
	for _, entry := range entries {
		if entry.Workno != "" {
			c.entries[entry.Workno] = entry
		}
	}
	return nil
}

// save writes the cache atomically: temp file then rename. Callers hold
// the write lock.
func (c *Cache) save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	entries := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}
	// Deterministic file content regardless of map order.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Workno < entries[j].Workno })
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}
