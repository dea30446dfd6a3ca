package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ParseCache memoizes FileRecords across runs so unchanged files skip
// re-parsing. Entries are keyed by absolute path and validated with a hash
// of path, size, modification time and module path; JSON persistence lives
// in a single file under the user cache directory.
type ParseCache struct {
	path string

	mu      sync.Mutex
	entries map[string]cacheEntry
	dirty   bool
}

type cacheEntry struct {
	Hash      string      `json:"hash"`
	Timestamp string      `json:"timestamp"`
	Record    *FileRecord `json:"record"`
}

// OpenParseCache loads the cache at dir, creating the directory when
// missing. An empty dir selects <user cache dir>/codesynapse. A corrupt or
// missing cache file yields an empty cache, not an error.
func OpenParseCache(dir string) (*ParseCache, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("locate user cache dir: %w", err)
		}
		dir = filepath.Join(base, "codesynapse")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	c := &ParseCache{
		path:    filepath.Join(dir, "parse_cache.json"),
		entries: make(map[string]cacheEntry),
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return c, nil
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		c.entries = make(map[string]cacheEntry)
	}
	return c, nil
}

// Get returns the cached record for a file, or nil on miss or staleness.
func (c *ParseCache) Get(absPath string, info fs.FileInfo, modulePath string) *FileRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[absPath]
	if !ok || entry.Hash != fileHash(absPath, info, modulePath) {
		return nil
	}
	return entry.Record
}

// Put stores a freshly parsed record.
func (c *ParseCache) Put(absPath string, info fs.FileInfo, modulePath string, rec *FileRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[absPath] = cacheEntry{
		Hash:      fileHash(absPath, info, modulePath),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Record:    rec,
	}
	c.dirty = true
}

// Save writes the cache file when anything changed since load.
func (c *ParseCache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty {
		return nil
	}
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	c.dirty = false
	return nil
}

// Clear drops all entries and persists the empty cache.
func (c *ParseCache) Clear() error {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.dirty = true
	c.mu.Unlock()
	return c.Save()
}

// fileHash fingerprints a file's identity and metadata. Module path is part
// of the key because cached records embed qualified names derived from it.
func fileHash(absPath string, info fs.FileInfo, modulePath string) string {
	key := fmt.Sprintf("%s:%d:%d:%s", absPath, info.Size(), info.ModTime().UnixNano(), modulePath)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
