package engine

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zeebo/blake3"
	_ "modernc.org/sqlite"
)

// Cache is a SQLite-backed fingerprint cache for manifest seeding. Entries
// are keyed by destination path and invalidated when size or mtime change,
// so re-runs against a large populated output tree skip re-hashing
// unchanged files.
type Cache struct {
	db   *sql.DB
	path string

	// Batch buffer for Put calls.
	mu      sync.Mutex
	batch   []cacheEntry
	done    chan struct{}
	stopped bool
}

type cacheEntry struct {
	path        string
	size        int64
	mtimeNano   int64
	fingerprint Fingerprint
}

// OpenCache opens (or creates) the fingerprint cache for the given output
// root. The DB is stored under $XDG_CACHE_HOME/mqlgather (or ~/.cache),
// keyed by a digest of the root so different destinations never share
// state.
func OpenCache(dstRoot string) (*Cache, error) {
	dbPath := cachePath(cacheID(dstRoot))

	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	c := &Cache{
		db:   db,
		path: dbPath,
		done: make(chan struct{}),
	}

	if err := c.init(dstRoot); err != nil {
		db.Close()
		return nil, err
	}

	go c.flushLoop()

	return c, nil
}

func (c *Cache) init(dstRoot string) error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS fingerprints (
			path   TEXT PRIMARY KEY,
			size   INTEGER NOT NULL,
			mtime  INTEGER NOT NULL,
			fp     TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	var storedRoot string
	row := c.db.QueryRow("SELECT value FROM meta WHERE key = 'dst_root'")
	if err := row.Scan(&storedRoot); err == nil {
		if storedRoot != dstRoot {
			return fmt.Errorf("cache root mismatch: stored %s, got %s", storedRoot, dstRoot)
		}
		return nil
	}

	_, err = c.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('dst_root', ?)", dstRoot)
	if err != nil {
		return fmt.Errorf("store meta: %w", err)
	}
	return nil
}

// Lookup returns the cached fingerprint for path if size and mtime still
// match the recorded values.
func (c *Cache) Lookup(path string, size, mtimeNano int64) (Fingerprint, bool) {
	var storedSize, storedMtime int64
	var fp string
	err := c.db.QueryRow(
		"SELECT size, mtime, fp FROM fingerprints WHERE path = ?", path,
	).Scan(&storedSize, &storedMtime, &fp)
	if err != nil {
		return "", false
	}
	if storedSize != size || storedMtime != mtimeNano {
		return "", false
	}
	return Fingerprint(fp), true
}

// Put records a fingerprint. Writes are batched and flushed periodically.
func (c *Cache) Put(path string, size, mtimeNano int64, fp Fingerprint) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.batch = append(c.batch, cacheEntry{
		path:        path,
		size:        size,
		mtimeNano:   mtimeNano,
		fingerprint: fp,
	})

	if len(c.batch) >= 100 {
		return c.flushLocked()
	}
	return nil
}

// Flush writes any pending batch entries to the database.
func (c *Cache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushLocked()
}

func (c *Cache) flushLocked() error {
	if len(c.batch) == 0 {
		return nil
	}

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO fingerprints (path, size, mtime, fp) VALUES (?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range c.batch {
		if _, err := stmt.Exec(e.path, e.size, e.mtimeNano, string(e.fingerprint)); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert %s: %w", e.path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	c.batch = c.batch[:0]
	return nil
}

func (c *Cache) flushLoop() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			_ = c.flushLocked()
			c.mu.Unlock()
		}
	}
}

// Close flushes any pending writes and closes the database.
func (c *Cache) Close() error {
	c.mu.Lock()
	if !c.stopped {
		c.stopped = true
		close(c.done)
	}
	_ = c.flushLocked()
	c.mu.Unlock()
	return c.db.Close()
}

// Path returns the path to the cache database file.
func (c *Cache) Path() string {
	return c.path
}

// cacheID computes a deterministic cache ID from the output root.
func cacheID(dstRoot string) string {
	h := blake3.New()
	h.Write([]byte(dstRoot))
	digest := h.Sum(nil)
	return hex.EncodeToString(digest[:8])
}

// cachePath returns the filesystem path for a cache DB.
func cachePath(id string) string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "mqlgather", id+".db")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "mqlgather", id+".db")
	}
	return filepath.Join(os.TempDir(), "mqlgather-"+id+".db")
}
