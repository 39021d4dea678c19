package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS responses (
    key       TEXT PRIMARY KEY,
    body      BLOB NOT NULL,
    stored_at INTEGER NOT NULL
);
`

// SQLiteCache keeps API response bodies keyed by request URL. Entries
// older than ttl read as misses.
type SQLiteCache struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
	ttl  time.Duration
	now  func() time.Time
}

func New(path string, ttl time.Duration) (*SQLiteCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteCache{
		db:   db,
		path: path,
		ttl:  ttl,
		now:  time.Now,
	}, nil
}

func (c *SQLiteCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var (
		body     []byte
		storedAt int64
	)
	err := c.db.QueryRow("SELECT body, stored_at FROM responses WHERE key = ?", key).Scan(&body, &storedAt)
	if err != nil {
		return nil, false
	}

	if c.now().Sub(time.Unix(storedAt, 0)) > c.ttl {
		return nil, false
	}
	return body, true
}

func (c *SQLiteCache) Put(key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec(
		`INSERT INTO responses (key, body, stored_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET body = excluded.body, stored_at = excluded.stored_at`,
		key, data, c.now().Unix(),
	)
	return err
}

// Size is the total number of cached body bytes.
func (c *SQLiteCache) Size() (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var size sql.NullInt64
	if err := c.db.QueryRow("SELECT SUM(LENGTH(body)) FROM responses").Scan(&size); err != nil {
		return 0, err
	}
	return size.Int64, nil
}

func (c *SQLiteCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec("DELETE FROM responses")
	return err
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

